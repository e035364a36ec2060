package runner

import (
	"context"
	"sync"
	"time"

	"digital.vasic.jester/pkg/logging"
)

// livenessMonitor watches a module's progress signal and
// cancels its context when no assertion is recorded within the
// stale threshold. A long module is fine as long as it keeps
// recording.
type livenessMonitor struct {
	progress       <-chan struct{}
	staleThreshold time.Duration
	cancel         context.CancelFunc
	logger         logging.Logger
	moduleID       string
}

// startLivenessMonitor starts the monitor goroutine. The
// returned stop function must be called when the module
// finishes. With a nil progress channel or a non-positive
// threshold it returns a no-op stop and a nil stuck channel.
func startLivenessMonitor(
	progress <-chan struct{},
	staleThreshold time.Duration,
	cancel context.CancelFunc,
	logger logging.Logger,
	moduleID string,
) (stop func(), stuck <-chan struct{}) {
	if progress == nil || staleThreshold <= 0 {
		return func() {}, nil
	}
	if logger == nil {
		logger = logging.NullLogger{}
	}

	m := &livenessMonitor{
		progress:       progress,
		staleThreshold: staleThreshold,
		cancel:         cancel,
		logger:         logger,
		moduleID:       moduleID,
	}

	stopCh := make(chan struct{})
	stuckCh := make(chan struct{})

	go m.run(stopCh, stuckCh)

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
	}, stuckCh
}

func (m *livenessMonitor) run(
	stopCh <-chan struct{},
	stuckCh chan<- struct{},
) {
	timer := time.NewTimer(m.staleThreshold)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return

		case <-m.progress:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.staleThreshold)

		case <-timer.C:
			m.logger.Error(
				"module stalled",
				logging.ModuleField(m.moduleID),
				logging.DurationField("stale_threshold", m.staleThreshold),
			)
			close(stuckCh)
			m.cancel()
			return
		}
	}
}
