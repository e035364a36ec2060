package monitor

import (
	"sync"
	"time"

	"digital.vasic.jester/pkg/report"
)

// EventCollector captures module events and timing data. It
// implements report.Observer.
type EventCollector struct {
	mu       sync.RWMutex
	events   []ModuleEvent
	handlers []func(ModuleEvent)
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Modules    int           `json:"modules"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Errored    int           `json:"errored"`
	Assertions int           `json:"assertions"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]ModuleEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(ModuleEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event ModuleEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	switch event.Type {
	case EventAssertion:
		c.stats.Assertions++
	case EventCompleted:
		c.stats.Modules++
		c.stats.Passed++
	case EventFailed:
		c.stats.Modules++
		c.stats.Failed++
	case EventErrored:
		c.stats.Modules++
		c.stats.Errored++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(ModuleEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// ModuleStarted emits a started event.
func (c *EventCollector) ModuleStarted(id string) {
	c.Emit(ModuleEvent{Type: EventStarted, ModuleID: id, Status: "running"})
}

// AssertionRecorded emits an assertion event.
func (c *EventCollector) AssertionRecorded(
	moduleID, description string, passed, skipped bool,
) {
	status := "failed"
	switch {
	case skipped:
		status = "skipped"
	case passed:
		status = "passed"
	}
	c.Emit(ModuleEvent{
		Type:        EventAssertion,
		ModuleID:    moduleID,
		Description: description,
		Status:      status,
	})
}

// ModuleFinished emits a completed, failed, or errored event.
func (c *EventCollector) ModuleFinished(result report.ModuleResult) {
	event := ModuleEvent{
		Type:     EventCompleted,
		ModuleID: result.ID,
		Status:   "passed",
		Total:    result.Total,
		Failed:   result.Failed,
		Duration: result.Duration,
	}
	switch {
	case result.Error != "":
		event.Type = EventErrored
		event.Status = "errored"
		event.Message = result.Error
	case result.Failed > 0:
		event.Type = EventFailed
		event.Status = "failed"
	}
	c.Emit(event)
}

// RunFinished emits the run event.
func (c *EventCollector) RunFinished(summary *report.RunSummary) {
	status := "passed"
	if summary.ModulesFailed > 0 {
		status = "failed"
	}
	c.Emit(ModuleEvent{
		Type:     EventRunFinished,
		Status:   status,
		Message:  summary.RunID,
		Total:    summary.ModulesRun,
		Failed:   summary.ModulesFailed,
		Duration: summary.Elapsed,
	})
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []ModuleEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]ModuleEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
