// Package metrics records run statistics for Prometheus.
package metrics

import "time"

// RunMetrics defines the interface for recording run metrics.
type RunMetrics interface {
	// RecordModule records a finished module.
	RecordModule(moduleID, status string, duration time.Duration)
	// RecordAssertion records one assertion outcome.
	RecordAssertion(moduleID, result string)
	// IncrementRunTotal increments the total run counter.
	IncrementRunTotal()
	// SetActiveModules sets the gauge of running modules.
	SetActiveModules(count int)
}

// Module and assertion status labels.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// NoopMetrics is a no-op implementation of RunMetrics useful
// for testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordModule(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordAssertion(_, _ string)               {}
func (NoopMetrics) IncrementRunTotal()                        {}
func (NoopMetrics) SetActiveModules(_ int)                    {}

func assertionStatus(passed, skipped bool) string {
	switch {
	case skipped:
		return StatusSkipped
	case passed:
		return StatusPassed
	default:
		return StatusFailed
	}
}
