package report

import "sync"

// Observer is notified of run progress independently of the
// reporter gate. Metrics and the live monitor implement it.
// Methods are called from module goroutines and must be safe
// for concurrent use.
type Observer interface {
	ModuleStarted(id string)
	AssertionRecorded(moduleID, description string, passed, skipped bool)
	ModuleFinished(result ModuleResult)
	RunFinished(summary *RunSummary)
}

// ObserverSet fans notifications out to several observers.
type ObserverSet []Observer

// ModuleStarted notifies every observer.
func (s ObserverSet) ModuleStarted(id string) {
	for _, o := range s {
		o.ModuleStarted(id)
	}
}

// AssertionRecorded notifies every observer.
func (s ObserverSet) AssertionRecorded(
	moduleID, description string, passed, skipped bool,
) {
	for _, o := range s {
		o.AssertionRecorded(moduleID, description, passed, skipped)
	}
}

// ModuleFinished notifies every observer.
func (s ObserverSet) ModuleFinished(result ModuleResult) {
	for _, o := range s {
		o.ModuleFinished(result)
	}
}

// RunFinished notifies every observer.
func (s ObserverSet) RunFinished(summary *RunSummary) {
	for _, o := range s {
		o.RunFinished(summary)
	}
}

// ScopedReporter binds a reporter to one module and forwards
// each assertion result to an observer. It also keeps the
// ordered list of outcomes for the module result.
type ScopedReporter struct {
	Reporter

	moduleID string
	observer Observer

	mu       sync.Mutex
	outcomes []Outcome
}

// Outcome is one recorded assertion.
type Outcome struct {
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Skipped     bool   `json:"skipped,omitempty"`
}

// NewScopedReporter wraps inner for module id. A nil observer
// is allowed.
func NewScopedReporter(
	inner Reporter, moduleID string, observer Observer,
) *ScopedReporter {
	return &ScopedReporter{
		Reporter: inner,
		moduleID: moduleID,
		observer: observer,
	}
}

// WriteAssertionResult forwards to the inner reporter and the
// observer.
func (s *ScopedReporter) WriteAssertionResult(
	passed bool, description string, skipped bool,
) {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, Outcome{
		Description: description,
		Passed:      passed && !skipped,
		Skipped:     skipped,
	})
	s.mu.Unlock()

	s.Reporter.WriteAssertionResult(passed, description, skipped)
	if s.observer != nil {
		s.observer.AssertionRecorded(
			s.moduleID, description, passed, skipped,
		)
	}
}

// Outcomes returns a copy of the recorded assertions in order.
func (s *ScopedReporter) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Outcome(nil), s.outcomes...)
}
