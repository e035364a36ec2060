package suite

import "sync"

// Status holds the assertion counters of one module. It is
// safe for concurrent use, so a procedure may record from
// helper goroutines.
//
// Failed never exceeds Total, and skipped assertions never
// touch Total.
type Status struct {
	mu      sync.Mutex
	total   int
	failed  int
	skipped int

	progress chan struct{}
}

// NewStatus creates an empty status.
func NewStatus() *Status {
	return &Status{progress: make(chan struct{}, 1)}
}

// Record counts one executed assertion.
func (s *Status) Record(passed bool) {
	s.mu.Lock()
	s.total++
	if !passed {
		s.failed++
	}
	s.mu.Unlock()
	s.notify()
}

// RecordSkip counts one skipped assertion.
func (s *Status) RecordSkip() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
	s.notify()
}

func (s *Status) notify() {
	if s.progress == nil {
		return
	}
	select {
	case s.progress <- struct{}{}:
	default:
	}
}

// Progress signals after each record. Signals coalesce, so a
// reader sees at least one signal per burst.
func (s *Status) Progress() <-chan struct{} {
	return s.progress
}

// Counts returns total, failed, and skipped.
func (s *Status) Counts() (total, failed, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, s.failed, s.skipped
}

// Total returns the number of executed assertions.
func (s *Status) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Failed returns the number of failed assertions.
func (s *Status) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}
