package report

import (
	"time"

	"digital.vasic.jester/pkg/exitcodes"
)

// ModuleResult captures the outcome of one executed module.
type ModuleResult struct {
	ID       string        `json:"id"`
	Path     string        `json:"path,omitempty"`
	Kind     string        `json:"kind"`
	Total    int           `json:"total"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`

	Assertions []Outcome `json:"assertions,omitempty"`
}

// Passed returns the number of passed assertions.
func (m ModuleResult) Passed() int {
	return m.Total - m.Failed
}

// IsFailed reports whether the module counts as failed: any
// failed assertion or a procedure error.
func (m ModuleResult) IsFailed() bool {
	return m.Failed > 0 || m.Error != ""
}

// RunSummary aggregates every module of one run.
type RunSummary struct {
	RunID         string         `json:"run_id"`
	StartedAt     time.Time      `json:"started_at"`
	Elapsed       time.Duration  `json:"elapsed"`
	ModulesRun    int            `json:"modules_run"`
	ModulesFailed int            `json:"modules_failed"`
	DryRun        bool           `json:"dry_run,omitempty"`
	Modules       []ModuleResult `json:"modules"`
}

// ElapsedMs returns the elapsed time in milliseconds.
func (s *RunSummary) ElapsedMs() float64 {
	return elapsedMs(s.Elapsed)
}

// ModulesPassed returns the number of modules without
// failures.
func (s *RunSummary) ModulesPassed() int {
	return s.ModulesRun - s.ModulesFailed
}

// ExitCode maps the failed-module count to a process exit
// code.
func (s *RunSummary) ExitCode() int {
	return exitcodes.FromFailures(s.ModulesFailed)
}

// AssertionTotals sums assertion counts over all modules.
func (s *RunSummary) AssertionTotals() (total, failed, skipped int) {
	for _, m := range s.Modules {
		total += m.Total
		failed += m.Failed
		skipped += m.Skipped
	}
	return total, failed, skipped
}
