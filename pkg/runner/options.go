package runner

import (
	"time"

	"digital.vasic.jester/pkg/coverage"
	"digital.vasic.jester/pkg/report"
)

// RunnerOption configures a DefaultRunner.
type RunnerOption func(*DefaultRunner)

// WithReporter sets the reporter every module writes to.
func WithReporter(rep report.Reporter) RunnerOption {
	return func(r *DefaultRunner) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

// WithTimeout bounds each declarative assertion that does not
// set its own timeout. Zero means no bound.
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *DefaultRunner) {
		r.timeout = timeout
	}
}

// WithModuleTimeout bounds each module as a whole. Zero means
// no bound.
func WithModuleTimeout(timeout time.Duration) RunnerOption {
	return func(r *DefaultRunner) {
		r.moduleTimeout = timeout
	}
}

// WithStaleThreshold cancels a module that records no
// assertion for the given duration. Zero disables the check.
func WithStaleThreshold(threshold time.Duration) RunnerOption {
	return func(r *DefaultRunner) {
		r.staleThreshold = threshold
	}
}

// WithMaxConcurrency limits how many modules run at once.
// Zero or less means unbounded.
func WithMaxConcurrency(n int) RunnerOption {
	return func(r *DefaultRunner) {
		r.maxConcurrency = n
	}
}

// WithStreaming writes module output as it happens instead of
// flushing each module as one block.
func WithStreaming(streaming bool) RunnerOption {
	return func(r *DefaultRunner) {
		r.streaming = streaming
	}
}

// WithDryRun reports every module without executing it.
func WithDryRun(dryRun bool) RunnerOption {
	return func(r *DefaultRunner) {
		r.dryRun = dryRun
	}
}

// WithObserver adds an observer of module and run events.
func WithObserver(o report.Observer) RunnerOption {
	return func(r *DefaultRunner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithCoverage enables coverage collection into dir.
func WithCoverage(c coverage.Collector, dir string) RunnerOption {
	return func(r *DefaultRunner) {
		r.coverage = c
		r.coverageDir = dir
	}
}

// WithPreHook adds a hook run before each module body.
func WithPreHook(h Hook) RunnerOption {
	return func(r *DefaultRunner) {
		r.preHooks = append(r.preHooks, h)
	}
}

// WithPostHook adds a hook run after each module body.
func WithPostHook(h Hook) RunnerOption {
	return func(r *DefaultRunner) {
		r.postHooks = append(r.postHooks, h)
	}
}
