package report

import (
	"errors"
	"time"

	"digital.vasic.jester/pkg/logging"
)

// MultiReporter fans every call out to several reporters, each
// applying its own gate.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter creates a reporter writing to all of rs.
// Nil entries are dropped.
func NewMultiReporter(rs ...Reporter) *MultiReporter {
	kept := make([]Reporter, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &MultiReporter{reporters: kept}
}

// Error logs to all reporters.
func (m *MultiReporter) Error(msg string, fields ...logging.Field) {
	for _, r := range m.reporters {
		r.Error(msg, fields...)
	}
}

// Warn logs to all reporters.
func (m *MultiReporter) Warn(msg string, fields ...logging.Field) {
	for _, r := range m.reporters {
		r.Warn(msg, fields...)
	}
}

// Info logs to all reporters.
func (m *MultiReporter) Info(msg string, fields ...logging.Field) {
	for _, r := range m.reporters {
		r.Info(msg, fields...)
	}
}

// Debug logs to all reporters.
func (m *MultiReporter) Debug(msg string, fields ...logging.Field) {
	for _, r := range m.reporters {
		r.Debug(msg, fields...)
	}
}

// WithFields returns a multi logger over every reporter's
// derived logger.
func (m *MultiReporter) WithFields(fields ...logging.Field) logging.Logger {
	loggers := make([]logging.Logger, len(m.reporters))
	for i, r := range m.reporters {
		loggers[i] = r.WithFields(fields...)
	}
	return logging.NewMultiLogger(loggers...)
}

// WriteModuleHead writes to all reporters.
func (m *MultiReporter) WriteModuleHead(id string) {
	for _, r := range m.reporters {
		r.WriteModuleHead(id)
	}
}

// WriteAssertionResult writes to all reporters.
func (m *MultiReporter) WriteAssertionResult(
	passed bool, description string, skipped bool,
) {
	for _, r := range m.reporters {
		r.WriteAssertionResult(passed, description, skipped)
	}
}

// WriteModuleSummary writes to all reporters.
func (m *MultiReporter) WriteModuleSummary(id string, total, failed int) {
	for _, r := range m.reporters {
		r.WriteModuleSummary(id, total, failed)
	}
}

// WriteRunSummary writes to all reporters.
func (m *MultiReporter) WriteRunSummary(
	elapsed time.Duration, failedModules, totalModules int,
) {
	for _, r := range m.reporters {
		r.WriteRunSummary(elapsed, failedModules, totalModules)
	}
}

// Close closes every reporter and joins their errors.
func (m *MultiReporter) Close() error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NullReporter discards everything.
type NullReporter struct {
	logging.NullLogger
}

// WriteModuleHead is a no-op.
func (NullReporter) WriteModuleHead(string) {}

// WriteAssertionResult is a no-op.
func (NullReporter) WriteAssertionResult(bool, string, bool) {}

// WriteModuleSummary is a no-op.
func (NullReporter) WriteModuleSummary(string, int, int) {}

// WriteRunSummary is a no-op.
func (NullReporter) WriteRunSummary(time.Duration, int, int) {}
