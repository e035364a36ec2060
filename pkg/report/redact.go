package report

import "digital.vasic.jester/pkg/logging"

// RedactingReporter masks secrets in leveled log calls before
// they reach the inner reporter. Structured result lines pass
// through unchanged.
type RedactingReporter struct {
	Reporter
	logger logging.Logger
}

// NewRedactingReporter wraps inner. Without secrets it returns
// inner itself.
func NewRedactingReporter(inner Reporter, secrets ...string) Reporter {
	if len(secrets) == 0 {
		return inner
	}
	return &RedactingReporter{
		Reporter: inner,
		logger:   logging.NewRedactingLogger(inner, secrets...),
	}
}

func (r *RedactingReporter) Error(msg string, fields ...logging.Field) {
	r.logger.Error(msg, fields...)
}

func (r *RedactingReporter) Warn(msg string, fields ...logging.Field) {
	r.logger.Warn(msg, fields...)
}

func (r *RedactingReporter) Info(msg string, fields ...logging.Field) {
	r.logger.Info(msg, fields...)
}

func (r *RedactingReporter) Debug(msg string, fields ...logging.Field) {
	r.logger.Debug(msg, fields...)
}

func (r *RedactingReporter) WithFields(fields ...logging.Field) logging.Logger {
	return r.logger.WithFields(fields...)
}

// Close closes the inner reporter.
func (r *RedactingReporter) Close() error {
	return r.Reporter.Close()
}
