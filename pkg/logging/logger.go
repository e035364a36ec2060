// Package logging provides channel and level gated structured
// logging for the jester test runner, with console, JSON, and
// multi-destination output.
package logging

// Logger defines the interface for leveled, structured runner
// logging. Every call is emitted on the GENERAL level; the
// channel is implied by the method.
type Logger interface {
	// Error logs a message on the ERROR channel.
	Error(msg string, fields ...Field)

	// Warn logs a message on the WARN channel.
	Warn(msg string, fields ...Field)

	// Info logs a message on the INFO channel.
	Info(msg string, fields ...Field)

	// Debug logs a message on the DEBUG channel.
	Debug(msg string, fields ...Field)

	// WithFields returns a Logger with additional default
	// fields attached to every subsequent log entry.
	WithFields(fields ...Field) Logger

	// Close flushes any buffers and releases resources.
	Close() error
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// mergeFields returns a copy of base extended with fields.
func mergeFields(
	base map[string]any, fields []Field,
) map[string]any {
	merged := make(map[string]any, len(base)+len(fields))
	for k, v := range base {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return merged
}
