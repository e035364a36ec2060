package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// jsonMarshal is a variable for dependency injection in tests.
var jsonMarshal = json.Marshal

// LogEntry represents a single JSON log entry.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Channel   string         `json:"channel"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LoggerConfig configures the JSONLogger.
type LoggerConfig struct {
	// OutputPath is the file to append to. Empty means stdout.
	OutputPath string
	// Output overrides OutputPath when set.
	Output io.Writer
	Gate   Gate
	Fields map[string]any
}

// JSONLogger implements Logger with JSON Lines output.
type JSONLogger struct {
	mu     *sync.Mutex
	output io.Writer
	owned  bool
	gate   Gate
	fields map[string]any
	closed *bool
}

// NewJSONLogger creates a new JSON logger. If neither Output
// nor OutputPath is set, logs are written to stdout.
func NewJSONLogger(config LoggerConfig) (*JSONLogger, error) {
	logger := &JSONLogger{
		mu:     &sync.Mutex{},
		gate:   config.Gate,
		fields: mergeFields(config.Fields, nil),
		closed: new(bool),
	}

	switch {
	case config.Output != nil:
		logger.output = config.Output
	case config.OutputPath != "":
		dir := filepath.Dir(config.OutputPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf(
				"failed to create log directory: %w", err,
			)
		}
		file, err := os.OpenFile(
			config.OutputPath,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0644,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open log file: %w", err,
			)
		}
		logger.output = file
		logger.owned = true
	default:
		logger.output = os.Stdout
	}

	return logger, nil
}

// Gate returns the gate the logger was built with.
func (l *JSONLogger) Gate() Gate {
	return l.gate
}

// Record writes one entry when the gate allows ch at lvl.
func (l *JSONLogger) Record(
	ch Channel, lvl Level, msg string, fields ...Field,
) {
	if !l.gate.Allows(ch, lvl) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if *l.closed {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Channel:   ch.String(),
		Level:     lvl.String(),
		Message:   msg,
		Fields:    mergeFields(l.fields, fields),
	}
	if len(entry.Fields) == 0 {
		entry.Fields = nil
	}

	data, err := jsonMarshal(entry)
	if err != nil {
		return
	}

	fmt.Fprintln(l.output, string(data))
}

// Error logs a message on the ERROR channel.
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.Record(ChannelError, LevelGeneral, msg, fields...)
}

// Warn logs a message on the WARN channel.
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.Record(ChannelWarn, LevelGeneral, msg, fields...)
}

// Info logs a message on the INFO channel.
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.Record(ChannelInfo, LevelGeneral, msg, fields...)
}

// Debug logs a message on the DEBUG channel.
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.Record(ChannelDebug, LevelGeneral, msg, fields...)
}

// WithFields returns a new Logger with additional default
// fields sharing the same output.
func (l *JSONLogger) WithFields(fields ...Field) Logger {
	return &JSONLogger{
		mu:     l.mu,
		output: l.output,
		gate:   l.gate,
		fields: mergeFields(l.fields, fields),
		closed: l.closed,
	}
}

// Close closes the output file if the logger opened it.
// Derived loggers never close the shared output.
func (l *JSONLogger) Close() error {
	if !l.owned {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if *l.closed {
		return nil
	}
	*l.closed = true

	if closer, ok := l.output.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
