package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
)

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorDim    = "\033[2m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorGray   = "\033[90m"
)

// ConsoleLogger writes gated, optionally colored lines to a
// pair of streams. Anything on the ERROR channel goes to the
// error stream.
type ConsoleLogger struct {
	mu        *sync.Mutex
	output    io.Writer
	errOutput io.Writer
	gate      Gate
	color     bool
	fields    map[string]any
}

// NewConsoleLogger creates a console logger writing to stdout
// and stderr.
func NewConsoleLogger(gate Gate, color bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stdout, os.Stderr, gate, color)
}

// NewConsoleLoggerTo creates a console logger writing to the
// given streams. A nil errOutput falls back to output.
func NewConsoleLoggerTo(
	output, errOutput io.Writer,
	gate Gate,
	color bool,
) *ConsoleLogger {
	if errOutput == nil {
		errOutput = output
	}
	return &ConsoleLogger{
		mu:        &sync.Mutex{},
		output:    output,
		errOutput: errOutput,
		gate:      gate,
		color:     color,
		fields:    make(map[string]any),
	}
}

// Gate returns the gate the logger was built with.
func (c *ConsoleLogger) Gate() Gate {
	return c.gate
}

// Color reports whether ANSI colors are kept in the output.
func (c *ConsoleLogger) Color() bool {
	return c.color
}

// Enabled reports whether the gate allows ch at lvl. Callers
// with costly output check it before building anything.
func (c *ConsoleLogger) Enabled(ch Channel, lvl Level) bool {
	return c.gate.Allows(ch, lvl)
}

// Printf formats and prints like Print. Nothing is formatted
// when the gate rejects ch at lvl.
func (c *ConsoleLogger) Printf(ch Channel, lvl Level, format string, args ...any) {
	if !c.gate.Allows(ch, lvl) {
		return
	}
	c.Print(ch, lvl, fmt.Sprintf(format, args...))
}

// Print writes text verbatim followed by a newline when the
// gate allows ch at lvl. Colors are stripped when disabled.
func (c *ConsoleLogger) Print(ch Channel, lvl Level, text string) {
	if !c.gate.Allows(ch, lvl) {
		return
	}
	if !c.color {
		text = stripansi.Strip(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.output
	if ch.Has(ChannelError) {
		w = c.errOutput
	}
	fmt.Fprintln(w, text)
}

func (c *ConsoleLogger) log(ch Channel, msg string, fields []Field) {
	if !c.gate.Allows(ch, LevelGeneral) {
		return
	}

	var fieldStr string
	merged := mergeFields(c.fields, fields)
	if len(merged) > 0 {
		keys := make([]string, 0, len(merged))
		for k := range merged {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(
				parts, fmt.Sprintf("%s=%v", k, merged[k]),
			)
		}
		fieldStr = " " + ColorGray +
			fmt.Sprintf("{%s}", strings.Join(parts, ", ")) +
			ColorReset
	}

	c.Print(ch, LevelGeneral, fmt.Sprintf(
		"%s%s%s [%s] %s%s",
		ColorGray, time.Now().Format("15:04:05"), ColorReset,
		channelLabel(ch), msg, fieldStr,
	))
}

func channelLabel(ch Channel) string {
	var names []string
	if ch.Has(ChannelError) {
		names = append(names, ColorRed+"ERROR"+ColorReset)
	}
	if ch.Has(ChannelWarn) {
		names = append(names, ColorYellow+"WARN"+ColorReset)
	}
	if ch.Has(ChannelInfo) {
		names = append(names, ColorBlue+"INFO"+ColorReset)
	}
	if ch.Has(ChannelDebug) {
		names = append(names, ColorDim+"DEBUG"+ColorReset)
	}
	return strings.Join(names, ",")
}

// Error logs a message on the ERROR channel.
func (c *ConsoleLogger) Error(msg string, fields ...Field) {
	c.log(ChannelError, msg, fields)
}

// Warn logs a message on the WARN channel.
func (c *ConsoleLogger) Warn(msg string, fields ...Field) {
	c.log(ChannelWarn, msg, fields)
}

// Info logs a message on the INFO channel.
func (c *ConsoleLogger) Info(msg string, fields ...Field) {
	c.log(ChannelInfo, msg, fields)
}

// Debug logs a message on the DEBUG channel.
func (c *ConsoleLogger) Debug(msg string, fields ...Field) {
	c.log(ChannelDebug, msg, fields)
}

// WithFields returns a new Logger with additional default
// fields. The child shares the parent's streams and lock.
func (c *ConsoleLogger) WithFields(fields ...Field) Logger {
	return &ConsoleLogger{
		mu:        c.mu,
		output:    c.output,
		errOutput: c.errOutput,
		gate:      c.gate,
		color:     c.color,
		fields:    mergeFields(c.fields, fields),
	}
}

// Close is a no-op for ConsoleLogger.
func (c *ConsoleLogger) Close() error {
	return nil
}
