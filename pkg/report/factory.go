package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"digital.vasic.jester/pkg/logging"
)

// Options configures New.
type Options struct {
	Gate logging.Gate
	// Output receives regular output; nil means stdout.
	Output io.Writer
	// ErrOutput receives the ERROR channel; nil means stderr.
	ErrOutput io.Writer
	// Color keeps ANSI colors in text output.
	Color bool
	// Table appends a module table to the text run summary.
	Table bool
	// Title is the HTML page title.
	Title string
}

// ParseFormat validates a format name. "markdown" is accepted
// as an alias of "md".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatJSON, FormatHTML:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf(
			"unknown format %q (want one of %v)", s, Formats(),
		)
	}
}

// New builds the reporter for format. Unknown formats are an
// error.
func New(format Format, opts Options) (Reporter, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.ErrOutput
	if errOut == nil {
		errOut = os.Stderr
	}

	switch format {
	case FormatText, "":
		console := logging.NewConsoleLoggerTo(
			out, errOut, opts.Gate, opts.Color,
		)
		return NewTextReporter(console, opts.Table), nil
	case FormatMarkdown:
		console := logging.NewConsoleLoggerTo(
			out, errOut, opts.Gate, false,
		)
		return NewMarkdownReporter(console), nil
	case FormatJSON:
		logger, err := logging.NewJSONLogger(logging.LoggerConfig{
			Output: out,
			Gate:   opts.Gate,
		})
		if err != nil {
			return nil, err
		}
		return NewJSONReporter(logger), nil
	case FormatHTML:
		title := opts.Title
		if title == "" {
			title = "jester results"
		}
		return NewHTMLReporter(out, errOut, opts.Gate, title), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
