// Package report provides the reporter contract through which
// the runner publishes module and run results, together with
// its text, markdown, JSON, and HTML implementations and the
// summary and history files written after a run.
package report

import (
	"time"

	"digital.vasic.jester/pkg/logging"
)

// Reporter receives structured test output and leveled log
// messages. Structured writes are emitted on the INFO channel
// at the level named by each method; every write is subject to
// the reporter's channel and level gate.
type Reporter interface {
	logging.Logger

	// WriteModuleHead announces that a module is about to run.
	WriteModuleHead(id string)

	// WriteAssertionResult records one assertion outcome.
	// When skipped is true, passed is meaningless.
	WriteAssertionResult(passed bool, description string, skipped bool)

	// WriteModuleSummary reports the counts of a finished
	// module.
	WriteModuleSummary(id string, total, failed int)

	// WriteRunSummary reports the whole run. Passed modules are
	// totalModules - failedModules.
	WriteRunSummary(
		elapsed time.Duration, failedModules, totalModules int,
	)
}

// Format names a reporter implementation.
type Format string

const (
	// FormatText is colored console text.
	FormatText Format = "text"
	// FormatMarkdown is markdown with collapsible modules.
	FormatMarkdown Format = "md"
	// FormatJSON is one JSON object per line.
	FormatJSON Format = "json"
	// FormatHTML is a single HTML page written on Close.
	FormatHTML Format = "html"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{
		FormatText, FormatMarkdown, FormatJSON, FormatHTML,
	}
}

func elapsedMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
