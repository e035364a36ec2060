package report

import (
	"time"

	"digital.vasic.jester/pkg/logging"
)

// MarkdownReporter writes each module as a collapsible
// <details> block with a checkbox per assertion.
type MarkdownReporter struct {
	*logging.ConsoleLogger
}

// NewMarkdownReporter creates a markdown reporter on top of
// console. Colors are always stripped.
func NewMarkdownReporter(console *logging.ConsoleLogger) *MarkdownReporter {
	return &MarkdownReporter{ConsoleLogger: console}
}

// WithFields returns a markdown reporter whose leveled
// messages carry the given fields.
func (r *MarkdownReporter) WithFields(fields ...logging.Field) logging.Logger {
	child, _ := r.ConsoleLogger.WithFields(fields...).(*logging.ConsoleLogger)
	return &MarkdownReporter{ConsoleLogger: child}
}

// WriteModuleHead opens the module block.
func (r *MarkdownReporter) WriteModuleHead(id string) {
	r.Printf(
		logging.ChannelInfo, logging.LevelModule,
		"<details>\n<summary>%s</summary>\n", id,
	)
}

// WriteAssertionResult writes a task list item. Skipped
// assertions are struck through.
func (r *MarkdownReporter) WriteAssertionResult(
	passed bool, description string, skipped bool,
) {
	if skipped {
		r.Printf(
			logging.ChannelInfo, logging.LevelAssertion,
			" - [ ] ~~%s~~ (skipped)", description,
		)
		return
	}
	r.Printf(
		logging.ChannelInfo, logging.LevelAssertion,
		" - [%s] %s", checkMark(passed), description,
	)
}

// WriteModuleSummary writes the module ratio and closes the
// block.
func (r *MarkdownReporter) WriteModuleSummary(id string, total, failed int) {
	r.Printf(
		logging.ChannelInfo, logging.LevelModule,
		"\n### %s Summary (passed/total): %d/%d\n</details>\n",
		id, total-failed, total,
	)
}

// WriteRunSummary writes the elapsed time and the module ratio
// with a check or cross mark.
func (r *MarkdownReporter) WriteRunSummary(
	elapsed time.Duration, failedModules, totalModules int,
) {
	mark := "✓"
	if failedModules > 0 {
		mark = "✗"
	}
	r.Printf(
		logging.ChannelInfo, logging.LevelOverall,
		"\nTime:                   %.1f ms\n\n"+
			"Summary (passed/total): %d/%d %s",
		elapsedMs(elapsed),
		totalModules-failedModules, totalModules, mark,
	)
}

func checkMark(passed bool) string {
	if passed {
		return "X"
	}
	return " "
}
