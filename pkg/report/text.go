package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"digital.vasic.jester/pkg/logging"
)

// TextReporter writes colored console output. Leveled messages
// use the embedded console logger; structured lines share its
// streams and gate.
type TextReporter struct {
	*logging.ConsoleLogger

	table   bool
	render  tableRenderer
	mu      *sync.Mutex
	modules *[]moduleRow
}

type tableRenderer func(
	rows []moduleRow, color bool,
	elapsed time.Duration, failedModules, totalModules int,
) string

type moduleRow struct {
	id            string
	total, failed int
}

// NewTextReporter creates a text reporter on top of console.
// When withTable is true, each run summary is followed by a
// table of the module summaries of that run.
func NewTextReporter(
	console *logging.ConsoleLogger,
	withTable bool,
) *TextReporter {
	return &TextReporter{
		ConsoleLogger: console,
		table:         withTable,
		render:        renderTable,
		mu:            &sync.Mutex{},
		modules:       &[]moduleRow{},
	}
}

// WithFields returns a text reporter whose leveled messages
// carry the given fields.
func (r *TextReporter) WithFields(fields ...logging.Field) logging.Logger {
	child, _ := r.ConsoleLogger.WithFields(fields...).(*logging.ConsoleLogger)
	return &TextReporter{
		ConsoleLogger: child,
		table:         r.table,
		render:        r.render,
		mu:            r.mu,
		modules:       r.modules,
	}
}

// WriteModuleHead prints the module id.
func (r *TextReporter) WriteModuleHead(id string) {
	r.Print(logging.ChannelInfo, logging.LevelModule, id)
}

// WriteAssertionResult prints a [PASS], [FAIL], or [SKIP] line.
func (r *TextReporter) WriteAssertionResult(
	passed bool, description string, skipped bool,
) {
	if !r.Enabled(logging.ChannelInfo, logging.LevelAssertion) {
		return
	}
	tag := logging.ColorRed + "FAIL"
	switch {
	case skipped:
		tag = logging.ColorDim + "SKIP"
	case passed:
		tag = logging.ColorGreen + "PASS"
	}
	r.Printf(
		logging.ChannelInfo, logging.LevelAssertion,
		" [%s%s] %s", tag, logging.ColorReset, description,
	)
}

// WriteModuleSummary prints the passed/total ratio of a module
// and keeps its row for the run table.
func (r *TextReporter) WriteModuleSummary(id string, total, failed int) {
	if r.table {
		r.mu.Lock()
		*r.modules = append(*r.modules, moduleRow{id, total, failed})
		r.mu.Unlock()
	}

	r.Printf(
		logging.ChannelInfo, logging.LevelModule,
		"  ↳ %s Summary (passed/total): %s%d/%d%s\n",
		id, outcomeColor(failed), total-failed, total,
		logging.ColorReset,
	)
}

// WriteRunSummary prints the elapsed time and the module
// ratio, optionally followed by the module table. The rows of
// the run are dropped afterwards, so the next run starts empty.
func (r *TextReporter) WriteRunSummary(
	elapsed time.Duration, failedModules, totalModules int,
) {
	rows := r.takeRows()
	if !r.Enabled(logging.ChannelInfo, logging.LevelOverall) {
		return
	}
	r.Printf(
		logging.ChannelInfo, logging.LevelOverall,
		"Time:                   %.1f ms\n"+
			"Summary (passed/total): %s%d/%d%s",
		elapsedMs(elapsed),
		outcomeColor(failedModules),
		totalModules-failedModules, totalModules,
		logging.ColorReset,
	)
	if r.table {
		r.Print(
			logging.ChannelInfo, logging.LevelOverall,
			r.render(rows, r.Color(), elapsed, failedModules, totalModules),
		)
	}
}

func (r *TextReporter) takeRows() []moduleRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := *r.modules
	*r.modules = nil
	return rows
}

func renderTable(
	rows []moduleRow, color bool,
	elapsed time.Duration, failedModules, totalModules int,
) string {
	t := table.NewWriter()
	t.SetTitle("Test Modules")
	t.AppendHeader(table.Row{
		"Module", "Assertions", "Passed", "Failed", "Status",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Module", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Assertions", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
	})

	for _, m := range rows {
		status := "PASS"
		if m.failed > 0 {
			status = "FAIL"
		}
		t.AppendRow(table.Row{
			m.id, m.total, m.total - m.failed, m.failed, status,
		})
	}

	overall := "PASS"
	if failedModules > 0 {
		overall = "FAIL"
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	if !color {
		t.SetStyle(table.StyleLight)
	}
	t.Style().Format.Footer = text.FormatDefault

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d modules", totalModules),
		fmt.Sprintf("%.1f ms", elapsedMs(elapsed)),
		totalModules - failedModules,
		failedModules,
		overall,
	})
	return t.Render()
}

func outcomeColor(failed int) string {
	if failed == 0 {
		return logging.ColorGreen
	}
	return logging.ColorRed
}
