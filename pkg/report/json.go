package report

import (
	"time"

	"digital.vasic.jester/pkg/logging"
)

// JSONReporter emits every structured write and log message as
// one JSON line, suitable for machine consumption.
type JSONReporter struct {
	*logging.JSONLogger
}

// NewJSONReporter wraps a JSON logger as a reporter.
func NewJSONReporter(logger *logging.JSONLogger) *JSONReporter {
	return &JSONReporter{JSONLogger: logger}
}

// WithFields returns a JSON reporter whose entries carry the
// given fields.
func (r *JSONReporter) WithFields(fields ...logging.Field) logging.Logger {
	child, _ := r.JSONLogger.WithFields(fields...).(*logging.JSONLogger)
	return &JSONReporter{JSONLogger: child}
}

// WriteModuleHead records a module_start entry.
func (r *JSONReporter) WriteModuleHead(id string) {
	r.Record(
		logging.ChannelInfo, logging.LevelModule, "module_start",
		logging.ModuleField(id),
	)
}

// WriteAssertionResult records an assertion entry.
func (r *JSONReporter) WriteAssertionResult(
	passed bool, description string, skipped bool,
) {
	r.Record(
		logging.ChannelInfo, logging.LevelAssertion, "assertion",
		logging.StringField("description", description),
		logging.BoolField("passed", passed && !skipped),
		logging.BoolField("skipped", skipped),
	)
}

// WriteModuleSummary records a module_summary entry.
func (r *JSONReporter) WriteModuleSummary(id string, total, failed int) {
	r.Record(
		logging.ChannelInfo, logging.LevelModule, "module_summary",
		logging.ModuleField(id),
		logging.IntField("total", total),
		logging.IntField("failed", failed),
		logging.IntField("passed", total-failed),
	)
}

// WriteRunSummary records a run_summary entry.
func (r *JSONReporter) WriteRunSummary(
	elapsed time.Duration, failedModules, totalModules int,
) {
	r.Record(
		logging.ChannelInfo, logging.LevelOverall, "run_summary",
		logging.LogField("elapsed_ms", elapsedMs(elapsed)),
		logging.IntField("modules", totalModules),
		logging.IntField("failed", failedModules),
		logging.IntField("passed", totalModules-failedModules),
	)
}
