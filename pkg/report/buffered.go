package report

import (
	"sync"
	"time"

	"digital.vasic.jester/pkg/logging"
)

// FlushGroup serializes flushes of buffered reporters that
// share a target, so module blocks never interleave.
type FlushGroup struct {
	mu     sync.Mutex
	target Reporter
}

// NewFlushGroup creates a group flushing into target.
func NewFlushGroup(target Reporter) *FlushGroup {
	return &FlushGroup{target: target}
}

// Target returns the reporter buffers are flushed into.
func (g *FlushGroup) Target() Reporter {
	return g.target
}

// Buffer returns an empty buffered reporter for one module.
func (g *FlushGroup) Buffer() *BufferedReporter {
	return &BufferedReporter{rec: &recording{group: g}}
}

type recording struct {
	mu    sync.Mutex
	group *FlushGroup
	calls []func(Reporter)
}

func (r *recording) add(call func(Reporter)) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

// BufferedReporter records calls in order and replays them on
// the group's target when flushed. Gating is left to the
// target, which sees every call exactly as issued.
type BufferedReporter struct {
	rec    *recording
	fields []logging.Field
}

// Flush replays the recorded calls as one uninterrupted block
// and clears the buffer.
func (b *BufferedReporter) Flush() {
	b.rec.mu.Lock()
	calls := b.rec.calls
	b.rec.calls = nil
	b.rec.mu.Unlock()

	g := b.rec.group
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, call := range calls {
		call(g.target)
	}
}

// Len returns the number of pending calls.
func (b *BufferedReporter) Len() int {
	b.rec.mu.Lock()
	defer b.rec.mu.Unlock()
	return len(b.rec.calls)
}

func (b *BufferedReporter) logger(r Reporter) logging.Logger {
	if len(b.fields) == 0 {
		return r
	}
	return r.WithFields(b.fields...)
}

// Error buffers an ERROR message.
func (b *BufferedReporter) Error(msg string, fields ...logging.Field) {
	b.rec.add(func(r Reporter) { b.logger(r).Error(msg, fields...) })
}

// Warn buffers a WARN message.
func (b *BufferedReporter) Warn(msg string, fields ...logging.Field) {
	b.rec.add(func(r Reporter) { b.logger(r).Warn(msg, fields...) })
}

// Info buffers an INFO message.
func (b *BufferedReporter) Info(msg string, fields ...logging.Field) {
	b.rec.add(func(r Reporter) { b.logger(r).Info(msg, fields...) })
}

// Debug buffers a DEBUG message.
func (b *BufferedReporter) Debug(msg string, fields ...logging.Field) {
	b.rec.add(func(r Reporter) { b.logger(r).Debug(msg, fields...) })
}

// WithFields returns a reporter sharing the same buffer whose
// messages carry the given fields.
func (b *BufferedReporter) WithFields(fields ...logging.Field) logging.Logger {
	merged := make([]logging.Field, 0, len(b.fields)+len(fields))
	merged = append(merged, b.fields...)
	merged = append(merged, fields...)
	return &BufferedReporter{rec: b.rec, fields: merged}
}

// WriteModuleHead buffers a module head.
func (b *BufferedReporter) WriteModuleHead(id string) {
	b.rec.add(func(r Reporter) { r.WriteModuleHead(id) })
}

// WriteAssertionResult buffers an assertion result.
func (b *BufferedReporter) WriteAssertionResult(
	passed bool, description string, skipped bool,
) {
	b.rec.add(func(r Reporter) {
		r.WriteAssertionResult(passed, description, skipped)
	})
}

// WriteModuleSummary buffers a module summary.
func (b *BufferedReporter) WriteModuleSummary(id string, total, failed int) {
	b.rec.add(func(r Reporter) { r.WriteModuleSummary(id, total, failed) })
}

// WriteRunSummary buffers a run summary.
func (b *BufferedReporter) WriteRunSummary(
	elapsed time.Duration, failedModules, totalModules int,
) {
	b.rec.add(func(r Reporter) {
		r.WriteRunSummary(elapsed, failedModules, totalModules)
	})
}

// Close flushes any pending calls. The target stays open.
func (b *BufferedReporter) Close() error {
	b.Flush()
	return nil
}
