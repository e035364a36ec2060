// Package runner executes discovered test modules
// concurrently, aggregates their status into a run summary,
// and drives the reporter, observers, and coverage collector.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"digital.vasic.jester/pkg/assertion"
	"digital.vasic.jester/pkg/coverage"
	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/suite"
)

// Runner defines the interface for module execution.
type Runner interface {
	// RunAll executes every module and returns the run
	// summary. A non-nil error is a *RuntimeError; the summary
	// is still complete.
	RunAll(
		ctx context.Context,
		modules []*suite.Module,
	) (*report.RunSummary, error)
}

// Hook is invoked before or after a module body. A failing
// pre-hook marks the module failed and skips its body; a
// failing post-hook is logged.
type Hook func(ctx context.Context, m *suite.Module) error

// DefaultRunner is the standard Runner implementation.
type DefaultRunner struct {
	reporter       report.Reporter
	timeout        time.Duration
	moduleTimeout  time.Duration
	staleThreshold time.Duration
	maxConcurrency int
	streaming      bool
	dryRun         bool
	observers      report.ObserverSet
	coverage       coverage.Collector
	coverageDir    string
	preHooks       []Hook
	postHooks      []Hook
}

// NewRunner creates a DefaultRunner with the supplied options.
func NewRunner(opts ...RunnerOption) *DefaultRunner {
	r := &DefaultRunner{
		reporter: report.NullReporter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll launches every module at once, bounded only by the
// configured concurrency, waits for all of them, and writes the
// run summary. Failed assertions never stop other modules.
func (r *DefaultRunner) RunAll(
	ctx context.Context,
	modules []*suite.Module,
) (*report.RunSummary, error) {
	summary := &report.RunSummary{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		ModulesRun: len(modules),
		DryRun:     r.dryRun,
		Modules:    make([]report.ModuleResult, len(modules)),
	}

	r.reporter.Debug("starting run",
		logging.StringField("run_id", summary.RunID),
		logging.IntField("modules", len(modules)),
		logging.BoolField("dry_run", r.dryRun),
		logging.BoolField("streaming", r.streaming),
		logging.IntField("max_concurrency", r.maxConcurrency),
	)

	collecting := r.startCoverage()

	group := report.NewFlushGroup(r.reporter)
	p := newPool(r.maxConcurrency)
	start := time.Now()

	for i, m := range modules {
		p.Go(ctx, func() {
			if r.streaming {
				summary.Modules[i] = r.runModule(ctx, m, r.reporter)
				return
			}
			buf := group.Buffer()
			summary.Modules[i] = r.runModule(ctx, m, buf)
			buf.Flush()
		}, func(err error) {
			summary.Modules[i] = r.notStarted(m, err)
		})
	}
	p.Wait()
	summary.Elapsed = time.Since(start)

	var errs []error
	for _, res := range summary.Modules {
		if res.IsFailed() {
			summary.ModulesFailed++
		}
		if res.Error != "" {
			errs = append(errs, &ModuleError{
				ModuleID: res.ID, Err: errors.New(res.Error),
			})
		}
	}

	if collecting {
		r.finishCoverage(summary.RunID)
	}

	r.reporter.WriteRunSummary(
		summary.Elapsed, summary.ModulesFailed, summary.ModulesRun,
	)
	r.observers.RunFinished(summary)

	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Errorf("run interrupted: %w", err))
	}
	if len(errs) > 0 {
		return summary, NewRuntimeError(errors.Join(errs...))
	}
	return summary, nil
}

// Run executes a single module against the runner's reporter.
func (r *DefaultRunner) Run(
	ctx context.Context,
	m *suite.Module,
) report.ModuleResult {
	return r.runModule(ctx, m, r.reporter)
}

func (r *DefaultRunner) runModule(
	ctx context.Context,
	m *suite.Module,
	rep report.Reporter,
) report.ModuleResult {
	started := time.Now()
	r.observers.ModuleStarted(m.ID)

	scoped := report.NewScopedReporter(rep, m.ID, r.observers)
	status := suite.NewStatus()
	result := report.ModuleResult{
		ID:   m.ID,
		Path: m.Path,
		Kind: m.Kind.String(),
	}

	scoped.WriteModuleHead(m.ID)

	if !r.dryRun {
		if err := r.execute(ctx, m, status, scoped); err != nil {
			result.Error = err.Error()
			scoped.Error("module error",
				logging.ModuleField(m.ID), logging.ErrorField(err))
		}
	}

	total, failed, skipped := status.Counts()
	scoped.WriteModuleSummary(m.ID, total, failed)

	result.Total = total
	result.Failed = failed
	result.Skipped = skipped
	result.Duration = time.Since(started)
	result.Assertions = scoped.Outcomes()

	r.observers.ModuleFinished(result)
	return result
}

// notStarted is the result of a module that never got a slot
// because the run was cancelled.
func (r *DefaultRunner) notStarted(m *suite.Module, err error) report.ModuleResult {
	res := report.ModuleResult{
		ID:    m.ID,
		Path:  m.Path,
		Kind:  m.Kind.String(),
		Error: fmt.Sprintf("not started: %v", err),
	}
	r.observers.ModuleFinished(res)
	return res
}

// execute runs hooks and the module body under the module's
// own context, watched by the liveness monitor.
func (r *DefaultRunner) execute(
	ctx context.Context,
	m *suite.Module,
	status *suite.Status,
	rep report.Reporter,
) error {
	var (
		modCtx context.Context
		cancel context.CancelFunc
	)
	if r.moduleTimeout > 0 {
		modCtx, cancel = context.WithTimeout(ctx, r.moduleTimeout)
	} else {
		modCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	for _, hook := range r.preHooks {
		if err := hook(modCtx, m); err != nil {
			return fmt.Errorf("pre-hook failed: %w", err)
		}
	}

	stopLiveness, stuck := startLivenessMonitor(
		status.Progress(), r.staleThreshold, cancel, rep, m.ID,
	)

	var err error
	switch m.Kind {
	case suite.KindProcedural:
		err = r.runProcedure(modCtx, m, status, rep)
	case suite.KindDeclarative:
		err = r.runAssertions(modCtx, m, status, rep)
	default:
		err = fmt.Errorf("unknown module kind %d", m.Kind)
	}
	stopLiveness()

	if stuck != nil {
		select {
		case <-stuck:
			err = fmt.Errorf(
				"module stalled: no assertion recorded within %v",
				r.staleThreshold,
			)
		default:
		}
	}
	if err == nil && modCtx.Err() == context.DeadlineExceeded &&
		ctx.Err() == nil {
		err = fmt.Errorf("module timed out after %v", r.moduleTimeout)
	}

	for _, hook := range r.postHooks {
		if hookErr := hook(ctx, m); hookErr != nil {
			rep.Warn("post-hook failed",
				logging.ModuleField(m.ID), logging.ErrorField(hookErr))
		}
	}
	return err
}

func (r *DefaultRunner) runProcedure(
	ctx context.Context,
	m *suite.Module,
	status *suite.Status,
	rep report.Reporter,
) (err error) {
	if m.Run == nil {
		return errors.New("procedural module has no run procedure")
	}
	defer func() {
		if v := recover(); v != nil {
			rep.Debug("procedure panic",
				logging.ModuleField(m.ID),
				logging.StringField("stack", string(debug.Stack())))
			err = fmt.Errorf("procedure panicked: %v", v)
		}
	}()
	return m.Run(ctx, status, rep)
}

// runAssertions evaluates declared assertions in order. Once
// the module context ends the remaining ones are not started.
func (r *DefaultRunner) runAssertions(
	ctx context.Context,
	m *suite.Module,
	status *suite.Status,
	rep report.Reporter,
) error {
	for _, a := range m.Assertions {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("module interrupted: %w", err)
		}

		timeout := a.Timeout
		if timeout <= 0 {
			timeout = r.timeout
		}
		if timeout > 0 && !a.Skip {
			actx, cancel := context.WithTimeout(ctx, timeout)
			assertion.Assert(actx, a.Check, a.Description, status, rep, a.Skip)
			cancel()
			continue
		}
		assertion.Assert(ctx, a.Check, a.Description, status, rep, a.Skip)
	}
	return nil
}

func (r *DefaultRunner) startCoverage() bool {
	if r.coverage == nil {
		return false
	}
	if err := r.coverage.Start(); err != nil {
		r.reporter.Error("coverage start failed", logging.ErrorField(err))
		return false
	}
	r.reporter.Debug("coverage started", logging.PathField(r.coverageDir))
	return true
}

func (r *DefaultRunner) finishCoverage(runID string) {
	profile, err := r.coverage.Collect()
	if err != nil {
		r.reporter.Error("coverage collection failed", logging.ErrorField(err))
		return
	}
	profile.RunID = runID
	path, err := r.coverage.Write(profile, r.coverageDir)
	if err != nil {
		r.reporter.Error("coverage write failed", logging.ErrorField(err))
		return
	}
	r.reporter.Info("coverage written", logging.PathField(path))
}
