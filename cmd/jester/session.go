package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"digital.vasic.jester/pkg/assertion"
	"digital.vasic.jester/pkg/config"
	"digital.vasic.jester/pkg/coverage"
	"digital.vasic.jester/pkg/discovery"
	"digital.vasic.jester/pkg/env"
	"digital.vasic.jester/pkg/httpclient"
	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/metrics"
	"digital.vasic.jester/pkg/monitor"
	"digital.vasic.jester/pkg/plugin"
	"digital.vasic.jester/pkg/probe"
	"digital.vasic.jester/pkg/registry"
	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/runner"
	"digital.vasic.jester/pkg/suite"
)

// openPlugin opens Go plugins; tests replace it.
var openPlugin plugin.OpenFunc = plugin.OpenShared

// session wires one configured invocation: reporter,
// discovery, runner, and the optional metrics, monitor, and
// summary outputs.
type session struct {
	cfg        *config.Config
	reporter   report.Reporter
	documents  *discovery.DocumentLoader
	discoverer *discovery.Discoverer
	runner     *runner.DefaultRunner
	metrics    *metrics.PrometheusMetrics
	monitor    *monitor.Server
}

func newSession(cfg *config.Config, stdout, stderr io.Writer) (*session, error) {
	vars := env.NewLoader()
	for _, path := range cfg.EnvFiles {
		if err := vars.Load(path); err != nil {
			return nil, err
		}
	}

	gate, err := cfg.Gate()
	if err != nil {
		return nil, err
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	base, err := report.New(format, report.Options{
		Gate:      gate,
		Output:    stdout,
		ErrOutput: stderr,
		Color:     !cfg.NoColor,
		Table:     cfg.Table,
	})
	if err != nil {
		return nil, err
	}
	rep := report.NewRedactingReporter(base, vars.Secrets()...)

	rep.Debug("reporter configured",
		logging.StringField("format", string(format)),
		logging.StringField("gate", gate.String()),
		logging.BoolField("color", !cfg.NoColor))

	environ := vars.Environ()
	prober := probe.NewProber(
		probe.WithHTTPClient(httpclient.NewClient(httpclient.WithLogger(rep))),
		probe.WithEnviron(environ),
		probe.WithShell(cfg.Shell),
		probe.WithLogger(rep),
	)
	plugins := plugin.NewLoader(nil, openPlugin).WithConfig(map[string]interface{}{
		"test_dirs": cfg.TestDirs,
		"dry_run":   cfg.DryRun,
	})
	procedures := registry.Default.Clone()
	if err := plugins.RegisterProcedures(procedures, cfg.Procedures...); err != nil {
		return nil, err
	}
	if n := procedures.Count(); n > 0 {
		rep.Debug("procedures registered",
			logging.IntField("count", n),
			logging.StringField("names", strings.Join(procedures.List(), ",")))
	}
	documents := discovery.NewDocumentLoader(
		procedures, assertion.NewEngine(), prober, rep,
	)

	s := &session{
		cfg:       cfg,
		reporter:  rep,
		documents: documents,
		discoverer: discovery.New(
			discovery.WithLoaders(
				documents,
				discovery.NewScriptLoader(cfg.Shell, environ, rep),
				discovery.NewPluginLoader(plugins, rep),
			),
			discovery.WithLogger(rep),
		),
	}

	opts := []runner.RunnerOption{
		runner.WithReporter(rep),
		runner.WithDryRun(cfg.DryRun),
		runner.WithTimeout(cfg.Timeout.Duration),
		runner.WithModuleTimeout(cfg.ModuleTimeout.Duration),
		runner.WithStaleThreshold(cfg.StaleThreshold.Duration),
		runner.WithMaxConcurrency(cfg.Concurrency),
		runner.WithStreaming(cfg.Stream),
	}
	if cfg.Coverage {
		opts = append(opts, runner.WithCoverage(
			coverage.NewRuntimeCollector(cfg.ClearCoverage), cfg.CoverageDir,
		))
	}
	if cfg.MetricsFile != "" || cfg.MonitorAddr != "" {
		s.metrics = metrics.NewPrometheusMetrics()
		opts = append(opts, runner.WithObserver(s.metrics))
	}
	if cfg.MonitorAddr != "" {
		collector := monitor.NewEventCollector()
		serverOpts := []monitor.ServerOption{monitor.WithLogger(rep)}
		if s.metrics != nil {
			serverOpts = append(serverOpts, monitor.WithMetricsHandler(s.metrics.Handler()))
		}
		s.monitor = monitor.NewServer(
			cfg.MonitorAddr, collector, monitor.NewDashboardData(""), serverOpts...,
		)
		opts = append(opts, runner.WithObserver(collector))
	}
	s.runner = runner.NewRunner(opts...)
	return s, nil
}

// startMonitor serves the dashboard until ctx ends.
func (s *session) startMonitor(ctx context.Context) {
	if s.monitor == nil {
		return
	}
	go func() {
		if err := s.monitor.Start(ctx); err != nil {
			s.reporter.Error("monitor stopped", logging.ErrorField(err))
		}
	}()
}

func (s *session) discover(ctx context.Context) ([]*suite.Module, error) {
	modules, err := s.discoverer.Discover(ctx, s.cfg.TestDirs, s.cfg.Excludes)
	if err != nil {
		return nil, runner.NewRuntimeError(err)
	}
	return modules, nil
}

// runOnce discovers and runs every module and writes the
// configured run outputs.
func (s *session) runOnce(ctx context.Context) (*report.RunSummary, error) {
	modules, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	summary, runErr := s.runner.RunAll(ctx, modules)
	if summary != nil {
		s.writeOutputs(summary)
	}
	return summary, runErr
}

// writeOutputs persists the summary. Failures are logged and
// never change the run result.
func (s *session) writeOutputs(summary *report.RunSummary) {
	if s.cfg.ReportDir != "" {
		path, err := report.SaveRunSummary(summary, s.cfg.ReportDir)
		if err != nil {
			s.reporter.Error("saving run summary failed", logging.ErrorField(err))
		} else {
			s.reporter.Debug("run summary saved", logging.PathField(path))
		}
	}
	if s.cfg.History != "" {
		if err := report.AppendToHistory(s.cfg.History, summary); err != nil {
			s.reporter.Error("appending history failed", logging.ErrorField(err))
		}
	}
	if s.cfg.MetricsFile != "" && s.metrics != nil {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			s.reporter.Error("writing metrics failed", logging.ErrorField(err))
		}
	}
}

func (s *session) Close() error {
	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.monitor.Stop(ctx); err != nil {
			s.reporter.Debug("monitor shutdown", logging.ErrorField(err))
		}
	}
	if err := s.reporter.Close(); err != nil {
		return fmt.Errorf("close reporter: %w", err)
	}
	return nil
}
