// Command jester discovers test modules under a directory tree,
// runs them concurrently, and reports the results.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"digital.vasic.jester/pkg/exitcodes"
	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/runner"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// failuresError carries the failed-module count of a completed
// run to the exit code.
type failuresError struct {
	failed int
}

func (e *failuresError) Error() string {
	return fmt.Sprintf("%d module(s) failed", e.failed)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).RunContext(ctx, args)
	code := exitCode(err)
	if code == exitcodes.RuntimeErr {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return code
}

func exitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}
	var failures *failuresError
	if errors.As(err, &failures) {
		return exitcodes.FromFailures(failures.failed)
	}
	return exitcodes.RuntimeErr
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "jester"
	app.Usage = "Discover, run, and report test modules"
	app.Version = Version
	if GitCommit != "" {
		app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	}
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = Flags
	app.Action = runAction
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "Run every discovered module (default)",
			Flags:  Flags,
			Action: runAction,
		},
		{
			Name:   "list",
			Usage:  "List discovered modules without running them",
			Flags:  commonFlags,
			Action: listAction,
		},
		{
			Name:      "validate",
			Usage:     "Check test documents for schema errors",
			ArgsUsage: "[file...]",
			Flags:     commonFlags,
			Action:    validateAction,
		},
	}
	return app
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return runner.NewRuntimeError(fmt.Errorf("invalid configuration: %w", err))
	}
	s, err := newSession(cfg, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return runner.NewRuntimeError(err)
	}
	defer s.Close()

	ctx := c.Context
	s.startMonitor(ctx)

	switch {
	case cfg.Watch:
		return s.watch(ctx)
	case cfg.Schedule != "":
		return s.schedule(ctx)
	}
	return runResult(s.runOnce(ctx))
}

func runResult(summary *report.RunSummary, err error) error {
	if err != nil {
		return err
	}
	if summary.ModulesFailed > 0 {
		return &failuresError{failed: summary.ModulesFailed}
	}
	return nil
}
