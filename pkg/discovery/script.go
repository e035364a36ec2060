package discovery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"digital.vasic.jester/pkg/assertion"
	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/suite"
)

var (
	tapResult    = regexp.MustCompile(`^(not )?ok\b\s*(\d+)?\s*(?:-\s*)?(.*)$`)
	tapDirective = regexp.MustCompile(`(?i)(?:^|\s)#\s*(skip|todo)\S*(?:\s+.*)?$`)
	tapPlan      = regexp.MustCompile(`^1\.\.(\d+)`)
	tapBail      = regexp.MustCompile(`^Bail out!\s*(.*)$`)
)

// ScriptLoader imports shell scripts that print TAP. Each
// "ok"/"not ok" line is one assertion, recorded in the order
// the script prints it.
type ScriptLoader struct {
	shell   string
	environ []string
	logger  logging.Logger
}

// NewScriptLoader creates a script loader. An empty shell means
// bash; a nil environ means the process environment.
func NewScriptLoader(
	shell string,
	environ []string,
	logger logging.Logger,
) *ScriptLoader {
	if shell == "" {
		shell = "bash"
	}
	if logger == nil {
		logger = logging.NullLogger{}
	}
	return &ScriptLoader{shell: shell, environ: environ, logger: logger}
}

// Match accepts *.tap.sh and *_test.sh files.
func (l *ScriptLoader) Match(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".tap.sh") ||
		strings.HasSuffix(base, "_test.sh")
}

// Load checks that the script is a readable regular file and
// wraps it in a procedural module.
func (l *ScriptLoader) Load(_ context.Context, path string) (*suite.Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("script %s: not a regular file", path)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	_ = f.Close()

	return suite.NewProcedural("", l.procedure(abs)), nil
}

func (l *ScriptLoader) procedure(path string) suite.Procedure {
	return func(
		ctx context.Context,
		status *suite.Status,
		rep report.Reporter,
	) error {
		cmd := exec.CommandContext(ctx, l.shell, path)
		cmd.WaitDelay = 2 * time.Second
		cmd.Dir = filepath.Dir(path)
		if l.environ != nil {
			cmd.Env = l.environ
		}

		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		pr, pw := io.Pipe()
		cmd.Stdout = pw
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start script %s: %w", path, err)
		}

		// The writer closes once Wait returns. WaitDelay bounds
		// that even when a grandchild keeps stdout open.
		done := make(chan error, 1)
		go func() {
			err := cmd.Wait()
			_ = pw.Close()
			done <- err
		}()

		t := &tapSession{ctx: ctx, status: status, rep: rep}
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			t.line(scanner.Text())
		}
		_, _ = io.Copy(io.Discard, pr)
		waitErr := <-done

		if stderr.Len() > 0 && rep != nil {
			rep.Debug("script stderr",
				logging.PathField(path),
				logging.StringField("stderr", strings.TrimSpace(stderr.String())))
		}
		if ctx.Err() != nil {
			return fmt.Errorf("script %s: %w", path, ctx.Err())
		}

		t.finish()

		if waitErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(waitErr, &exitErr) {
				return fmt.Errorf("script %s: %w", path, waitErr)
			}
			if !t.failed {
				t.record(false, fmt.Sprintf(
					"script exited with code %d", exitErr.ExitCode(),
				), false)
			}
		}
		return nil
	}
}

// tapSession turns TAP lines into assertion outcomes.
type tapSession struct {
	ctx    context.Context
	status *suite.Status
	rep    report.Reporter

	plan   int
	ran    int
	bailed bool
	failed bool
}

func (t *tapSession) line(text string) {
	if t.bailed {
		return
	}
	text = strings.TrimRight(text, "\r")

	if m := tapPlan.FindStringSubmatch(text); m != nil {
		t.plan, _ = strconv.Atoi(m[1])
		return
	}
	if m := tapBail.FindStringSubmatch(text); m != nil {
		reason := m[1]
		if reason == "" {
			reason = "no reason given"
		}
		t.record(false, "bail out: "+reason, false)
		t.bailed = true
		return
	}

	m := tapResult.FindStringSubmatch(text)
	if m == nil {
		return
	}
	t.ran++
	passed := m[1] == ""
	desc, skip := splitDirective(m[3])
	if desc == "" {
		n := m[2]
		if n == "" {
			n = strconv.Itoa(t.ran)
		}
		desc = "assertion " + n
	}
	t.record(passed, desc, skip)
}

// splitDirective separates a trailing "# SKIP" or "# TODO"
// directive from the description. Any other '#' is part of the
// description.
func splitDirective(rest string) (string, bool) {
	loc := tapDirective.FindStringIndex(rest)
	if loc == nil {
		return strings.TrimSpace(rest), false
	}
	return strings.TrimSpace(rest[:loc[0]]), true
}

func (t *tapSession) finish() {
	if t.bailed || t.plan == 0 || t.plan == t.ran {
		return
	}
	t.record(false, fmt.Sprintf(
		"plan 1..%d but %d assertions ran", t.plan, t.ran,
	), false)
}

func (t *tapSession) record(passed bool, desc string, skip bool) {
	check := func(context.Context) error { return nil }
	if !passed {
		check = func(context.Context) error {
			return fmt.Errorf("not ok: %s", desc)
		}
	}
	if !assertion.Assert(t.ctx, check, desc, t.status, t.rep, skip) {
		t.failed = true
	}
}
