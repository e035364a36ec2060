package assertion

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/suite"
)

// ErrNoCheck fails an assertion that has no body.
var ErrNoCheck = errors.New("assertion has no check")

// PanicError reports a check that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("check panicked: %v", e.Value)
}

// Assert runs check and records the outcome.
//
// When skip is true the check is not invoked, the skip is
// counted without touching the total, and true is returned.
// Otherwise the check runs; a returned error, a panic, or the
// expiry of ctx is a failure. Failures never propagate: the
// result is returned and written to rep when rep is non-nil.
func Assert(
	ctx context.Context,
	check suite.Check,
	description string,
	status *suite.Status,
	rep report.Reporter,
	skip bool,
) bool {
	if skip {
		if status != nil {
			status.RecordSkip()
		}
		if rep != nil {
			rep.WriteAssertionResult(true, description, true)
		}
		return true
	}

	err := Run(ctx, check)
	passed := err == nil

	if status != nil {
		status.Record(passed)
	}
	if rep != nil {
		rep.WriteAssertionResult(passed, description, false)
		if err != nil {
			rep.Debug(
				"assertion failed",
				logging.StringField("assertion", description),
				logging.ErrorField(err),
			)
		}
	}
	return passed
}

// Run executes check in its own goroutine and returns its
// error. A panic becomes a *PanicError. If ctx ends first the
// check is abandoned and the context error is returned.
func Run(ctx context.Context, check suite.Check) error {
	if check == nil {
		return ErrNoCheck
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("assertion not started: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		done <- check(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("assertion did not finish: %w", ctx.Err())
	}
}
