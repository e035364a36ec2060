package runner

import (
	"errors"
	"fmt"
)

// RuntimeError marks a fault of the run itself, as opposed to
// failed assertions. The CLI maps it to exitcodes.RuntimeErr.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError wraps err.
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError.
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return errors.As(err, &runtimeErr)
}

// ModuleError is a procedure error or panic attributed to one
// module.
type ModuleError struct {
	ModuleID string
	Err      error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s: %v", e.ModuleID, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}
