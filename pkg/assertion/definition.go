// Package assertion evaluates assertions for the runner: the
// Assert entry point that records outcomes into a module's
// status, and an extensible engine of built-in evaluators used
// by declarative modules.
package assertion

import "fmt"

// Definition describes one declarative expectation against an
// observed value.
type Definition struct {
	// Type is the evaluator type (e.g., "equals", "contains",
	// "min_length").
	Type string `json:"type" yaml:"type" toml:"type"`

	// Target names the probe output the value comes from
	// (e.g., "stdout", "status").
	Target string `json:"target,omitempty" yaml:"target,omitempty" toml:"target"`

	// Value is the expected value for single-value evaluators.
	Value any `json:"value,omitempty" yaml:"value,omitempty" toml:"value"`

	// Values holds expected values for multi-value evaluators
	// (e.g., "contains_any").
	Values []any `json:"values,omitempty" yaml:"values,omitempty" toml:"values"`

	// Message replaces the evaluator's explanation on failure.
	Message string `json:"message,omitempty" yaml:"message,omitempty" toml:"message"`
}

// Result captures the outcome of evaluating a definition.
type Result struct {
	Type     string `json:"type"`
	Target   string `json:"target"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
}

// FailureError is returned by checks built from definitions
// when the evaluator rejects the observed value.
type FailureError struct {
	Result Result
}

func (e *FailureError) Error() string {
	if e.Result.Target == "" {
		return fmt.Sprintf(
			"%s: %s", e.Result.Type, e.Result.Message,
		)
	}
	return fmt.Sprintf(
		"%s on %s: %s",
		e.Result.Type, e.Result.Target, e.Result.Message,
	)
}
