package assertion

import (
	"context"
	"fmt"

	"digital.vasic.jester/pkg/suite"
)

// Composite names how a group of definitions combines into one
// outcome.
type Composite string

const (
	// CompositeAll passes when every definition passes.
	CompositeAll Composite = "all"
	// CompositeAny passes when at least one definition passes.
	CompositeAny Composite = "any"
)

// FetchValues observes once and returns the observed values
// keyed by target. Targets that could not be resolved are left
// out and fail their definitions.
type FetchValues func(ctx context.Context) (map[string]any, error)

// AllPassComposite evaluates every definition against values
// and passes only if all of them pass. The first failure is
// reported.
func AllPassComposite(
	engine Engine,
	defs []Definition,
	values map[string]any,
) Result {
	results := engine.EvaluateAll(defs, values)
	for i, r := range results {
		if !r.Passed {
			return Result{
				Type:     string(CompositeAll),
				Target:   r.Target,
				Expected: r.Expected,
				Actual:   r.Actual,
				Message: fmt.Sprintf(
					"check %d (%s) failed: %s", i, r.Type, r.Message,
				),
			}
		}
	}
	return Result{
		Type:    string(CompositeAll),
		Passed:  true,
		Message: fmt.Sprintf("%d of %d checks passed", len(results), len(results)),
	}
}

// AnyPassComposite evaluates the definitions against values
// and passes if at least one passes. An empty group fails.
func AnyPassComposite(
	engine Engine,
	defs []Definition,
	values map[string]any,
) Result {
	results := engine.EvaluateAll(defs, values)
	for i, r := range results {
		if r.Passed {
			return Result{
				Type:   string(CompositeAny),
				Target: r.Target,
				Passed: true,
				Message: fmt.Sprintf(
					"check %d (%s) passed", i, r.Type,
				),
			}
		}
	}
	return Result{
		Type:    string(CompositeAny),
		Message: fmt.Sprintf("none of %d checks passed", len(results)),
	}
}

// CompositeCheck builds a check that observes once and
// combines defs according to mode. A fetch error fails the
// check.
func CompositeCheck(
	engine Engine,
	mode Composite,
	defs []Definition,
	fetch FetchValues,
) suite.Check {
	combine := AllPassComposite
	if mode == CompositeAny {
		combine = AnyPassComposite
	}
	return func(ctx context.Context) error {
		values, err := fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		if r := combine(engine, defs, values); !r.Passed {
			return &FailureError{Result: r}
		}
		return nil
	}
}
