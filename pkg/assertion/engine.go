package assertion

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"digital.vasic.jester/pkg/suite"
)

// Evaluator is a function that evaluates a single assertion type
// against a concrete value. It returns whether the assertion
// passed and a human-readable explanation.
type Evaluator func(def Definition, value any) (bool, string)

// Engine defines the interface for assertion evaluation engines.
type Engine interface {
	// Evaluate checks a single definition against the given
	// value.
	Evaluate(def Definition, value any) Result

	// EvaluateAll checks multiple definitions against a map of
	// named values, keyed by each definition's Target.
	EvaluateAll(defs []Definition, values map[string]any) []Result

	// Register adds a custom evaluator for the given type.
	// Returns an error if the type is already registered.
	Register(assertionType string, evaluator Evaluator) error

	// HasEvaluator reports whether the type is registered.
	HasEvaluator(assertionType string) bool
}

// DefaultEngine is the standard Engine implementation. It is
// safe for concurrent use.
type DefaultEngine struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
}

// NewEngine creates a DefaultEngine with the built-in
// evaluators pre-registered.
func NewEngine() *DefaultEngine {
	e := &DefaultEngine{
		evaluators: make(map[string]Evaluator),
	}
	for name, fn := range builtins() {
		e.evaluators[name] = fn
	}
	return e
}

// Register adds a custom evaluator for the given type.
func (e *DefaultEngine) Register(
	assertionType string,
	evaluator Evaluator,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.evaluators[assertionType]; exists {
		return fmt.Errorf(
			"assertion type already registered: %s",
			assertionType,
		)
	}

	e.evaluators[assertionType] = evaluator
	return nil
}

// Evaluate runs a single definition against value. Unknown
// types fail.
func (e *DefaultEngine) Evaluate(def Definition, value any) Result {
	e.mu.RLock()
	evaluator, exists := e.evaluators[def.Type]
	e.mu.RUnlock()

	if !exists {
		return Result{
			Type:    def.Type,
			Target:  def.Target,
			Actual:  value,
			Message: fmt.Sprintf("unknown assertion type: %s", def.Type),
		}
	}

	passed, message := evaluator(def, value)
	if !passed && def.Message != "" {
		message = def.Message
	}

	return Result{
		Type:     def.Type,
		Target:   def.Target,
		Expected: expected(def),
		Actual:   value,
		Passed:   passed,
		Message:  message,
	}
}

// EvaluateAll runs every definition against values[Target]. A
// missing target fails its definition.
func (e *DefaultEngine) EvaluateAll(
	defs []Definition,
	values map[string]any,
) []Result {
	results := make([]Result, 0, len(defs))

	for _, d := range defs {
		value, exists := values[d.Target]
		if !exists {
			results = append(results, Result{
				Type:    d.Type,
				Target:  d.Target,
				Message: fmt.Sprintf("target not found: %s", d.Target),
			})
			continue
		}
		results = append(results, e.Evaluate(d, value))
	}

	return results
}

// HasEvaluator reports whether the type is registered.
func (e *DefaultEngine) HasEvaluator(assertionType string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.evaluators[assertionType]
	return exists
}

// Types lists the registered evaluator types in sorted order.
func (e *DefaultEngine) Types() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	types := make([]string, 0, len(e.evaluators))
	for t := range e.evaluators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func expected(def Definition) any {
	if def.Value == nil && len(def.Values) > 0 {
		return def.Values
	}
	return def.Value
}

// Fetch produces the observed value for a definition.
type Fetch func(ctx context.Context) (any, error)

// CheckFromDefinition builds a check that fetches a value and
// evaluates def against it. A fetch error fails the check.
func CheckFromDefinition(
	engine Engine,
	def Definition,
	fetch Fetch,
) suite.Check {
	return func(ctx context.Context) error {
		value, err := fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", def.Target, err)
		}
		r := engine.Evaluate(def, value)
		if !r.Passed {
			return &FailureError{Result: r}
		}
		return nil
	}
}
