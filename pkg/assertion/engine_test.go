package assertion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_HasBuiltins(t *testing.T) {
	e := NewEngine()
	for _, typ := range []string{
		"equals", "not_equals", "not_empty", "contains",
		"not_contains", "contains_any", "matches", "min_length",
		"max_length", "min_count", "exact_count", "greater_than",
		"less_than", "max_latency", "no_duplicates", "all_pass",
	} {
		assert.True(t, e.HasEvaluator(typ), typ)
	}
	assert.Len(t, e.Types(), 16)
}

func TestEngine_Register(t *testing.T) {
	e := NewEngine()
	err := e.Register("even", func(_ Definition, v any) (bool, string) {
		n, _ := toInt(v)
		return n%2 == 0, "parity"
	})
	require.NoError(t, err)

	assert.True(t, e.Evaluate(Definition{Type: "even"}, 4).Passed)
	assert.Error(t, e.Register("equals", nil))
}

func TestEngine_Evaluate_Unknown(t *testing.T) {
	r := NewEngine().Evaluate(Definition{Type: "vibes"}, "x")
	assert.False(t, r.Passed)
	assert.Contains(t, r.Message, "unknown assertion type")
}

func TestEngine_Evaluate_CustomMessage(t *testing.T) {
	r := NewEngine().Evaluate(Definition{
		Type: "equals", Value: "a", Message: "wrong greeting",
	}, "b")
	assert.False(t, r.Passed)
	assert.Equal(t, "wrong greeting", r.Message)
}

func TestEngine_EvaluateAll_MissingTarget(t *testing.T) {
	results := NewEngine().EvaluateAll([]Definition{
		{Type: "equals", Target: "status", Value: 200},
		{Type: "not_empty", Target: "body"},
	}, map[string]any{"status": 200})

	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Contains(t, results[1].Message, "target not found")
}

func TestCheckFromDefinition(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	def := Definition{Type: "equals", Target: "status", Value: "200"}

	ok := CheckFromDefinition(e, def, func(context.Context) (any, error) {
		return 200, nil
	})
	assert.NoError(t, ok(ctx))

	bad := CheckFromDefinition(e, def, func(context.Context) (any, error) {
		return 404, nil
	})
	var fe *FailureError
	require.ErrorAs(t, bad(ctx), &fe)
	assert.Equal(t, 404, fe.Result.Actual)
	assert.Contains(t, fe.Error(), "equals on status")

	broken := CheckFromDefinition(e, def, func(context.Context) (any, error) {
		return nil, errors.New("connection refused")
	})
	assert.ErrorContains(t, broken(ctx), "connection refused")
}

func TestAllPassComposite(t *testing.T) {
	e := NewEngine()
	values := map[string]any{"out": "hello world"}

	r := AllPassComposite(e, []Definition{
		{Type: "contains", Target: "out", Value: "hello"},
		{Type: "min_length", Target: "out", Value: 5},
	}, values)
	assert.True(t, r.Passed)

	r = AllPassComposite(e, []Definition{
		{Type: "contains", Target: "out", Value: "bye"},
	}, values)
	assert.False(t, r.Passed)

	r = AnyPassComposite(e, []Definition{
		{Type: "contains", Target: "out", Value: "bye"},
		{Type: "contains", Target: "out", Value: "world"},
	}, values)
	assert.True(t, r.Passed)

	r = AnyPassComposite(e, nil, values)
	assert.False(t, r.Passed)
}

func TestCompositeCheck(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	defs := []Definition{
		{Type: "equals", Target: "exit_code", Value: 0},
		{Type: "contains", Target: "stdout", Value: "ready"},
	}
	calls := 0
	fetch := func(context.Context) (map[string]any, error) {
		calls++
		return map[string]any{"exit_code": 0, "stdout": "not yet"}, nil
	}

	err := CompositeCheck(e, CompositeAll, defs, fetch)(ctx)
	var failure *FailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "stdout", failure.Result.Target)
	assert.NoError(t, CompositeCheck(e, CompositeAny, defs, fetch)(ctx))
	assert.Equal(t, 2, calls)

	broken := CompositeCheck(e, CompositeAll, defs, func(context.Context) (map[string]any, error) {
		return nil, errors.New("connection refused")
	})
	assert.ErrorContains(t, broken(ctx), "connection refused")

	missing := CompositeCheck(e, CompositeAny, defs[:1], func(context.Context) (map[string]any, error) {
		return map[string]any{}, nil
	})
	assert.Error(t, missing(ctx))
}
