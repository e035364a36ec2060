package plugin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/suite"
)

type mapSymbols map[string]any

func (m mapSymbols) Lookup(name string) (any, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("symbol %s not found", name)
}

func runFunc(
	_ context.Context, s *suite.Status, _ report.Reporter,
) error {
	s.Record(true)
	return nil
}

func TestInspect_Run(t *testing.T) {
	id := "from-plugin"
	e, err := Inspect(mapSymbols{
		SymbolID:  &id,
		SymbolRun: runFunc,
	}, &PluginContext{})
	require.NoError(t, err)

	assert.Equal(t, "from-plugin", e.ID)
	assert.True(t, e.HasRun())
	assert.False(t, e.HasAssertions())

	s := suite.NewStatus()
	require.NoError(t, e.Run(context.Background(), s, nil))
	assert.Equal(t, 1, s.Total())
}

func TestInspect_ProcedureVariable(t *testing.T) {
	var p suite.Procedure = runFunc
	e, err := Inspect(mapSymbols{SymbolRun: &p}, nil)
	require.NoError(t, err)
	assert.True(t, e.HasRun())
}

func TestInspect_Assertions(t *testing.T) {
	list := []suite.Assertion{{Description: "a"}, {Description: "b"}}
	e, err := Inspect(mapSymbols{SymbolAssertions: &list}, nil)
	require.NoError(t, err)
	assert.Len(t, e.Assertions, 2)

	list[0].Description = "changed"
	assert.Equal(t, "a", e.Assertions[0].Description)
}

func TestInspect_AssertionsFunc(t *testing.T) {
	e, err := Inspect(mapSymbols{
		SymbolAssertions: func() []suite.Assertion {
			return []suite.Assertion{{Description: "x"}}
		},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, e.Assertions, 1)
}

func TestInspect_Procedures(t *testing.T) {
	procs := map[string]suite.Procedure{"smoke": runFunc}
	e, err := Inspect(mapSymbols{SymbolProcedures: &procs}, nil)
	require.NoError(t, err)
	require.Contains(t, e.Procedures, "smoke")
	assert.False(t, e.HasRun())

	procs["late"] = runFunc
	assert.NotContains(t, e.Procedures, "late")

	e, err = Inspect(mapSymbols{
		SymbolProcedures: func() map[string]suite.Procedure {
			return map[string]suite.Procedure{"a": runFunc, "b": runFunc}
		},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, e.Procedures, 2)

	_, err = Inspect(mapSymbols{SymbolProcedures: []string{"smoke"}}, nil)
	assert.ErrorContains(t, err, "Procedures")
}

func TestInspect_NoShape(t *testing.T) {
	e, err := Inspect(mapSymbols{}, nil)
	require.NoError(t, err)
	assert.False(t, e.HasRun())
	assert.False(t, e.HasAssertions())
}

func TestInspect_WrongType(t *testing.T) {
	_, err := Inspect(mapSymbols{SymbolRun: 42}, nil)
	assert.ErrorContains(t, err, "unsupported type int")

	_, err = Inspect(mapSymbols{SymbolID: 1.5}, nil)
	assert.Error(t, err)
}

func TestInspect_Init(t *testing.T) {
	var got *PluginContext
	pctx := &PluginContext{Path: "x.so", Config: map[string]interface{}{"k": 1}}
	_, err := Inspect(mapSymbols{
		SymbolInit: func(c *PluginContext) error {
			got = c
			return nil
		},
	}, pctx)
	require.NoError(t, err)
	assert.Same(t, pctx, got)

	_, err = Inspect(mapSymbols{
		SymbolInit: func(*PluginContext) error { return errors.New("boom") },
	}, pctx)
	assert.ErrorContains(t, err, "init plugin: boom")
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	assert.NoError(t, r.Register("a.so", &Exports{}))
	assert.Equal(t, 1, r.Count())

	// Duplicate
	assert.Error(t, r.Register("a.so", &Exports{}))

	// Nil exports
	assert.Error(t, r.Register("b.so", nil))

	// Empty path
	assert.Error(t, r.Register("", &Exports{}))

	_, ok := r.Get("a.so")
	assert.True(t, ok)
	assert.Equal(t, []string{"a.so"}, r.List())
}
