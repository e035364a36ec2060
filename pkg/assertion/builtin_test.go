package assertion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func eval(typ string, expected, actual any) bool {
	return NewEngine().Evaluate(
		Definition{Type: typ, Value: expected}, actual,
	).Passed
}

func TestEquals(t *testing.T) {
	assert.True(t, eval("equals", "a", "a"))
	assert.False(t, eval("equals", "a", "b"))
	assert.True(t, eval("equals", "200", 200))
	assert.True(t, eval("equals", 1.0, "1"))
	assert.False(t, eval("equals", "A", "a"))
	assert.True(t, eval("not_equals", "a", "b"))
	assert.False(t, eval("not_equals", 3, "3"))
}

func TestNotEmpty(t *testing.T) {
	assert.True(t, eval("not_empty", nil, "x"))
	assert.False(t, eval("not_empty", nil, "  "))
	assert.False(t, eval("not_empty", nil, nil))
	assert.False(t, eval("not_empty", nil, []any{}))
	assert.False(t, eval("not_empty", nil, map[string]any{}))
	assert.True(t, eval("not_empty", nil, 0))
}

func TestContains(t *testing.T) {
	assert.True(t, eval("contains", "WORLD", "hello world"))
	assert.False(t, eval("contains", "bye", "hello world"))
	assert.False(t, eval("contains", "x", 42))
	assert.True(t, eval("not_contains", "bye", "hello"))
	assert.False(t, eval("not_contains", "ell", "hello"))
	assert.False(t, eval("not_contains", "x", 42))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, eval("contains_any", "foo, world", "hello world"))
	assert.True(t, eval("contains_any", []any{"x", "hell"}, "hello"))
	assert.False(t, eval("contains_any", "x,y", "hello"))

	r := NewEngine().Evaluate(Definition{
		Type: "contains_any", Values: []any{"nope", "lo"},
	}, "hello")
	assert.True(t, r.Passed)
	assert.Equal(t, []any{"nope", "lo"}, r.Expected)
}

func TestMatches(t *testing.T) {
	assert.True(t, eval("matches", `^v\d+\.\d+`, "v1.22.0"))
	assert.False(t, eval("matches", `^v\d+`, "1.22"))
	assert.False(t, eval("matches", `(`, "x"))
}

func TestLengths(t *testing.T) {
	assert.True(t, eval("min_length", 3, "abc"))
	assert.False(t, eval("min_length", "4", "abc"))
	assert.True(t, eval("max_length", 3, "abc"))
	assert.False(t, eval("max_length", 2, "abc"))
	assert.False(t, eval("max_length", "two", "abc"))
}

func TestCounts(t *testing.T) {
	assert.True(t, eval("min_count", 2, []any{1, 2, 3}))
	assert.False(t, eval("min_count", 4, map[string]any{"a": 1}))
	assert.True(t, eval("exact_count", "3", "3"))
	assert.False(t, eval("exact_count", 1, true))
}

func TestNumericComparisons(t *testing.T) {
	assert.True(t, eval("greater_than", 10, "11"))
	assert.False(t, eval("greater_than", 10, 10))
	assert.True(t, eval("less_than", 1.5, 1))
	assert.False(t, eval("less_than", "x", 1))
	assert.True(t, eval("max_latency", 100, int64(99)))
	assert.False(t, eval("max_latency", 100, 101.5))
	assert.False(t, eval("max_latency", 100, "slow"))
}

func TestNoDuplicates(t *testing.T) {
	assert.True(t, eval("no_duplicates", nil, []any{1, 2}))
	assert.False(t, eval("no_duplicates", nil, []any{"a", "a"}))
	assert.False(t, eval("no_duplicates", nil, "x\ny\nx\n"))
	assert.False(t, eval("no_duplicates", nil, 5))
}

func TestAllPass(t *testing.T) {
	assert.True(t, eval("all_pass", nil, []Result{{Passed: true}}))
	assert.False(t, eval("all_pass", nil, []Result{{Passed: false}}))
	assert.False(t, eval("all_pass", nil, []any{
		map[string]any{"passed": true},
		map[string]any{"passed": false},
	}))
	assert.True(t, eval("all_pass", nil, []any{"ignored"}))
	assert.False(t, eval("all_pass", nil, "nope"))
}

func TestToFloat64(t *testing.T) {
	f, ok := toFloat64(" 2.5 ")
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	_, ok = toFloat64("abc")
	assert.False(t, ok)

	_, ok = toFloat64(struct{}{})
	assert.False(t, ok)
}
