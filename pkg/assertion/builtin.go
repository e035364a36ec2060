package assertion

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/golobby/cast"
)

func builtins() map[string]Evaluator {
	return map[string]Evaluator{
		"equals":        evaluateEquals,
		"not_equals":    evaluateNotEquals,
		"not_empty":     evaluateNotEmpty,
		"contains":      evaluateContains,
		"not_contains":  evaluateNotContains,
		"contains_any":  evaluateContainsAny,
		"matches":       evaluateMatches,
		"min_length":    evaluateMinLength,
		"max_length":    evaluateMaxLength,
		"min_count":     evaluateMinCount,
		"exact_count":   evaluateExactCount,
		"greater_than":  evaluateGreaterThan,
		"less_than":     evaluateLessThan,
		"max_latency":   evaluateMaxLatency,
		"no_duplicates": evaluateNoDuplicates,
		"all_pass":      evaluateAllPass,
	}
}

// evaluateEquals compares numerically when both sides are
// numbers and by string form otherwise.
func evaluateEquals(def Definition, value any) (bool, string) {
	if sameValue(value, def.Value) {
		return true, fmt.Sprintf("%v == %v", value, def.Value)
	}
	return false, fmt.Sprintf("%v != %v", value, def.Value)
}

func evaluateNotEquals(def Definition, value any) (bool, string) {
	if sameValue(value, def.Value) {
		return false, fmt.Sprintf("%v == %v", value, def.Value)
	}
	return true, fmt.Sprintf("%v != %v", value, def.Value)
}

// evaluateNotEmpty checks that a value is non-nil and non-empty.
func evaluateNotEmpty(_ Definition, value any) (bool, string) {
	if value == nil {
		return false, "value is nil"
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return false, "string is empty"
		}
	case []any:
		if len(v) == 0 {
			return false, "array is empty"
		}
	case map[string]any:
		if len(v) == 0 {
			return false, "map is empty"
		}
	}

	return true, "value is not empty"
}

// evaluateContains checks that a string value contains the
// expected substring (case-insensitive).
func evaluateContains(def Definition, value any) (bool, string) {
	str, ok := value.(string)
	if !ok {
		return false, "value is not a string"
	}
	expected := toString(def.Value)

	if strings.Contains(
		strings.ToLower(str), strings.ToLower(expected),
	) {
		return true, fmt.Sprintf("contains '%s'", expected)
	}
	return false, fmt.Sprintf("does not contain '%s'", expected)
}

func evaluateNotContains(def Definition, value any) (bool, string) {
	passed, msg := evaluateContains(def, value)
	if _, isString := value.(string); !isString {
		return false, msg
	}
	if passed {
		return false, msg
	}
	return true, fmt.Sprintf("does not contain '%s'", toString(def.Value))
}

// evaluateContainsAny checks that a string value contains at
// least one of the expected substrings.
func evaluateContainsAny(def Definition, value any) (bool, string) {
	str, ok := value.(string)
	if !ok {
		return false, "value is not a string"
	}

	lower := strings.ToLower(str)

	var values []string
	switch v := def.Value.(type) {
	case string:
		values = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			values = append(values, toString(item))
		}
	case []string:
		values = v
	}
	for _, item := range def.Values {
		values = append(values, toString(item))
	}

	for _, expected := range values {
		trimmed := strings.TrimSpace(expected)
		if trimmed != "" && strings.Contains(lower, strings.ToLower(trimmed)) {
			return true, fmt.Sprintf("contains '%s'", trimmed)
		}
	}

	return false, fmt.Sprintf("does not contain any of: %v", values)
}

// evaluateMatches checks a string against a regular expression.
func evaluateMatches(def Definition, value any) (bool, string) {
	str, ok := value.(string)
	if !ok {
		return false, "value is not a string"
	}
	re, err := regexp.Compile(toString(def.Value))
	if err != nil {
		return false, fmt.Sprintf("invalid pattern: %v", err)
	}
	if re.MatchString(str) {
		return true, fmt.Sprintf("matches /%s/", re)
	}
	return false, fmt.Sprintf("does not match /%s/", re)
}

// evaluateMinLength checks that a string value meets a minimum
// character length.
func evaluateMinLength(def Definition, value any) (bool, string) {
	str, ok := value.(string)
	if !ok {
		return false, "value is not a string"
	}
	minLength, ok := toInt(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}

	actual := len(str)
	if actual >= minLength {
		return true, fmt.Sprintf("length %d >= %d", actual, minLength)
	}
	return false, fmt.Sprintf("length %d < %d", actual, minLength)
}

func evaluateMaxLength(def Definition, value any) (bool, string) {
	str, ok := value.(string)
	if !ok {
		return false, "value is not a string"
	}
	maxLength, ok := toInt(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}

	actual := len(str)
	if actual <= maxLength {
		return true, fmt.Sprintf("length %d <= %d", actual, maxLength)
	}
	return false, fmt.Sprintf("length %d > %d", actual, maxLength)
}

// evaluateMinCount checks that a countable value (number,
// slice, or map) meets a minimum count.
func evaluateMinCount(def Definition, value any) (bool, string) {
	count, ok := toCount(value)
	if !ok {
		return false, "value is not countable"
	}
	minCount, ok := toInt(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}

	if count >= minCount {
		return true, fmt.Sprintf("count %d >= %d", count, minCount)
	}
	return false, fmt.Sprintf("count %d < %d", count, minCount)
}

// evaluateExactCount checks that a countable value exactly
// matches the expected count.
func evaluateExactCount(def Definition, value any) (bool, string) {
	count, ok := toCount(value)
	if !ok {
		return false, "value is not countable"
	}
	expected, ok := toInt(def.Value)
	if !ok {
		return false, "expected value is not a number"
	}

	if count == expected {
		return true, fmt.Sprintf("count %d == %d", count, expected)
	}
	return false, fmt.Sprintf("count %d != %d", count, expected)
}

func evaluateGreaterThan(def Definition, value any) (bool, string) {
	actual, limit, msg, ok := numericPair(def, value)
	if !ok {
		return false, msg
	}
	if actual > limit {
		return true, fmt.Sprintf("%g > %g", actual, limit)
	}
	return false, fmt.Sprintf("%g <= %g", actual, limit)
}

func evaluateLessThan(def Definition, value any) (bool, string) {
	actual, limit, msg, ok := numericPair(def, value)
	if !ok {
		return false, msg
	}
	if actual < limit {
		return true, fmt.Sprintf("%g < %g", actual, limit)
	}
	return false, fmt.Sprintf("%g >= %g", actual, limit)
}

// evaluateMaxLatency checks that a latency in milliseconds
// does not exceed the expected maximum.
func evaluateMaxLatency(def Definition, value any) (bool, string) {
	latency, limit, msg, ok := numericPair(def, value)
	if !ok {
		return false, msg
	}
	if latency <= limit {
		return true, fmt.Sprintf("latency %gms <= %gms", latency, limit)
	}
	return false, fmt.Sprintf("latency %gms > %gms", latency, limit)
}

// evaluateNoDuplicates checks that a slice, or the lines of a
// string, contain no duplicate values.
func evaluateNoDuplicates(_ Definition, value any) (bool, string) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case string:
		for _, line := range strings.Split(strings.TrimSpace(v), "\n") {
			items = append(items, line)
		}
	default:
		return false, "value is not an array"
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := fmt.Sprintf("%v", item)
		if seen[key] {
			return false, fmt.Sprintf("duplicate found: %s", key)
		}
		seen[key] = true
	}
	return true, "no duplicates found"
}

// evaluateAllPass checks that every result in a slice passed.
// Accepts []Result or []any with map entries carrying a
// "passed" key.
func evaluateAllPass(_ Definition, value any) (bool, string) {
	if results, ok := value.([]Result); ok {
		for _, r := range results {
			if !r.Passed {
				return false, fmt.Sprintf(
					"assertion '%s' failed: %s", r.Type, r.Message,
				)
			}
		}
		return true, "all assertions passed"
	}

	items, ok := value.([]any)
	if !ok {
		return false, "value is not an array of results"
	}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if p, ok := m["passed"].(bool); ok && !p {
			return false, fmt.Sprintf("item %d failed", i)
		}
	}
	return true, "all items passed"
}

// --- helpers ---

var float64Type = reflect.TypeOf(float64(0))

// toFloat64 converts numbers and numeric strings to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		converted, err := cast.FromType(strings.TrimSpace(n), float64Type)
		if err != nil {
			return 0, false
		}
		f, ok := converted.(float64)
		return f, ok
	}
	return 0, false
}

// toInt converts numbers and numeric strings to int.
func toInt(v any) (int, bool) {
	f, ok := toFloat64(v)
	return int(f), ok
}

// toCount extracts a count from a number, numeric string,
// slice, or map.
func toCount(v any) (int, bool) {
	switch val := v.(type) {
	case []any:
		return len(val), true
	case map[string]any:
		return len(val), true
	}
	return toInt(v)
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func sameValue(actual, expected any) bool {
	a, aok := toFloat64(actual)
	e, eok := toFloat64(expected)
	if aok && eok {
		return a == e
	}
	return toString(actual) == toString(expected)
}

func numericPair(def Definition, value any) (actual, limit float64, msg string, ok bool) {
	actual, ok = toFloat64(value)
	if !ok {
		return 0, 0, "value is not a number", false
	}
	limit, ok = toFloat64(def.Value)
	if !ok {
		return 0, 0, "expected value is not a number", false
	}
	return actual, limit, "", true
}
