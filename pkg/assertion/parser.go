package assertion

import "strings"

// ParseAssertionString parses a compact assertion string of the
// form "type:value" into its components. If no colon is present
// the entire string is treated as the type and value is nil.
//
// Examples:
//
//	"equals:200"     -> ("equals", "200")
//	"not_empty"      -> ("not_empty", nil)
//	"matches:^a:b$"  -> ("matches", "^a:b$")
func ParseAssertionString(
	s string,
) (assertionType string, value any) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	assertionType = strings.TrimSpace(parts[0])

	if len(parts) > 1 {
		value = parts[1]
	}

	return
}

// ParseDefinition builds a definition from a compact string
// and a target.
func ParseDefinition(s, target string) Definition {
	t, v := ParseAssertionString(s)
	return Definition{Type: t, Target: target, Value: v}
}
