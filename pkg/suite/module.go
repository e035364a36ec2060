// Package suite defines the test module model: what discovery
// produces and what the runner executes.
package suite

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"digital.vasic.jester/pkg/report"
)

// Kind tags how a module supplies its assertions.
type Kind int

const (
	// KindProcedural modules run a body that issues assertions
	// in program order.
	KindProcedural Kind = iota + 1
	// KindDeclarative modules list their assertions up front.
	KindDeclarative
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindProcedural:
		return "procedural"
	case KindDeclarative:
		return "declarative"
	default:
		return "unknown"
	}
}

// Check is one assertion body. A nil error is a pass; any
// error, or a panic, is a failure.
type Check func(ctx context.Context) error

// Procedure is the body of a procedural module. It records
// assertions into status and writes them to rep, normally via
// assertion.Assert. A returned error marks the module failed
// and is reported as a runner fault.
type Procedure func(
	ctx context.Context, status *Status, rep report.Reporter,
) error

// Assertion is a single declared check.
type Assertion struct {
	Description string
	Check       Check
	Skip        bool
	// Timeout overrides the runner's per-assertion timeout
	// when positive.
	Timeout time.Duration
}

// Module is one discovered test unit. It is immutable once
// built.
type Module struct {
	ID         string
	Path       string
	Kind       Kind
	Run        Procedure
	Assertions []Assertion
}

// NewProcedural builds a procedural module.
func NewProcedural(id string, run Procedure) *Module {
	return &Module{ID: id, Kind: KindProcedural, Run: run}
}

// NewDeclarative builds a declarative module. Assertions that
// repeat a description replace the earlier one in place, so
// the last definition wins but keeps the first position.
func NewDeclarative(id string, assertions ...Assertion) *Module {
	return &Module{
		ID:         id,
		Kind:       KindDeclarative,
		Assertions: Dedupe(assertions),
	}
}

// WithPath returns the module with Path set to the slash form
// of path and, when the module has no id, the id defaulted to
// the file base name.
func (m *Module) WithPath(path string) *Module {
	m.Path = filepath.ToSlash(path)
	if m.ID == "" {
		m.ID = DefaultID(path)
	}
	return m
}

// DefaultID returns the base name of path without any known
// module extension.
func DefaultID(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{
		".tap.sh", ".yaml", ".yml", ".json", ".toml", ".hcl",
		".so", ".sh",
	} {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// Dedupe applies last-write-wins by description while keeping
// first-occurrence order.
func Dedupe(assertions []Assertion) []Assertion {
	index := make(map[string]int, len(assertions))
	out := make([]Assertion, 0, len(assertions))
	for _, a := range assertions {
		if i, ok := index[a.Description]; ok {
			out[i] = a
			continue
		}
		index[a.Description] = len(out)
		out = append(out, a)
	}
	return out
}
