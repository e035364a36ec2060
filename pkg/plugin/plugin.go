// Package plugin opens compiled Go plugins (.so files) and
// inspects their exported symbols for a test module shape.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/suite"
)

// Exported symbol names a test plugin may define.
const (
	SymbolID         = "ID"
	SymbolRun        = "Run"
	SymbolAssertions = "Assertions"
	SymbolInit       = "Init"
	SymbolProcedures = "Procedures"
)

// PluginContext is handed to a plugin's Init function once,
// before its module is built.
type PluginContext struct {
	Path   string
	Config map[string]interface{}
}

// Symbols looks up exported symbols. *plugin.Plugin satisfies
// it; tests supply maps.
type Symbols interface {
	Lookup(name string) (any, error)
}

// Exports is what a plugin file provides.
type Exports struct {
	ID         string
	Run        suite.Procedure
	Assertions []suite.Assertion
	Version    string

	// Procedures are named procedures for documents that
	// reference them with a run field.
	Procedures map[string]suite.Procedure
}

// HasRun reports whether the plugin exports a Run procedure.
func (e *Exports) HasRun() bool { return e.Run != nil }

// HasAssertions reports whether the plugin exports an
// assertion list.
func (e *Exports) HasAssertions() bool { return e.Assertions != nil }

// Inspect reads the known symbols from syms. Missing symbols
// are not an error; symbols of the wrong type are.
func Inspect(syms Symbols, pctx *PluginContext) (*Exports, error) {
	out := &Exports{}

	if sym, err := syms.Lookup(SymbolInit); err == nil {
		initFn, ok := sym.(func(*PluginContext) error)
		if !ok {
			return nil, typeError(SymbolInit, sym)
		}
		if err := initFn(pctx); err != nil {
			return nil, fmt.Errorf("init plugin: %w", err)
		}
	}

	if sym, err := syms.Lookup(SymbolID); err == nil {
		switch v := sym.(type) {
		case *string:
			out.ID = *v
		case string:
			out.ID = v
		default:
			return nil, typeError(SymbolID, sym)
		}
	}

	if sym, err := syms.Lookup(SymbolRun); err == nil {
		run, err := asProcedure(sym)
		if err != nil {
			return nil, err
		}
		out.Run = run
	}

	if sym, err := syms.Lookup(SymbolAssertions); err == nil {
		switch v := sym.(type) {
		case *[]suite.Assertion:
			out.Assertions = append([]suite.Assertion{}, (*v)...)
		case []suite.Assertion:
			out.Assertions = append([]suite.Assertion{}, v...)
		case func() []suite.Assertion:
			out.Assertions = append([]suite.Assertion{}, v()...)
		default:
			return nil, typeError(SymbolAssertions, sym)
		}
	}

	if sym, err := syms.Lookup(SymbolProcedures); err == nil {
		procs, err := asProcedures(sym)
		if err != nil {
			return nil, err
		}
		out.Procedures = procs
	}

	return out, nil
}

func asProcedures(sym any) (map[string]suite.Procedure, error) {
	var procs map[string]suite.Procedure
	switch v := sym.(type) {
	case map[string]suite.Procedure:
		procs = v
	case *map[string]suite.Procedure:
		procs = *v
	case func() map[string]suite.Procedure:
		procs = v()
	default:
		return nil, typeError(SymbolProcedures, sym)
	}
	out := make(map[string]suite.Procedure, len(procs))
	for name, p := range procs {
		out[name] = p
	}
	return out, nil
}

func asProcedure(sym any) (suite.Procedure, error) {
	switch v := sym.(type) {
	case func(context.Context, *suite.Status, report.Reporter) error:
		return v, nil
	case suite.Procedure:
		return v, nil
	case *suite.Procedure:
		if *v == nil {
			return nil, fmt.Errorf("symbol %s is nil", SymbolRun)
		}
		return *v, nil
	default:
		return nil, typeError(SymbolRun, sym)
	}
}

func typeError(name string, sym any) error {
	return fmt.Errorf("symbol %s has unsupported type %T", name, sym)
}

// Registry caches inspected plugins by path. The Go runtime
// never unloads a plugin, so a path is opened at most once per
// process and re-discovery reuses the first result.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Exports
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]*Exports)}
}

// Register records exports for path. A second registration of
// the same path is an error.
func (r *Registry) Register(path string, e *Exports) error {
	if e == nil {
		return fmt.Errorf("plugin exports cannot be nil")
	}
	if path == "" {
		return fmt.Errorf("plugin path cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[path]; exists {
		return fmt.Errorf("plugin %q already registered", path)
	}
	r.plugins[path] = e
	return nil
}

// Get retrieves the exports recorded for path.
func (r *Registry) Get(path string) (*Exports, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.plugins[path]
	return e, ok
}

// List returns all registered plugin paths.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.plugins))
	for p := range r.plugins {
		paths = append(paths, p)
	}
	return paths
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
