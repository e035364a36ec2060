package plugin

import (
	"fmt"
	goplugin "plugin"
	"sort"
	"sync"

	"digital.vasic.jester/pkg/registry"
)

// OpenFunc opens a plugin file and returns its symbol table.
type OpenFunc func(path string) (Symbols, error)

// OpenShared opens path with the Go plugin runtime.
func OpenShared(path string) (Symbols, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	return symbolAdapter{p}, nil
}

type symbolAdapter struct{ p *goplugin.Plugin }

func (s symbolAdapter) Lookup(name string) (any, error) {
	return s.p.Lookup(name)
}

// Loader opens and inspects plugins, caching results in its
// registry.
type Loader struct {
	mu       sync.Mutex
	registry *Registry
	open     OpenFunc
	config   map[string]interface{}
}

// NewLoader creates a loader. A nil open uses OpenShared.
func NewLoader(registry *Registry, open OpenFunc) *Loader {
	if registry == nil {
		registry = NewRegistry()
	}
	if open == nil {
		open = OpenShared
	}
	return &Loader{registry: registry, open: open}
}

// WithConfig sets the configuration handed to plugin Init
// functions.
func (l *Loader) WithConfig(cfg map[string]interface{}) *Loader {
	l.config = cfg
	return l
}

// Load returns the exports of path, opening and inspecting it
// on first use.
func (l *Loader) Load(path string) (*Exports, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.registry.Get(path); ok {
		return e, nil
	}

	syms, err := l.open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin: %w", err)
	}
	e, err := Inspect(syms, &PluginContext{Path: path, Config: l.config})
	if err != nil {
		return nil, fmt.Errorf("load plugin %s: %w", path, err)
	}
	if err := l.registry.Register(path, e); err != nil {
		return nil, fmt.Errorf("load plugin: %w", err)
	}
	return e, nil
}

// Registry returns the loader's cache.
func (l *Loader) Registry() *Registry { return l.registry }

// RegisterProcedures loads each plugin in paths and adds the
// procedures it exports to reg. A plugin without a Procedures
// symbol is an error.
func (l *Loader) RegisterProcedures(reg registry.Registry, paths ...string) error {
	for _, path := range paths {
		e, err := l.Load(path)
		if err != nil {
			return err
		}
		if e.Procedures == nil {
			return fmt.Errorf("plugin %s exports no %s", path, SymbolProcedures)
		}
		names := make([]string, 0, len(e.Procedures))
		for name := range e.Procedures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := reg.Register(name, e.Procedures[name]); err != nil {
				return fmt.Errorf("plugin %s: %w", path, err)
			}
		}
	}
	return nil
}
