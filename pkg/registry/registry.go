// Package registry holds the named procedures that document
// modules reference with a run field.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"digital.vasic.jester/pkg/suite"
)

// Registry defines the interface for managing named procedures.
type Registry interface {
	// Register adds a procedure under name.
	Register(name string, p suite.Procedure) error

	// Get retrieves a procedure by name.
	Get(name string) (suite.Procedure, error)

	// Has reports whether name is registered.
	Has(name string) bool

	// List returns all registered names sorted.
	List() []string

	// Clear removes all procedures.
	Clear()

	// Count returns the number of registered procedures.
	Count() int
}

// DefaultRegistry is the standard Registry implementation.
// It is safe for concurrent use.
type DefaultRegistry struct {
	mu         sync.RWMutex
	procedures map[string]suite.Procedure
}

// NewRegistry creates a new, empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		procedures: make(map[string]suite.Procedure),
	}
}

// Default is the package-level default registry instance.
// Programs embedding jester register their procedures here
// from init functions.
var Default = NewRegistry()

// Register adds a procedure. Returns an error if the name is
// empty, the procedure is nil, or the name is already taken.
func (r *DefaultRegistry) Register(
	name string,
	p suite.Procedure,
) error {
	if name == "" {
		return fmt.Errorf("procedure name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("procedure %s is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.procedures[name]; exists {
		return fmt.Errorf(
			"procedure already registered: %s", name,
		)
	}
	r.procedures[name] = p
	return nil
}

// MustRegister is Register that panics on error, for use in
// init functions.
func (r *DefaultRegistry) MustRegister(
	name string,
	p suite.Procedure,
) {
	if err := r.Register(name, p); err != nil {
		panic(err)
	}
}

// Get retrieves a procedure by name.
func (r *DefaultRegistry) Get(
	name string,
) (suite.Procedure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.procedures[name]
	if !exists {
		return nil, fmt.Errorf(
			"procedure not found: %s", name,
		)
	}
	return p, nil
}

// Has reports whether name is registered.
func (r *DefaultRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.procedures[name]
	return ok
}

// List returns all registered names sorted.
func (r *DefaultRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clear removes all procedures.
func (r *DefaultRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procedures = make(map[string]suite.Procedure)
}

// Count returns the number of registered procedures.
func (r *DefaultRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.procedures)
}

// Clone returns an independent copy of r. Registering into the
// copy leaves r unchanged.
func (r *DefaultRegistry) Clone() *DefaultRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for name, p := range r.procedures {
		out.procedures[name] = p
	}
	return out
}
