package command

import (
	"fmt"
	"sync"
)

type binding struct {
	handler     Handler
	description *Description
}

// Registry maps process-wide unique command names to handlers. A name is
// never rebound once registered.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	bindings map[string]binding
}

func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]binding)}
}

// Register stores handler under name. The description is optional.
func (r *Registry) Register(name string, handler Handler, description *Description) error {
	if name == "" || handler == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bindings[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}

	b := binding{handler: handler}
	if description != nil {
		d := *description
		d.Parameters = append([]Param(nil), description.Parameters...)
		b.description = &d
	}
	r.bindings[name] = b
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[name]
	return ok
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	return b.handler, ok
}

// Describe returns the description registered for name, if any.
func (r *Registry) Describe(name string) (Description, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	if !ok || b.description == nil {
		return Description{}, false
	}
	return *b.description, true
}

// List returns every command name in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Call invokes the named handler directly, bypassing the interpreter.
func (r *Registry) Call(name string, args ...any) (any, error) {
	h, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(args...)
}

// IsZeroArg reports whether name is described with no parameters.
func (r *Registry) IsZeroArg(name string) bool {
	d, ok := r.Describe(name)
	return ok && len(d.Parameters) == 0
}
