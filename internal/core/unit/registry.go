package unit

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry holds the registered services and components in registration order.
//
// Resolution is first-registered-wins. Services are searched before
// components, mirroring the order in which they are brought up.
type Registry struct {
	mu         sync.RWMutex
	services   []Service
	components []Component
}

func NewRegistry() *Registry {
	return &Registry{}
}

// AddService appends s and reports whether a unit of the same concrete type
// was already registered.
func (r *Registry) AddService(s Service) (duplicate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	duplicate = r.hasTypeLocked(s)
	r.services = append(r.services, s)
	return duplicate
}

// AddComponent appends c and reports whether a unit of the same concrete type
// was already registered.
func (r *Registry) AddComponent(c Component) (duplicate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	duplicate = r.hasTypeLocked(c)
	r.components = append(r.components, c)
	return duplicate
}

// Services returns a snapshot in registration order.
func (r *Registry) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Service(nil), r.services...)
}

// Components returns a snapshot in registration order.
func (r *Registry) Components() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}

// Lookup returns the first unit accepted by match.
func (r *Registry) Lookup(match func(Unit) bool) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.services {
		if match(s) {
			return s, true
		}
	}
	for _, c := range r.components {
		if match(c) {
			return c, true
		}
	}
	return nil, false
}

func (r *Registry) hasTypeLocked(u Unit) bool {
	t := reflect.TypeOf(u)
	for _, s := range r.services {
		if reflect.TypeOf(s) == t {
			return true
		}
	}
	for _, c := range r.components {
		if reflect.TypeOf(c) == t {
			return true
		}
	}
	return false
}

// Resolve finds the unit whose concrete type is, or implements, T.
func Resolve[T any](r *Registry) (T, error) {
	u, ok := r.Lookup(func(u Unit) bool {
		_, ok := u.(T)
		return ok
	})
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, CapabilityName[T]())
	}
	return u.(T), nil
}

// GetComponent resolves T among components only.
func GetComponent[T any](r *Registry) (T, error) {
	for _, c := range r.Components() {
		if v, ok := c.(T); ok {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s is not registered as a component", ErrNotRegistered, CapabilityName[T]())
}

// GetService resolves T among services only.
func GetService[T any](r *Registry) (T, error) {
	for _, s := range r.Services() {
		if v, ok := s.(T); ok {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s is not registered as a service", ErrNotRegistered, CapabilityName[T]())
}
