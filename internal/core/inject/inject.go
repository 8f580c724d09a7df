// Package inject fills the declared dependency slots of a unit from the set
// of registered units.
package inject

import (
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/unit"
)

// Scope restricts which registered units a Point may resolve to.
type Scope uint8

const (
	// ScopeAny searches services first, then components.
	ScopeAny Scope = iota
	ScopeComponents
	ScopeServices
)

// Point is one settable slot requesting a capability.
type Point struct {
	Name       string
	Capability string
	Scope      Scope

	match  func(unit.Unit) bool
	assign func(unit.Unit)
}

// Slot declares target as an injection point for capability T. T may be a
// concrete unit type or an interface that registered units implement.
func Slot[T any](name string, target *T) Point {
	return slot(name, target, ScopeAny)
}

// ComponentSlot is Slot restricted to registered components.
func ComponentSlot[T any](name string, target *T) Point {
	return slot(name, target, ScopeComponents)
}

// ServiceSlot is Slot restricted to registered services.
func ServiceSlot[T any](name string, target *T) Point {
	return slot(name, target, ScopeServices)
}

func slot[T any](name string, target *T, scope Scope) Point {
	return Point{
		Name:       name,
		Capability: unit.CapabilityName[T](),
		Scope:      scope,
		match: func(u unit.Unit) bool {
			_, ok := u.(T)
			return ok
		},
		assign: func(u unit.Unit) {
			*target = u.(T)
		},
	}
}

// Injectable is implemented by units that declare dependencies.
type Injectable interface {
	Dependencies() []Point
}

type Resolver interface {
	Lookup(match func(unit.Unit) bool) (unit.Unit, bool)
	Components() []unit.Component
	Services() []unit.Service
}

type Injector struct {
	resolver Resolver
	logger   log.Log
}

func New(resolver Resolver, logger log.Log) *Injector {
	return &Injector{resolver: resolver, logger: logger}
}

// InjectInto resolves every declared point of u. Unresolved points are logged
// and left untouched; the pass never fails as a whole. It returns the number
// of points that could not be resolved.
func (i *Injector) InjectInto(u unit.Unit) int {
	injectable, ok := u.(Injectable)
	if !ok {
		return 0
	}

	logger := i.logger.With(log.String("unit", unit.TypeName(u)))
	failed := 0
	for _, p := range injectable.Dependencies() {
		if p.match == nil || p.assign == nil {
			logger.Error("Invalid injection point", log.String("slot", p.Name))
			failed++
			continue
		}

		found, ok := i.lookup(p.Scope, func(candidate unit.Unit) bool {
			return candidate != u && p.match(candidate)
		})
		if !ok {
			logger.Error("Failed to inject dependency",
				log.String("capability", p.Capability),
				log.String("slot", p.Name),
				log.Error(unit.ErrNotRegistered))
			failed++
			continue
		}

		p.assign(found)
		logger.Debug("Injected dependency",
			log.String("capability", p.Capability),
			log.String("slot", p.Name),
			log.String("provider", unit.TypeName(found)))
	}
	return failed
}

func (i *Injector) lookup(scope Scope, match func(unit.Unit) bool) (unit.Unit, bool) {
	switch scope {
	case ScopeComponents:
		for _, c := range i.resolver.Components() {
			if match(c) {
				return c, true
			}
		}
		return nil, false
	case ScopeServices:
		for _, svc := range i.resolver.Services() {
			if match(svc) {
				return svc, true
			}
		}
		return nil, false
	default:
		return i.resolver.Lookup(match)
	}
}
