// Package unit defines the lifecycle-bound building blocks of a game server:
// components, which are ticked every frame, and services, which are brought
// up once and never ticked.
package unit

import (
	"fmt"
	"strings"

	"github.com/zeusync/gamecore/internal/core/events/bus"
	"github.com/zeusync/gamecore/internal/core/observability/log"
)

// Unit is anything the server owns and drives through its lifecycle.
type Unit interface {
	Initialize(host Host) error
	Shutdown() error
}

// Component is a Unit advanced by every scheduler cycle.
type Component interface {
	Unit
	Tick(deltaTime float64)
}

// Service is a Unit initialized once at startup and never ticked.
type Service interface {
	Unit
}

// Host is the view of the server a unit receives at initialization.
type Host interface {
	Name() string
	TickRate() int
	// Logger is scoped to the receiving unit.
	Logger() log.Log
	Events() bus.EventBus
	// SetStatus publishes presentation-only status text, e.g. a console title.
	SetStatus(status string)
	// Execute runs a command string through the command bridge. Calling it
	// from inside a command handler deadlocks.
	Execute(command string) any
}

// TypeName reports the concrete type of u the way it is shown in logs.
func TypeName(u Unit) string {
	return fmt.Sprintf("%T", u)
}

// CapabilityName names the capability T.
func CapabilityName[T any]() string {
	return strings.TrimPrefix(fmt.Sprintf("%T", (*T)(nil)), "*")
}
