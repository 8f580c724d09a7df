// Package lifecycle brings units up and down in a fixed order: services
// before components on the way up, the exact reverse on the way down.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zeusync/gamecore/internal/core/command"
	"github.com/zeusync/gamecore/internal/core/events/bus"
	"github.com/zeusync/gamecore/internal/core/inject"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/unit"
)

// EventState is published on every state transition.
const EventState = "lifecycle.state"

type CommandRegistrar interface {
	RegisterMethods(owner string, methods []command.Method) error
}

// HostFactory builds the host view handed to u at initialization.
type HostFactory func(u unit.Unit) unit.Host

type Sequencer struct {
	units    *unit.Registry
	injector *inject.Injector
	commands CommandRegistrar
	hosts    HostFactory
	events   bus.EventBus
	logger   log.Log

	mu    sync.RWMutex
	state State

	// started lists units brought up, in bring-up order.
	started    []unit.Unit
	components []unit.Component
}

func New(
	units *unit.Registry,
	injector *inject.Injector,
	commands CommandRegistrar,
	hosts HostFactory,
	events bus.EventBus,
	logger log.Log,
) *Sequencer {
	return &Sequencer{
		units:    units,
		injector: injector,
		commands: commands,
		hosts:    hosts,
		events:   events,
		logger:   logger,
		state:    StateCreated,
	}
}

func (s *Sequencer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Initialize injects, initializes and registers the commands of every
// service, then every component, each in registration order. On failure the
// units already brought up are shut down in reverse and the error returned.
func (s *Sequencer) Initialize() error {
	if err := s.transition(StateInitializing); err != nil {
		return err
	}

	s.logger.Info("Initializing game services...")
	for _, svc := range s.units.Services() {
		if err := s.bringUp(svc); err != nil {
			return s.abort(err)
		}
	}

	s.logger.Info("Initializing game components...")
	components := s.units.Components()
	for _, c := range components {
		if err := s.bringUp(c); err != nil {
			return s.abort(err)
		}
	}
	s.components = components

	return s.transition(StateRunning)
}

func (s *Sequencer) bringUp(u unit.Unit) error {
	name := unit.TypeName(u)
	logger := s.logger.With(log.String("unit", name))

	logger.Debug("Injecting dependencies...")
	if failed := s.injector.InjectInto(u); failed > 0 {
		logger.Warn("Some dependencies were not injected", log.Int("unresolved", failed))
	}

	logger.Debug("Initializing...")
	if err := u.Initialize(s.hosts(u)); err != nil {
		return fmt.Errorf("initialize %s: %w", name, err)
	}
	s.started = append(s.started, u)

	if provider, ok := u.(command.Provider); ok {
		logger.Debug("Registering commands...")
		if err := s.commands.RegisterMethods(name, provider.Commands()); err != nil {
			return fmt.Errorf("register commands: %w", err)
		}
	}

	logger.Debug("Initialization complete.")
	return nil
}

func (s *Sequencer) abort(cause error) error {
	s.logger.Error("Startup failed, unwinding", log.Error(cause))
	if err := s.transition(StateShuttingDown); err != nil {
		return errors.Join(cause, err)
	}
	s.unwind()
	if err := s.transition(StateShutdown); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// TickAll advances every component in registration order.
func (s *Sequencer) TickAll(deltaTime float64) {
	for _, c := range s.components {
		c.Tick(deltaTime)
	}
}

// Shutdown releases every unit in reverse of bring-up order: components
// last-registered first, then services last-registered first. Unit errors
// are logged and joined; they never stop the unwind.
func (s *Sequencer) Shutdown() error {
	if err := s.transition(StateShuttingDown); err != nil {
		return err
	}
	err := s.unwind()
	if terr := s.transition(StateShutdown); terr != nil {
		return errors.Join(err, terr)
	}
	return err
}

func (s *Sequencer) unwind() error {
	s.logger.Info("Cleaning up game units...")

	var errs []error
	for i := len(s.started) - 1; i >= 0; i-- {
		u := s.started[i]
		name := unit.TypeName(u)
		logger := s.logger.With(log.String("unit", name))

		logger.Debug("Shutting down...")
		if err := u.Shutdown(); err != nil {
			logger.Error("Shutdown failed", log.Error(err))
			errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
			continue
		}
		logger.Debug("Shutdown complete.")
	}
	s.started = nil
	return errors.Join(errs...)
}

func (s *Sequencer) transition(to State) error {
	s.mu.Lock()
	from := s.state
	if !canTransition(from, to) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.state = to
	s.mu.Unlock()

	s.logger.Debug("Lifecycle transition", log.String("from", from.String()), log.String("to", to.String()))
	if s.events != nil {
		if err := s.events.Publish(bus.NewEvent(EventState, "lifecycle", Transition{From: from, To: to})); err != nil {
			s.logger.Warn("Lifecycle event handler failed", log.Error(err))
		}
	}
	return nil
}
