package server

import (
	"github.com/zeusync/gamecore/internal/core/command"
	"github.com/zeusync/gamecore/internal/core/events/bus"
)

type Option func(*Server)

// WithStatusHook receives "<name> - <status>" each time a unit updates the
// server status.
func WithStatusHook(hook func(status string)) Option {
	return func(s *Server) { s.statusHook = hook }
}

// WithInterpreter replaces the default Lua interpreter.
func WithInterpreter(interp command.Interpreter) Option {
	return func(s *Server) { s.interp = interp }
}

func WithEventBus(events bus.EventBus) Option {
	return func(s *Server) { s.events = events }
}
