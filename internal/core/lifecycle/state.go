package lifecycle

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// State of a single-use server lifecycle.
type State uint8

const (
	StateCreated State = iota
	StateInitializing
	StateRunning
	StateShuttingDown
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Transition is the payload of EventState.
type Transition struct {
	From State
	To   State
}

var allowed = map[State][]State{
	StateCreated:      {StateInitializing},
	StateInitializing: {StateRunning, StateShuttingDown},
	StateRunning:      {StateShuttingDown},
	StateShuttingDown: {StateShutdown},
}

func canTransition(from, to State) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}
