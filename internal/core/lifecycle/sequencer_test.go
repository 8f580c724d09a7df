package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/gamecore/internal/core/command"
	"github.com/zeusync/gamecore/internal/core/events/bus"
	"github.com/zeusync/gamecore/internal/core/inject"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/unit"
)

type journal struct{ entries []string }

func (j *journal) add(entry string) { j.entries = append(j.entries, entry) }

type recorder struct {
	name    string
	journal *journal
	initErr error
	downErr error
}

func (r *recorder) Initialize(unit.Host) error {
	r.journal.add("init:" + r.name)
	return r.initErr
}

func (r *recorder) Shutdown() error {
	r.journal.add("down:" + r.name)
	return r.downErr
}

func (r *recorder) Dependencies() []inject.Point {
	r.journal.add("inject:" + r.name)
	return nil
}

func (r *recorder) Commands() []command.Method {
	r.journal.add("commands:" + r.name)
	return nil
}

// Distinct concrete types keep the registry free of duplicates.
type (
	svcA  struct{ recorder }
	svcB  struct{ recorder }
	compA struct{ recorder }
	compB struct{ recorder }
)

func (c *compA) Tick(float64) { c.journal.add("tick:" + c.name) }
func (c *compB) Tick(float64) { c.journal.add("tick:" + c.name) }

type registrar struct {
	err error
}

func (r *registrar) RegisterMethods(string, []command.Method) error { return r.err }

func newSequencer(reg *unit.Registry, commands CommandRegistrar, events bus.EventBus) *Sequencer {
	logger := log.NewNop()
	return New(reg, inject.New(reg, logger), commands, func(unit.Unit) unit.Host { return nil }, events, logger)
}

func populated(j *journal) *unit.Registry {
	reg := unit.NewRegistry()
	reg.AddComponent(&compA{recorder{name: "compA", journal: j}})
	reg.AddService(&svcA{recorder{name: "svcA", journal: j}})
	reg.AddComponent(&compB{recorder{name: "compB", journal: j}})
	reg.AddService(&svcB{recorder{name: "svcB", journal: j}})
	return reg
}

func TestServicesComeUpBeforeComponents(t *testing.T) {
	j := &journal{}
	s := newSequencer(populated(j), &registrar{}, nil)

	require.NoError(t, s.Initialize())
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, []string{
		"inject:svcA", "init:svcA", "commands:svcA",
		"inject:svcB", "init:svcB", "commands:svcB",
		"inject:compA", "init:compA", "commands:compA",
		"inject:compB", "init:compB", "commands:compB",
	}, j.entries)
}

func TestTickAllFollowsRegistrationOrder(t *testing.T) {
	j := &journal{}
	s := newSequencer(populated(j), &registrar{}, nil)
	require.NoError(t, s.Initialize())
	j.entries = nil

	s.TickAll(0.02)
	assert.Equal(t, []string{"tick:compA", "tick:compB"}, j.entries)
}

func TestShutdownReversesStartup(t *testing.T) {
	j := &journal{}
	s := newSequencer(populated(j), &registrar{}, nil)
	require.NoError(t, s.Initialize())
	j.entries = nil

	require.NoError(t, s.Shutdown())
	assert.Equal(t, StateShutdown, s.State())
	assert.Equal(t, []string{"down:compB", "down:compA", "down:svcB", "down:svcA"}, j.entries)
}

func TestShutdownErrorsDoNotStopUnwind(t *testing.T) {
	j := &journal{}
	reg := unit.NewRegistry()
	boom := errors.New("boom")
	reg.AddService(&svcA{recorder{name: "svcA", journal: j}})
	reg.AddComponent(&compA{recorder{name: "compA", journal: j, downErr: boom}})
	s := newSequencer(reg, &registrar{}, nil)
	require.NoError(t, s.Initialize())
	j.entries = nil

	err := s.Shutdown()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"down:compA", "down:svcA"}, j.entries)
	assert.Equal(t, StateShutdown, s.State())
}

func TestInitializeFailureUnwindsStartedUnits(t *testing.T) {
	j := &journal{}
	reg := unit.NewRegistry()
	boom := errors.New("boom")
	reg.AddService(&svcA{recorder{name: "svcA", journal: j}})
	reg.AddComponent(&compA{recorder{name: "compA", journal: j}})
	reg.AddComponent(&compB{recorder{name: "compB", journal: j, initErr: boom}})
	s := newSequencer(reg, &registrar{}, nil)

	err := s.Initialize()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateShutdown, s.State())
	assert.Equal(t, []string{
		"inject:svcA", "init:svcA", "commands:svcA",
		"inject:compA", "init:compA", "commands:compA",
		"inject:compB", "init:compB",
		"down:compA", "down:svcA",
	}, j.entries)
}

func TestCommandRegistrationFailureIsFatal(t *testing.T) {
	j := &journal{}
	reg := unit.NewRegistry()
	reg.AddService(&svcA{recorder{name: "svcA", journal: j}})
	s := newSequencer(reg, &registrar{err: command.ErrDuplicateCommand}, nil)

	err := s.Initialize()
	require.ErrorIs(t, err, command.ErrDuplicateCommand)
	assert.Contains(t, j.entries, "down:svcA")
}

func TestTransitionsAreSingleUse(t *testing.T) {
	s := newSequencer(unit.NewRegistry(), &registrar{}, nil)

	assert.ErrorIs(t, s.Shutdown(), ErrInvalidTransition)
	require.NoError(t, s.Initialize())
	assert.ErrorIs(t, s.Initialize(), ErrInvalidTransition)
	require.NoError(t, s.Shutdown())
	assert.ErrorIs(t, s.Initialize(), ErrInvalidTransition)
}

func TestTransitionsArePublished(t *testing.T) {
	events := bus.New()
	var seen []State
	_, err := events.Subscribe(EventState, func(e bus.Event) error {
		seen = append(seen, e.Data().(Transition).To)
		return nil
	})
	require.NoError(t, err)

	s := newSequencer(unit.NewRegistry(), &registrar{}, events)
	require.NoError(t, s.Initialize())
	require.NoError(t, s.Shutdown())

	assert.Equal(t, []State{StateInitializing, StateRunning, StateShuttingDown, StateShutdown}, seen)
}
