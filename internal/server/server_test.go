package server

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/gamecore/internal/components/debugger"
	"github.com/zeusync/gamecore/internal/console"
	"github.com/zeusync/gamecore/internal/core/command"
	"github.com/zeusync/gamecore/internal/core/inject"
	"github.com/zeusync/gamecore/internal/core/lifecycle"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/tick"
	"github.com/zeusync/gamecore/internal/core/unit"
)

func testConfig(rate int) Config {
	cfg := DefaultServerConfig()
	cfg.Name = "arena"
	cfg.TickRate = rate
	return cfg
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s, err := New(testConfig(50), log.NewNop(), opts...)
	require.NoError(t, err)
	return s
}

func shutdown(t *testing.T, s *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

type events struct {
	mu      sync.Mutex
	entries []string
}

func (e *events) add(entry string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.entries...)
}

type spawner struct {
	unit.Base
	log  *events
	name string
	err  error
}

func (s *spawner) Initialize(host unit.Host) error {
	s.log.add("init:" + s.name)
	if s.err != nil {
		return s.err
	}
	return s.Base.Initialize(host)
}

func (s *spawner) Shutdown() error {
	s.log.add("down:" + s.name)
	return nil
}

type physics struct {
	unit.BaseComponent
	log     *events
	Spawner *spawner

	mu    sync.Mutex
	ticks int
}

func (p *physics) Dependencies() []inject.Point {
	return []inject.Point{inject.Slot("Spawner", &p.Spawner)}
}

func (p *physics) Initialize(host unit.Host) error {
	p.log.add("init:physics")
	return p.BaseComponent.Initialize(host)
}

func (p *physics) Shutdown() error {
	p.log.add("down:physics")
	return nil
}

func (p *physics) Tick(float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks++
}

func (p *physics) Ticks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

func (p *physics) Commands() []command.Method {
	return []command.Method{
		command.New("ticks", command.Func0(p.Ticks)).Doc("Ticks seen by physics."),
	}
}

func TestTickRateBounds(t *testing.T) {
	for _, rate := range []int{tick.MinTickRate, 60, tick.MaxTickRate} {
		_, err := New(testConfig(rate), log.NewNop())
		assert.NoError(t, err, "rate %d", rate)
	}

	for _, rate := range []int{0, -1, tick.MinTickRate - 1, tick.MaxTickRate + 1, 1000} {
		_, err := New(testConfig(rate), log.NewNop())
		assert.ErrorIs(t, err, ErrInvalidConfig, "rate %d", rate)
		assert.ErrorIs(t, err, tick.ErrInvalidTickRate, "rate %d", rate)
	}
}

func TestListCommandsContainsEveryNameOnce(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.RegisterCommand("spawn", command.Action0(func() {}).Handler, nil))

	out, ok := s.Execute("?").(string)
	require.True(t, ok)

	names := strings.Split(out, ", ")
	assert.ElementsMatch(t, s.ListCommands(), names)
	for _, want := range []string{"describeCommand", "listCommands", "tickStats", "shutdown", "spawn"} {
		assert.Equal(t, 1, countOf(names, want), want)
	}
}

func countOf(names []string, want string) int {
	n := 0
	for _, name := range names {
		if name == want {
			n++
		}
	}
	return n
}

func TestHelp(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, "Unable to find help for command 'missingName'", s.Execute("?missingName"))

	d, ok := s.DescribeCommand("describeCommand")
	require.True(t, ok)
	assert.Equal(t, d.String(), s.Execute("?describeCommand"))
	assert.Equal(t, d.String(), s.Execute("describeCommand('describeCommand')"))
	assert.Nil(t, s.Execute("describeCommand('missingName')"))
}

func TestBareZeroArgCommand(t *testing.T) {
	s := newTestServer(t)
	calls := 0
	foo := command.Func0(func() int {
		calls++
		return 42
	})
	require.NoError(t, s.RegisterCommand("foo", foo.Handler, &command.Description{Name: "foo", ReturnType: "int"}))

	assert.Equal(t, s.Execute("foo();"), s.Execute("foo"))
	assert.Equal(t, 42, s.Execute("foo"))
	assert.Equal(t, 3, calls)
}

func TestDuplicateCommandKeepsFirstBinding(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.RegisterCommand("answer", command.Func0(func() int { return 1 }).Handler, nil))

	err := s.RegisterCommand("answer", command.Func0(func() int { return 2 }).Handler, nil)
	require.ErrorIs(t, err, command.ErrDuplicateCommand)
	assert.Equal(t, 1, s.Execute("answer()"))

	err = s.RegisterCommand("listCommands", command.Action0(func() {}).Handler, nil)
	assert.ErrorIs(t, err, command.ErrDuplicateCommand)
}

func TestInvalidCommandsYieldNil(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.RegisterCommand("boom", func(...any) (any, error) {
		panic("boom")
	}, nil))

	assert.Nil(t, s.Execute("this is ((( not lua"))
	assert.Nil(t, s.Execute("error('bad')"))
	assert.Nil(t, s.Execute("boom()"))
	assert.Nil(t, s.Execute(""))

	assert.Equal(t, 2, s.Execute("1 + 1"))
}

func TestStartShutdownOrder(t *testing.T) {
	var statuses []string
	var statusMu sync.Mutex
	s := newTestServer(t, WithStatusHook(func(status string) {
		statusMu.Lock()
		defer statusMu.Unlock()
		statuses = append(statuses, status)
	}))

	ev := &events{}
	phys := &physics{log: ev}
	sp := &spawner{log: ev, name: "spawner"}
	require.NoError(t, s.RegisterComponent(phys))
	require.NoError(t, s.RegisterService(sp))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.Equal(t, lifecycle.StateRunning, s.State())
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyRunning)
	assert.ErrorIs(t, s.RegisterService(&spawner{log: ev}), ErrRegistrationClosed)

	assert.Same(t, sp, phys.Spawner)
	require.Eventually(t, func() bool { return phys.Ticks() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, s.Execute("ticks"), 3)

	shutdown(t, s)
	assert.True(t, s.IsFullyShutdown())
	assert.False(t, s.IsRunning())
	assert.Equal(t, lifecycle.StateShutdown, s.State())
	assert.Equal(t, []string{"init:spawner", "init:physics", "down:physics", "down:spawner"}, ev.list())
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)

	statusMu.Lock()
	defer statusMu.Unlock()
	require.NotEmpty(t, statuses)
	assert.Equal(t, "arena - Starting", statuses[0])
	assert.Equal(t, "arena - Shutting Down", statuses[len(statuses)-1])
}

func TestStartFailureUnwinds(t *testing.T) {
	var last string
	s := newTestServer(t, WithStatusHook(func(status string) { last = status }))
	ev := &events{}
	require.NoError(t, s.RegisterService(&spawner{log: ev, name: "spawner", err: errors.New("no map")}))

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no map")
	assert.Equal(t, "arena - Error", last)
	assert.True(t, s.IsFullyShutdown())
	assert.Equal(t, []string{"init:spawner"}, ev.list())

	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed after failed start")
	}
}

func TestShutdownCommand(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start(context.Background()))

	assert.Nil(t, s.Execute("shutdown"))
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.NoError(t, s.Err())
}

func TestContextCancellationStopsServer(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(t)
	shutdown(t, s)
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerClosed)
}

func TestLookups(t *testing.T) {
	s := newTestServer(t)

	d, err := GetComponent[*debugger.Debugger](s)
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = GetService[*spawner](s)
	assert.ErrorIs(t, err, unit.ErrNotRegistered)

	sp, err := AddService[spawner](s)
	require.NoError(t, err)
	got, err := GetService[*spawner](s)
	require.NoError(t, err)
	assert.Same(t, sp, got)

	_, err = AddComponent[debugger.Debugger](s)
	require.NoError(t, err)
	first, err := GetComponent[*debugger.Debugger](s)
	require.NoError(t, err)
	assert.Same(t, d, first)
}

func TestTickStatsCommand(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return s.TickStats().Ticks >= 2 }, 2*time.Second, 5*time.Millisecond)

	stats, ok := s.Execute("tickStats").(map[string]any)
	require.True(t, ok)
	assert.Contains(t, stats, "ticks")
	assert.Contains(t, stats, "overloads")
	shutdown(t, s)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCommandInput(t *testing.T) {
	s := newTestServer(t)
	assert.ErrorIs(t, s.StartCommandInput(console.NewPlain(strings.NewReader(""), &bytes.Buffer{})), ErrServerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	out := &lockedBuffer{}
	in := strings.NewReader("1 + 41\n?nope\n")
	require.NoError(t, s.StartCommandInput(console.NewPlain(in, out)))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "'nope'")
	}, 2*time.Second, 5*time.Millisecond)
	shutdown(t, s)

	assert.Contains(t, out.String(), "< 42\n")
	assert.Contains(t, out.String(), "< Unable to find help for command 'nope'\n")
	assert.ErrorIs(t, s.StartCommandInput(console.NewPlain(in, out)), ErrServerClosed)
}

type stopper struct {
	unit.Base
}

func (s *stopper) Initialize(host unit.Host) error {
	host.Execute("shutdown")
	return s.Base.Initialize(host)
}

func TestStopDuringStartupIsHonored(t *testing.T) {
	s := newTestServer(t)
	ev := &events{}
	phys := &physics{log: ev}
	require.NoError(t, s.RegisterService(&stopper{}))
	require.NoError(t, s.RegisterComponent(phys))

	require.NoError(t, s.Start(context.Background()))
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("stop during startup ignored, state=%s", s.State())
	}

	assert.Equal(t, lifecycle.StateShutdown, s.State())
	assert.Zero(t, phys.Ticks())
	assert.Equal(t, []string{"init:physics", "down:physics"}, ev.list())
}
