// Package server is the game server orchestrator: it owns the unit registry,
// the command bridge and the tick scheduler, and drives them through a single
// start/shutdown lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zeusync/gamecore/internal/components/debugger"
	"github.com/zeusync/gamecore/internal/console"
	"github.com/zeusync/gamecore/internal/core/command"
	"github.com/zeusync/gamecore/internal/core/events/bus"
	"github.com/zeusync/gamecore/internal/core/inject"
	"github.com/zeusync/gamecore/internal/core/lifecycle"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/script"
	"github.com/zeusync/gamecore/internal/core/tick"
	"github.com/zeusync/gamecore/internal/core/unit"
)

// Server represents a game server
type Server struct {
	config Config
	logger log.Log

	events    bus.EventBus
	interp    command.Interpreter
	units     *unit.Registry
	bridge    *command.Bridge
	scheduler *tick.Scheduler
	sequencer *lifecycle.Sequencer

	statusHook func(string)

	// Server state
	running       atomic.Bool
	closed        atomic.Bool
	fullyShutdown atomic.Bool
	stopRequested atomic.Bool

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	stopping bool
	runErr   error
	done     chan struct{}
	doneOnce sync.Once

	// Command input loops
	workers sync.WaitGroup
}

// New creates a server and registers the built-in commands and the debugger
// component. An out-of-range tick rate fails with ErrInvalidConfig.
func New(config Config, logger log.Log, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		config: config,
		logger: logger.With(log.String("server", config.Name)),
		units:  unit.NewRegistry(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = bus.New()
	}
	if s.interp == nil {
		s.interp = script.NewLua(script.Options{AllowHostAccess: config.AllowHostAccess})
	}
	if config.AllowHostAccess {
		s.logger.Warn("Interpreter has unrestricted host access")
	}

	tickOpts := []tick.Option{
		tick.WithMaxCatchUp(config.MaxCatchUp),
		tick.WithLogger(s.logger.Named("tick")),
	}
	if config.TimerResolution > 0 {
		tickOpts = append(tickOpts, tick.WithResolution(config.TimerResolution))
	}
	scheduler, err := tick.New(config.TickRate, tickOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.scheduler = scheduler

	s.bridge = command.NewBridge(command.NewRegistry(), s.interp, s.logger.Named("commands"))
	s.sequencer = lifecycle.New(
		s.units,
		inject.New(s.units, s.logger.Named("inject")),
		s.bridge,
		s.hostFor,
		s.events,
		s.logger.Named("lifecycle"),
	)

	if err = s.bridge.RegisterMethods("server", s.builtinCommands()); err != nil {
		return nil, fmt.Errorf("register built-in commands: %w", err)
	}
	if err = s.RegisterComponent(debugger.New()); err != nil {
		return nil, err
	}

	s.logger.Info("Server created",
		log.Int("tick_rate", config.TickRate),
		log.Bool("allow_host_access", config.AllowHostAccess))

	return s, nil
}

func (s *Server) Config() Config { return s.config }

func (s *Server) Events() bus.EventBus { return s.events }

// RegisterComponent adds c to the tick pass. Components are ticked in
// registration order.
func (s *Server) RegisterComponent(c unit.Component) error {
	if err := s.checkRegistration(c); err != nil {
		return err
	}
	if s.units.AddComponent(c) {
		s.logger.Warn("Component type registered more than once, lookups resolve the first",
			log.String("unit", unit.TypeName(c)))
	}
	return nil
}

func (s *Server) RegisterService(svc unit.Service) error {
	if err := s.checkRegistration(svc); err != nil {
		return err
	}
	if s.units.AddService(svc) {
		s.logger.Warn("Service type registered more than once, lookups resolve the first",
			log.String("unit", unit.TypeName(svc)))
	}
	return nil
}

func (s *Server) checkRegistration(u unit.Unit) error {
	if u == nil {
		return fmt.Errorf("%w: nil", ErrInvalidUnit)
	}
	if s.sequencer != nil && s.sequencer.State() != lifecycle.StateCreated {
		return fmt.Errorf("%w: %s", ErrRegistrationClosed, unit.TypeName(u))
	}
	return nil
}

// AddComponent registers a zero-valued T.
func AddComponent[T any, PT interface {
	*T
	unit.Component
}](s *Server) (PT, error) {
	c := PT(new(T))
	if err := s.RegisterComponent(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddService registers a zero-valued T.
func AddService[T any, PT interface {
	*T
	unit.Service
}](s *Server) (PT, error) {
	svc := PT(new(T))
	if err := s.RegisterService(svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// GetComponent returns the first registered component providing T.
func GetComponent[T any](s *Server) (T, error) {
	return unit.GetComponent[T](s.units)
}

// GetService returns the first registered service providing T.
func GetService[T any](s *Server) (T, error) {
	return unit.GetService[T](s.units)
}

// RegisterCommand binds a raw handler. The description is optional.
func (s *Server) RegisterCommand(name string, handler command.Handler, description *command.Description) error {
	if err := s.bridge.Register(name, handler, description); err != nil {
		return err
	}
	s.logger.Debug("Registered command", log.String("command", name))
	return nil
}

// Execute runs one line of operator input and returns its result, or nil
// when the command fails.
func (s *Server) Execute(command string) any {
	return s.bridge.Execute(command)
}

func (s *Server) DescribeCommand(name string) (command.Description, bool) {
	return s.bridge.Describe(name)
}

func (s *Server) ListCommands() []string {
	return s.bridge.List()
}

// Start brings every unit up and starts the tick loop. It returns once the
// loop is running; use Done to wait for it to stop. Cancelling ctx stops the
// server.
func (s *Server) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")
	if err := s.sequencer.Initialize(); err != nil {
		s.setStatus("Error")
		s.logger.Error("Server failed to start", log.Error(err))
		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()
		s.finish()
		return fmt.Errorf("start %s: %w", s.config.Name, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.ctx, s.cancel = runCtx, cancel
	s.mu.Unlock()
	// A stop requested while units were initializing ends the loop before
	// its first tick.
	if s.stopRequested.Load() {
		s.logger.Info("Shutdown requested during startup")
		cancel()
	}

	go s.run(runCtx)

	s.logger.Info("Server started successfully",
		log.Int("components", len(s.units.Components())),
		log.Int("services", len(s.units.Services())),
		log.Int("commands", len(s.bridge.List())))
	return nil
}

func (s *Server) run(ctx context.Context) {
	err := s.scheduler.Run(ctx, s.sequencer)
	if err != nil {
		s.logger.Error("Tick loop failed", log.Error(err))
	}

	stats := s.scheduler.Stats()
	s.logger.Info("Tick loop stopped",
		log.Uint64("ticks", stats.Ticks),
		log.Uint64("catch_ups", stats.CatchUps),
		log.Uint64("overloads", stats.Overloads))

	s.mu.Lock()
	s.stopping = true
	s.cancel()
	s.mu.Unlock()
	s.workers.Wait()

	if serr := s.sequencer.Shutdown(); serr != nil {
		err = errors.Join(err, serr)
	}

	s.mu.Lock()
	s.runErr = err
	s.mu.Unlock()
	s.finish()
	s.logger.Info("Server shut down")
}

func (s *Server) finish() {
	s.doneOnce.Do(func() {
		s.closed.Store(true)
		s.running.Store(false)
		s.fullyShutdown.Store(true)
		close(s.done)
	})
}

// Stop requests a cooperative shutdown and returns immediately. The tick in
// flight completes first; a request made during Start takes effect before
// the first tick.
func (s *Server) Stop() {
	s.stopRequested.Store(true)
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		if !s.running.Load() {
			s.finish()
		}
		return
	}
	s.logger.Info("Shutdown requested")
	cancel()
}

// Shutdown stops the server and waits until every unit and command input
// loop is down, or ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Stop()
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the server is fully shut down.
func (s *Server) Done() <-chan struct{} { return s.done }

// Err reports why the server stopped, nil for a clean shutdown.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr
}

func (s *Server) IsRunning() bool { return s.running.Load() && !s.closed.Load() }

func (s *Server) IsFullyShutdown() bool { return s.fullyShutdown.Load() }

func (s *Server) State() lifecycle.State { return s.sequencer.State() }

func (s *Server) TickStats() tick.Stats { return s.scheduler.Stats() }

// StartCommandInput runs an operator command loop over frontEnd until the
// server stops or the front end reaches EOF. The server waits for the loop
// before shutting its units down.
func (s *Server) StartCommandInput(frontEnd console.FrontEnd) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return ErrServerNotRunning
	}
	if s.stopping {
		return ErrServerClosed
	}

	loop := console.NewLoop(s, frontEnd, s.logger.Named("console"))
	ctx := s.ctx
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		if err := loop.Run(ctx); err != nil {
			s.logger.Error("Command input stopped", log.Error(err))
		}
	}()
	return nil
}

func (s *Server) setStatus(status string) {
	if s.statusHook == nil {
		return
	}
	s.statusHook(s.config.Name + " - " + status)
}

func unitLoggerName(u unit.Unit) string {
	return strings.TrimPrefix(unit.TypeName(u), "*")
}
