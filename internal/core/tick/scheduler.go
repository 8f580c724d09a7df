// Package tick implements the fixed-rate simulation loop.
package tick

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zeusync/gamecore/internal/core/observability/log"
)

const (
	MinTickRate = 20
	MaxTickRate = 200

	// DefaultResolution is the shortest wait worth arming a timer for.
	DefaultResolution = time.Millisecond
	// DefaultMaxCatchUp bounds consecutive catch-up cycles before an
	// overload is reported.
	DefaultMaxCatchUp = 10
)

// Pass advances every component by one cycle.
type Pass interface {
	TickAll(deltaTime float64)
}

// PassFunc adapts a function to Pass.
type PassFunc func(deltaTime float64)

func (f PassFunc) TickAll(deltaTime float64) { f(deltaTime) }

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Ticks     uint64
	CatchUps  uint64
	Overloads uint64
	LastDelta time.Duration
	LastCost  time.Duration
}

type Option func(*Scheduler)

func WithResolution(d time.Duration) Option {
	return func(s *Scheduler) { s.resolution = d }
}

func WithMaxCatchUp(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxCatchUp = n
		}
	}
}

func WithLogger(logger log.Log) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// Scheduler runs a Pass at a fixed rate. Each cycle waits only for what is
// left of its period, measured against an absolute deadline, so an overrun
// or a late timer shortens the next wait and the long-run rate holds.
// When nothing is left, the next cycle starts immediately (catch-up).
type Scheduler struct {
	rate       int
	period     time.Duration
	resolution time.Duration
	maxCatchUp int
	logger     log.Log

	ticks     atomic.Uint64
	catchUps  atomic.Uint64
	overloads atomic.Uint64
	lastDelta atomic.Int64
	lastCost  atomic.Int64
}

func New(rate int, opts ...Option) (*Scheduler, error) {
	if rate < MinTickRate || rate > MaxTickRate {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTickRate, rate)
	}

	s := &Scheduler{
		rate:       rate,
		period:     time.Second / time.Duration(rate),
		resolution: DefaultResolution,
		maxCatchUp: DefaultMaxCatchUp,
		logger:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scheduler) Rate() int { return s.rate }

func (s *Scheduler) Period() time.Duration { return s.period }

func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:     s.ticks.Load(),
		CatchUps:  s.catchUps.Load(),
		Overloads: s.overloads.Load(),
		LastDelta: time.Duration(s.lastDelta.Load()),
		LastCost:  time.Duration(s.lastCost.Load()),
	}
}

// Run drives pass until ctx is done. Cancellation is observed at the top of
// a cycle and while waiting; a running pass is never interrupted.
func (s *Scheduler) Run(ctx context.Context, pass Pass) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	// The delta clock starts at the first cycle, which reports a zero delta.
	var previous, next time.Time
	streak := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		start := time.Now()
		if next.IsZero() || start.Sub(next) > s.period {
			next = start
		}
		next = next.Add(s.period)

		var delta time.Duration
		if !previous.IsZero() {
			delta = start.Sub(previous)
		}
		previous = start

		pass.TickAll(delta.Seconds())

		cost := time.Since(start)
		s.ticks.Add(1)
		s.lastDelta.Store(int64(delta))
		s.lastCost.Store(int64(cost))

		remaining := time.Until(next)
		if remaining <= s.resolution {
			s.catchUps.Add(1)
			streak++
			if streak >= s.maxCatchUp {
				s.overloads.Add(1)
				s.logger.Warn("Tick loop overloaded",
					log.Int("consecutive_catch_ups", streak),
					log.Duration("period", s.period),
					log.Duration("last_cost", cost))
				streak = 0
			}
			continue
		}
		streak = 0

		timer.Reset(remaining)
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil
		}
	}
}
