package server

import (
	"fmt"
	"time"

	"github.com/zeusync/gamecore/internal/core/tick"
)

// Config holds the construction parameters of a Server.
type Config struct {
	// Name is shown in logs and the status line.
	Name string
	// TickRate in ticks per second, within [tick.MinTickRate, tick.MaxTickRate].
	TickRate int
	// AllowHostAccess opens the full Lua standard library (io, os, ...) to
	// operator commands. Off by default.
	AllowHostAccess bool

	// MaxCatchUp is the number of consecutive catch-up cycles after which an
	// overload is reported.
	MaxCatchUp int
	// TimerResolution is the shortest wait the scheduler arms a timer for.
	TimerResolution time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		Name:            "Game Server",
		TickRate:        tick.MinTickRate,
		MaxCatchUp:      tick.DefaultMaxCatchUp,
		TimerResolution: tick.DefaultResolution,
	}
}

func (c Config) Validate() error {
	if c.TickRate < tick.MinTickRate || c.TickRate > tick.MaxTickRate {
		return fmt.Errorf("%w: %w: got %d, want [%d, %d]",
			ErrInvalidConfig, tick.ErrInvalidTickRate, c.TickRate, tick.MinTickRate, tick.MaxTickRate)
	}
	if c.MaxCatchUp < 0 {
		return fmt.Errorf("%w: negative max catch-up %d", ErrInvalidConfig, c.MaxCatchUp)
	}
	if c.TimerResolution < 0 {
		return fmt.Errorf("%w: negative timer resolution %s", ErrInvalidConfig, c.TimerResolution)
	}
	return nil
}
