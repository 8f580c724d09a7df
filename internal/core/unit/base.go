package unit

import "github.com/zeusync/gamecore/internal/core/observability/log"

// Base gives embedding types no-op lifecycle methods and keeps the host and
// scoped logger handed over at initialization.
type Base struct {
	host   Host
	logger log.Log
}

func (b *Base) Initialize(host Host) error {
	b.host = host
	b.logger = host.Logger()
	return nil
}

func (b *Base) Shutdown() error { return nil }

func (b *Base) Host() Host { return b.host }

// Logger returns the unit logger, or a discarding logger before Initialize.
func (b *Base) Logger() log.Log {
	if b.logger == nil {
		return log.NewNop()
	}
	return b.logger
}

// BaseComponent is Base plus a no-op Tick.
type BaseComponent struct {
	Base
}

func (c *BaseComponent) Tick(float64) {}

var (
	_ Service   = (*Base)(nil)
	_ Component = (*BaseComponent)(nil)
)
