package server

import (
	"github.com/zeusync/gamecore/internal/core/events/bus"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/unit"
)

// hostView is the Server as seen by one unit.
type hostView struct {
	server *Server
	logger log.Log
}

var _ unit.Host = (*hostView)(nil)

func (s *Server) hostFor(u unit.Unit) unit.Host {
	return &hostView{
		server: s,
		logger: s.logger.Named(unitLoggerName(u)),
	}
}

func (h *hostView) Name() string { return h.server.config.Name }

func (h *hostView) TickRate() int { return h.server.config.TickRate }

func (h *hostView) Logger() log.Log { return h.logger }

func (h *hostView) Events() bus.EventBus { return h.server.events }

func (h *hostView) SetStatus(status string) { h.server.setStatus(status) }

func (h *hostView) Execute(command string) any { return h.server.Execute(command) }
