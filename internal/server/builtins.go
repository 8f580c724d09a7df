package server

import "github.com/zeusync/gamecore/internal/core/command"

func (s *Server) builtinCommands() []command.Method {
	return []command.Method{
		command.New("describeCommand", command.Func1(s.describe)).
			Doc("Formatted help for a command, nil when it does not exist.").
			Param("name", "Command name."),
		command.New("listCommands", command.Func0(s.ListCommands)).
			Doc("Names of every registered command in registration order."),
		command.New("tickStats", command.Func0(s.tickStats)).
			Doc("Scheduler counters: ticks, catch-ups, overloads and the last delta and cost in seconds."),
		command.New("shutdown", command.Action0(s.Stop)).
			Doc("Stops the tick loop and shuts the server down."),
	}
}

func (s *Server) describe(name string) any {
	d, ok := s.DescribeCommand(name)
	if !ok {
		return nil
	}
	return d.String()
}

func (s *Server) tickStats() map[string]any {
	st := s.scheduler.Stats()
	return map[string]any{
		"ticks":     st.Ticks,
		"catchUps":  st.CatchUps,
		"overloads": st.Overloads,
		"lastDelta": st.LastDelta.Seconds(),
		"lastCost":  st.LastCost.Seconds(),
	}
}
