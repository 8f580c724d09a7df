package command

import "github.com/zeusync/gamecore/internal/core/observability/log"

func nopLogger() log.Log { return log.NewNop() }
