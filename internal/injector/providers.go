package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/gamecore/internal/config"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/server"
	"github.com/zeusync/gamecore/internal/services/telemetry"
)

// App is everything cmd/server needs to run.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Server *server.Server
}

var ProviderSet = wire.NewSet(
	config.Load,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideServerConfig,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	logger, err := log.NewWithConfig(cfg.Logger())
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideServerConfig(cfg *config.Config) server.Config {
	return server.Config{
		Name:            cfg.Name,
		TickRate:        cfg.TickRate,
		AllowHostAccess: cfg.AllowHostAccess,
		MaxCatchUp:      cfg.MaxCatchUp,
		TimerResolution: cfg.TimerResolution,
	}
}

// ProvideServer builds the server and registers the optional services the
// configuration enables.
func ProvideServer(cfg *config.Config, serverConfig server.Config, logger log.Log, opts []server.Option) (*server.Server, error) {
	srv, err := server.New(serverConfig, logger, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry.PerfCSV != "" {
		if err := srv.RegisterService(telemetry.NewRecorder(cfg.Telemetry.PerfCSV)); err != nil {
			return nil, fmt.Errorf("register telemetry: %w", err)
		}
	}
	return srv, nil
}
