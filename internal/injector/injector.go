//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/gamecore/internal/config"
	"github.com/zeusync/gamecore/internal/server"
)

func InitializeApp(path config.Path, opts []server.Option) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
