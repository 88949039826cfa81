//go:build wireinject

package replay

import (
	"github.com/google/wire"
	"github.com/spf13/afero"

	"github.com/wandb/tblogger/internal/observability"
	"github.com/wandb/tblogger/internal/tblogger"
)

func InjectLogger(
	opts tblogger.Options,
	fs afero.Fs,
	logger *observability.CoreLogger,
) (*tblogger.Logger, error) {
	wire.Build(loggerBindings)
	return &tblogger.Logger{}, nil
}

var loggerBindings = wire.NewSet(
	wire.Struct(new(tblogger.Params), "*"),
	tblogger.DefaultBackends,
	tblogger.New,
)
