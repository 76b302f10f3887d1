package repos

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"repos",
		logger.WithNamedLogger("repos"),
		fx.Provide(NewService),
	)
}
