package server

import (
	"context"

	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-core-fx/fiberfx/health"
	"github.com/go-core-fx/fiberfx/validation"
	"github.com/go-core-fx/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/repokit/repokit/internal/auth"
	"github.com/repokit/repokit/internal/operations"
	handlersops "github.com/repokit/repokit/internal/server/handlers/operations"
	"github.com/repokit/repokit/internal/server/handlers/repositories"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"server",
		logger.WithNamedLogger("server"),

		fx.Provide(func(log *zap.Logger) fiberfx.Options {
			opts := fiberfx.Options{}
			opts.WithErrorHandler(fiberfx.NewJSONErrorHandler(log))
			opts.WithMetrics()
			return opts
		}),

		// Requests share one owner; closing it on shutdown discards results
		// of operations still running.
		fx.Provide(func(lc fx.Lifecycle) *operations.Owner {
			owner := operations.NewOwner(operations.Inline{}, nil)
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					owner.Close()
					return nil
				},
			})
			return owner
		}, fx.Private),

		fx.Provide(
			fx.Annotate(health.NewHandler, fx.ResultTags(`name:"health-handler"`)), fx.Private,
			fx.Annotate(repositories.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
			fx.Annotate(handlersops.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
		),

		fx.Invoke(
			fx.Annotate(
				func(
					handlers []handler.Handler,
					healthHandler handler.Handler,
					authSvc *auth.Service,
					app *fiber.App,
				) {
					// Health endpoint
					healthHandler.Register(app)

					// Version 1 API group
					v1 := app.Group("/api/v1")
					v1.Use(newAuthMiddleware(authSvc))
					v1.Use(validation.Middleware)

					for _, h := range handlers {
						h.Register(v1)
					}
				},
				fx.ParamTags(`group:"handlers"`, `name:"health-handler"`),
			),
		),
	)
}
