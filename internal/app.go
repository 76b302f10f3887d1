package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"github.com/repokit/repokit/internal/auth"
	"github.com/repokit/repokit/internal/config"
	"github.com/repokit/repokit/internal/git"
	"github.com/repokit/repokit/internal/operations"
	"github.com/repokit/repokit/internal/repos"
	"github.com/repokit/repokit/internal/server"
	"github.com/repokit/repokit/internal/workspace"
	"github.com/repokit/repokit/pkg/badgerfx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run() {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		healthfx.Module(),
		fiberfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		//
		// BUSINESS MODULES
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: "0.1.0", ReleaseID: 1} }),
		auth.Module(),
		git.Module(),
		workspace.Module(),
		operations.Module(),
		repos.Module(),
		server.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("repokit starting up")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("repokit shutting down")
					return nil
				},
			})
		}),
	).Run()
}
