package operations

import (
	"context"

	"github.com/go-core-fx/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"operations",
		logger.WithNamedLogger("operations"),
		fx.Provide(NewJournal, fx.Private),
		fx.Provide(func() *Metrics {
			return NewMetrics(prometheus.DefaultRegisterer)
		}, fx.Private),
		fx.Provide(
			fx.Annotate(NewLogNotifier, fx.As(new(Notifier))),
			fx.Private,
		),
		fx.Provide(NewRunner),
		fx.Provide(NewHistory),
		fx.Invoke(func(runner *Runner, logger *zap.Logger, lifecycle fx.Lifecycle) {
			lifecycle.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					logger.Info("waiting for running operations")
					runner.Close()

					idle := make(chan struct{})
					go func() {
						runner.Wait()
						close(idle)
					}()

					select {
					case <-idle:
						return nil
					case <-ctx.Done():
						logger.Warn("operations still running at shutdown")
						return ctx.Err()
					}
				},
			})
		}),
	)
}
