package bootstrap

import (
	"context"

	bootstrap "fibo_bot/internal/modules/bootstrap/service"
	strategy "fibo_bot/internal/modules/strategy/service"
	"fibo_bot/pkg/logger"

	"go.uber.org/fx"
)

// Module прогрев истории на старте serve. Ошибки прогрева не валят приложение:
// цикл сам догрузит историю при первом проходе.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			bootstrap.NewWarmuper, // -> *bootstrap.Warmuper
		),
		fx.Invoke(func(lc fx.Lifecycle, reg *strategy.Registry, wu *bootstrap.Warmuper) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					n, err := wu.Warmup(ctx, reg.All())
					if err != nil {
						logger.Warn("[BOOT] warmup error: %v", err)
						return nil
					}
					logger.Info("[BOOT] warmup done: %d instruments", n)
					return nil
				},
			})
		}),
	)
}
