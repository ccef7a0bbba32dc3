package strategy

import (
	"fibo_bot/internal/modules/strategy/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			service.NewRegistry, // *service.Registry
		),
	)
}
