package runner

import (
	healthsvc "fibo_bot/internal/modules/health/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewEngine, // *Engine
			fx.Annotate(
				func(s *healthsvc.State) *healthsvc.State { return s },
				fx.As(new(CycleObserver)),
			),
			NewCycle, // *Cycle
		),
	)
}
