package history

import (
	"fibo_bot/internal/history"
	"fibo_bot/internal/modules/config"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("history",
		fx.Provide(
			fx.Annotate(
				func(cfg *config.Config) (*history.CSVStore, error) { return history.NewCSV(cfg.History.Dir) },
				fx.As(new(history.Store)),
			),
		),
	)
}
