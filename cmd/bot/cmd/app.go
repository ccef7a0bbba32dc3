package cmd

import (
	"context"
	"fmt"

	"fibo_bot/internal/modules/config"
	"fibo_bot/internal/modules/history"
	igclient "fibo_bot/internal/modules/ig_client"
	"fibo_bot/internal/modules/ledger"
	"fibo_bot/internal/modules/notify"
	"fibo_bot/internal/modules/postgres"
	"fibo_bot/internal/modules/strategy"
	"fibo_bot/internal/runner"
	"fibo_bot/pkg/logger"

	"go.uber.org/fx"
)

// storeOptions конфиг и журнал. postgres подключаем только под свой драйвер:
// иначе fx поднимет пул даже для опциональной зависимости.
func storeOptions(c *config.Config) []fx.Option {
	opts := []fx.Option{
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(c),
		ledger.Module(),
	}
	if c.Ledger.Driver == config.LedgerPostgres {
		opts = append(opts, postgres.Module())
	}
	return opts
}

func appOptions(c *config.Config, extra ...fx.Option) []fx.Option {
	opts := append(storeOptions(c),
		igclient.Module(),
		history.Module(),
		notify.Module(),
		strategy.Module(),
		runner.Module(),
	)
	return append(opts, extra...)
}

// start поднимает приложение и отдаёт функцию остановки.
func start(ctx context.Context, app *fx.App) (func(), error) {
	if err := app.Err(); err != nil {
		return nil, err
	}
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Error("stop: %v", err)
		}
	}, nil
}
