package postgres

import (
	"context"
	"fmt"
	"time"

	"fibo_bot/internal/modules/config"
	"fibo_bot/pkg/db"
	"fibo_bot/pkg/logger"

	"go.uber.org/fx"
)

// Module пул postgres для журнала. Подключается только при ledger.driver=postgres.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN:            cfg.DB,
					MaxConns:       cfg.DBMaxConns,
					ConnectTimeout: 10 * time.Second,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				m := db.NewPgTxManager(poolMaster)
				if err := m.Ping(ctx); err != nil {
					m.Close()
					return nil, fmt.Errorf("postgres ping: %w", err)
				}
				logger.Info("postgres ledger pool ready")
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						m.Close()
						return nil
					},
				})
				return m, nil
			},
			fx.Annotate(
				func(m *db.PgTxManager) *db.PgTxManager { return m },
				fx.As(new(db.TxManager)),
			),
		),
	)
}
