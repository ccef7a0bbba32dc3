package ledger

import (
	"context"
	"fmt"

	"fibo_bot/internal/ledger"
	"fibo_bot/internal/modules/config"
	"fibo_bot/pkg/db"
	"fibo_bot/pkg/logger"

	"go.uber.org/fx"
)

type Params struct {
	fx.In

	LC  fx.Lifecycle
	Cfg *config.Config
	DB  db.TxManager `optional:"true"`
}

// NewStore выбирает журнал по ledger.driver.
func NewStore(p Params) (ledger.Store, error) {
	switch p.Cfg.Ledger.Driver {
	case config.LedgerMemory:
		logger.Warn("ledger: memory driver, records are lost on exit")
		return ledger.NewMemory(), nil
	case config.LedgerSQLite:
		s, err := ledger.NewSQLite(p.Cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("ledger sqlite %s: %w", p.Cfg.Ledger.Path, err)
		}
		p.LC.Append(fx.Hook{
			OnStop: func(context.Context) error { return s.Close() },
		})
		return s, nil
	case config.LedgerPostgres:
		if p.DB == nil {
			return nil, fmt.Errorf("ledger postgres: postgres module is not wired")
		}
		s := ledger.NewPostgres(p.DB)
		p.LC.Append(fx.Hook{
			OnStart: func(ctx context.Context) error { return s.Migrate(ctx) },
		})
		return s, nil
	default:
		return nil, fmt.Errorf("%w: ledger driver %q", config.ErrInvalidConfig, p.Cfg.Ledger.Driver)
	}
}

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(NewStore),
	)
}
