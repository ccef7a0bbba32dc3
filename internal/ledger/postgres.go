package ledger

import (
	"context"
	"fmt"
	"time"

	"fibo_bot/internal/models"
	"fibo_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
)

// PostgresStore журнал в общей базе, запись через транзакции PgTxManager.
type PostgresStore struct {
	db  db.TxManager
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(tx db.TxManager) *PostgresStore {
	return &PostgresStore{db: tx, now: time.Now}
}

// Migrate создаёт таблицу, если её нет.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, PostgresSchema)
		return err
	})
}

func (p *PostgresStore) Scan(ctx context.Context, marketID string) (out []models.LedgerRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Scan: %w", err)
		}
	}()

	q := `SELECT ` + columns + ` FROM positions`
	var args []any
	if marketID != "" {
		q += ` WHERE market_id = $1`
		args = append(args, marketID)
	}
	q += ` ORDER BY opened_at, id`

	rows, err := p.db.Conn().Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Put(ctx context.Context, rec models.LedgerRecord) (_ models.LedgerRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Put: %w", err)
		}
	}()

	rec = prepare(rec, p.now())
	pp, err := sonic.MarshalString(rec.PricePoints)
	if err != nil {
		return rec, err
	}

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO positions (`+columns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				trailing_stop_rating = EXCLUDED.trailing_stop_rating,
				price_points = EXCLUDED.price_points,
				updated_at = EXCLUDED.updated_at`,
			rec.ID, rec.Source, rec.MarketID, rec.DealID, string(rec.Status), string(rec.Direction),
			rec.OpeningPrice, rec.Size, rec.StopLoss, rec.TakeProfit,
			pp, int16(rec.TrailingStopRating), rec.OpenedAt, rec.UpdatedAt,
		)
		return err
	})
	return rec, err
}

func (p *PostgresStore) Update(ctx context.Context, id string, field Field, value any) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Update: %w", err)
		}
	}()

	v, err := checkValue(field, value)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case models.LedgerStatus:
		v = string(x)
	case int:
		v = int16(x)
	}

	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx,
			`UPDATE positions SET `+string(field)+` = $1, updated_at = $2 WHERE id = $3`,
			v, p.now().UTC(), id,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil
	})
}
