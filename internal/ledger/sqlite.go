package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fibo_bot/internal/models"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore локальный журнал в одном файле.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// один писатель, иначе "database is locked"
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Scan(ctx context.Context, marketID string) (out []models.LedgerRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.Scan: %w", err)
		}
	}()

	q := `SELECT ` + columns + ` FROM positions`
	var args []any
	if marketID != "" {
		q += ` WHERE market_id = ?`
		args = append(args, marketID)
	}
	q += ` ORDER BY opened_at, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
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

func (s *SQLiteStore) Put(ctx context.Context, rec models.LedgerRecord) (_ models.LedgerRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.Put: %w", err)
		}
	}()

	rec = prepare(rec, s.now())
	pp, err := sonic.MarshalString(rec.PricePoints)
	if err != nil {
		return rec, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO positions (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.MarketID, rec.DealID, string(rec.Status), string(rec.Direction),
		rec.OpeningPrice, rec.Size, rec.StopLoss, rec.TakeProfit,
		pp, rec.TrailingStopRating, rec.OpenedAt, rec.UpdatedAt,
	)
	return rec, err
}

func (s *SQLiteStore) Update(ctx context.Context, id string, field Field, value any) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.Update: %w", err)
		}
	}()

	v, err := checkValue(field, value)
	if err != nil {
		return err
	}
	if st, ok := v.(models.LedgerStatus); ok {
		v = string(st)
	}

	// имя колонки берётся только из закрытого Field
	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET `+string(field)+` = ?, updated_at = ? WHERE id = ?`,
		v, s.now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
