package ledger

import (
	"fmt"

	"fibo_bot/internal/models"

	"github.com/bytedance/sonic"
)

// rowScanner общий знаменатель *sql.Rows и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord читает одну строку positions в порядке columns.
// price_points приходит json-текстом (sqlite) или jsonb (postgres), рейтинг может быть NULL.
func scanRecord(row rowScanner) (models.LedgerRecord, error) {
	var (
		rec    models.LedgerRecord
		status string
		dir    string
		pp     []byte
		rating *int64
	)
	if err := row.Scan(
		&rec.ID, &rec.Source, &rec.MarketID, &rec.DealID, &status, &dir,
		&rec.OpeningPrice, &rec.Size, &rec.StopLoss, &rec.TakeProfit,
		&pp, &rating, &rec.OpenedAt, &rec.UpdatedAt,
	); err != nil {
		return models.LedgerRecord{}, err
	}

	rec.Status = models.LedgerStatus(status)
	rec.Direction = models.Direction(dir)
	if len(pp) > 0 {
		if err := sonic.Unmarshal(pp, &rec.PricePoints); err != nil {
			return models.LedgerRecord{}, fmt.Errorf("price_points of %s: %w", rec.ID, err)
		}
	}
	// NULL и мусор читаются как 0
	if rating != nil {
		rec.TrailingStopRating = normalizeRating(int(*rating))
	}
	rec.OpenedAt = rec.OpenedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
