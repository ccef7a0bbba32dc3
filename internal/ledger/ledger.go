package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
	"fibo_bot/pkg/id"
)

// Field закрытый набор изменяемых полей записи.
type Field string

const (
	FieldTrailingStopRating Field = "trailing_stop_rating"
	FieldStatus             Field = "status"
)

var (
	ErrNotFound     = errors.New("ledger record not found")
	ErrUnknownField = errors.New("unknown ledger field")
	ErrBadValue     = errors.New("bad ledger value")
)

// Store журнал позиций. Записи не удаляются, меняются только поля из Field.
type Store interface {
	// Scan все записи по инструменту в порядке открытия; пустой marketID = все.
	Scan(ctx context.Context, marketID string) ([]models.LedgerRecord, error)
	Put(ctx context.Context, rec models.LedgerRecord) (models.LedgerRecord, error)
	Update(ctx context.Context, id string, field Field, value any) error
}

// prepare проставляет id и время перед записью.
func prepare(rec models.LedgerRecord, now time.Time) models.LedgerRecord {
	if rec.ID == "" {
		rec.ID = id.NewAt(now)
	}
	if rec.Status == "" {
		rec.Status = models.StatusOpened
	}
	if rec.OpenedAt.IsZero() {
		rec.OpenedAt = now
	}
	rec.OpenedAt = rec.OpenedAt.UTC()
	rec.UpdatedAt = now.UTC()
	rec.TrailingStopRating = normalizeRating(rec.TrailingStopRating)
	rec.PricePoints = helper.Round2All(rec.PricePoints)
	return rec
}

func normalizeRating(r int) int {
	if r < 0 || r > 2 {
		return 0
	}
	return r
}

// checkValue приводит значение к типу поля.
func checkValue(field Field, value any) (any, error) {
	switch field {
	case FieldTrailingStopRating:
		r, ok := value.(int)
		if !ok || r < 0 || r > 2 {
			return nil, fmt.Errorf("%w: %s=%v", ErrBadValue, field, value)
		}
		return r, nil
	case FieldStatus:
		var s models.LedgerStatus
		switch v := value.(type) {
		case models.LedgerStatus:
			s = v
		case string:
			s = models.LedgerStatus(v)
		}
		if s != models.StatusOpened && s != models.StatusClosed {
			return nil, fmt.Errorf("%w: %s=%v", ErrBadValue, field, value)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// FindOpened открытые записи по инструменту и направлению.
func FindOpened(records []models.LedgerRecord, marketID string, d models.Direction) []models.LedgerRecord {
	var out []models.LedgerRecord
	for _, r := range records {
		if r.Status == models.StatusOpened && r.MarketID == marketID && r.Direction == d {
			out = append(out, r)
		}
	}
	return out
}

// ByDeal записи по deal id, в любом статусе.
func ByDeal(records []models.LedgerRecord, dealID string) []models.LedgerRecord {
	var out []models.LedgerRecord
	for _, r := range records {
		if r.DealID == dealID {
			out = append(out, r)
		}
	}
	return out
}

func SamePricePoints(a, b []float64) bool {
	return helper.SamePricePoints(a, b)
}
