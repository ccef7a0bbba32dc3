package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fibo_bot/internal/models"
)

// MemoryStore журнал в памяти: dry-run и тесты.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	data  map[string]models.LedgerRecord
	now   func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]models.LedgerRecord),
		now:  time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Scan(_ context.Context, marketID string) ([]models.LedgerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.LedgerRecord, 0, len(m.order))
	for _, id := range m.order {
		rec := m.data[id]
		if marketID != "" && rec.MarketID != marketID {
			continue
		}
		rec.PricePoints = append([]float64(nil), rec.PricePoints...)
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, rec models.LedgerRecord) (models.LedgerRecord, error) {
	rec = prepare(rec, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[rec.ID]; !ok {
		m.order = append(m.order, rec.ID)
	}
	m.data[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, field Field, value any) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("memory.Update: %w", err)
		}
	}()

	v, err := checkValue(field, value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	switch field {
	case FieldTrailingStopRating:
		rec.TrailingStopRating = v.(int)
	case FieldStatus:
		rec.Status = v.(models.LedgerStatus)
	}
	rec.UpdatedAt = m.now().UTC()
	m.data[id] = rec
	return nil
}
