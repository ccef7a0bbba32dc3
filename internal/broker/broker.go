package broker

import (
	"context"

	"fibo_bot/internal/models"
)

// Broker торговый API. Каждое изменяющее действие возвращается только после чтения подтверждения.
type Broker interface {
	MarketSnapshot(ctx context.Context, marketID string) (models.MarketSnapshot, error)
	Account(ctx context.Context) (models.AccountState, error)
	OpenPositions(ctx context.Context, marketID string) ([]models.OpenPosition, error)
	CreatePosition(ctx context.Context, req OrderRequest) (Deal, error)
	ClosePosition(ctx context.Context, pos models.OpenPosition) (Deal, error)
	CloseAll(ctx context.Context, marketID string) ([]Deal, error)
	EditPosition(ctx context.Context, req EditRequest) (Deal, error)
}

// PriceSource отдаёт последние бары по инструменту.
type PriceSource interface {
	Prices(ctx context.Context, marketID, resolution string, max int) ([]models.PriceBar, error)
}

type OrderRequest struct {
	MarketID   string
	Direction  models.Direction
	Size       float64
	StopLevel  float64
	LimitLevel float64
	Currency   string
}

type EditRequest struct {
	DealID            string
	StopLevel         float64
	LimitLevel        *float64
	TrailingStop      bool
	TrailingDistance  float64
	TrailingIncrement float64
}

// Deal подтверждённая сделка.
type Deal struct {
	Reference  string
	DealID     string
	MarketID   string
	Status     string
	Direction  models.Direction
	Level      float64
	Size       float64
	StopLevel  *float64
	LimitLevel *float64
}
