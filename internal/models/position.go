package models

import "time"

// OpenPosition позиция на стороне брокера, источник правды.
type OpenPosition struct {
	DealID     string
	MarketID   string
	Direction  Direction
	Size       float64
	Level      float64
	StopLevel  *float64
	LimitLevel *float64
}

type LedgerStatus string

const (
	StatusOpened LedgerStatus = "OPENED"
	StatusClosed LedgerStatus = "CLOSED"
)

// LedgerRecord запись журнала позиций. Не удаляется, только обновляется.
type LedgerRecord struct {
	ID                 string
	Source             string
	MarketID           string
	DealID             string
	Status             LedgerStatus
	Direction          Direction
	OpeningPrice       float64
	Size               float64
	StopLoss           float64
	TakeProfit         float64
	PricePoints        []float64
	TrailingStopRating int
	OpenedAt           time.Time
	UpdatedAt          time.Time
}
