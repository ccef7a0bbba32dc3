package models

import "time"

// Direction как у брокера: "BUY"/"SELL" или пустая строка.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBuy:
		return DirectionSell
	case DirectionSell:
		return DirectionBuy
	}
	return DirectionNone
}

func (d Direction) Valid() bool { return d == DirectionBuy || d == DirectionSell }

// Signal результат одного прогона стратегии. Direction == DirectionNone означает "нет сигнала".
type Signal struct {
	MarketID       string
	Strategy       string
	Direction      Direction
	Close          float64
	StopLoss       float64
	TakeProfit     float64
	RiskMultiplier float64
	PricePoints    []float64
	Indicators     map[string]float64
	Reason         string
	Time           time.Time
}

func (s Signal) IsNone() bool { return !s.Direction.Valid() }

// NoSignal пустой сигнал с причиной, удобно для логов.
func NoSignal(marketID, strategy, reason string) Signal {
	return Signal{MarketID: marketID, Strategy: strategy, Reason: reason}
}
