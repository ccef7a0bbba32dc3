package strategy

import (
	"fibo_bot/internal/models"
	"fibo_bot/internal/swing"
)

// Kind закрытый набор стратегий. Новая стратегия = новый Kind + ветка в New.
type Kind string

const (
	KindRetracement Kind = "retracement"
	KindSMACross    Kind = "sma_cross"
)

// Strategy то, что дергает цикл: серия баров -> сигнал.
type Strategy interface {
	Name() string
	Evaluate(marketID string, bars []models.PriceBar) models.Signal
}

type Params struct {
	Swing swing.Params

	FiboLevelFrom         float64
	FiboLevelTo           float64
	TakeProfitMultiple    float64
	ZoneThickness         float64
	MaxDrawdownMultiplier float64

	SMAFast     int
	SMASlow     int
	SMALookback int
}

func DefaultParams() Params {
	return Params{
		Swing:                 swing.DefaultParams(),
		FiboLevelFrom:         0.3,
		FiboLevelTo:           0.5,
		TakeProfitMultiple:    1.5,
		ZoneThickness:         0.025,
		MaxDrawdownMultiplier: 0.02,
		SMAFast:               50,
		SMASlow:               200,
		SMALookback:           20,
	}
}
