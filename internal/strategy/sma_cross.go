package strategy

import (
	"fmt"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
)

// SMACross пересечение быстрой и медленной SMA на последнем баре.
type SMACross struct {
	p Params
}

var _ Strategy = (*SMACross)(nil)

func NewSMACross(p Params) *SMACross {
	if p.SMALookback <= 0 {
		p.SMALookback = 20
	}
	return &SMACross{p: p}
}

func (s *SMACross) Name() string { return string(KindSMACross) }

func (s *SMACross) Evaluate(marketID string, bars []models.PriceBar) models.Signal {
	n := len(bars)
	if n < s.p.SMASlow+1 {
		return models.NoSignal(marketID, s.Name(), fmt.Sprintf("need %d bars, have %d", s.p.SMASlow+1, n))
	}
	last := bars[n-1]

	fast, fastPrev := sma(bars, s.p.SMAFast, n), sma(bars, s.p.SMAFast, n-1)
	slow, slowPrev := sma(bars, s.p.SMASlow, n), sma(bars, s.p.SMASlow, n-1)

	sig := models.Signal{
		MarketID:       marketID,
		Strategy:       s.Name(),
		Close:          last.Close,
		Time:           last.Time,
		RiskMultiplier: s.p.MaxDrawdownMultiplier,
		Indicators: map[string]float64{
			"sma_fast": helper.Round2(fast),
			"sma_slow": helper.Round2(slow),
		},
	}

	lookback := bars[max(0, n-s.p.SMALookback):]
	hi, lo := maxHigh(lookback), minLow(lookback)
	rng := hi - lo

	switch {
	case fastPrev <= slowPrev && fast > slow:
		sig.Direction = models.DirectionBuy
		sig.StopLoss = helper.Round2(lo * 0.99)
		sig.TakeProfit = helper.Round2(last.Close + 1.5*rng)
		sig.PricePoints = helper.Round2All([]float64{lo, last.Close, lo})
		sig.Reason = "bullish crossing"
	case fastPrev >= slowPrev && fast < slow:
		sig.Direction = models.DirectionSell
		sig.StopLoss = helper.Round2(hi * 1.01)
		sig.TakeProfit = helper.Round2(last.Close - 1.5*rng)
		sig.PricePoints = helper.Round2All([]float64{hi, last.Close, hi})
		sig.Reason = "bearish crossing"
	default:
		sig.Reason = "no crossing"
	}
	return sig
}

// sma средняя close по n барам, заканчивая bars[end-1].
func sma(bars []models.PriceBar, n, end int) float64 {
	var sum float64
	for _, b := range bars[end-n : end] {
		sum += b.Close
	}
	return sum / float64(n)
}

func maxHigh(bars []models.PriceBar) float64 {
	m := bars[0].High
	for _, b := range bars[1:] {
		m = max(m, b.High)
	}
	return m
}

func minLow(bars []models.PriceBar) float64 {
	m := bars[0].Low
	for _, b := range bars[1:] {
		m = min(m, b.Low)
	}
	return m
}
