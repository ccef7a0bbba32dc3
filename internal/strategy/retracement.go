package strategy

import (
	"fmt"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
	"fibo_bot/internal/swing"
	"fibo_bot/pkg/logger"
)

// Retracement вход на откате по уровням Фибоначчи после завершённой волны.
type Retracement struct {
	p Params
}

var _ Strategy = (*Retracement)(nil)

func NewRetracement(p Params) *Retracement {
	return &Retracement{p: p}
}

func (r *Retracement) Name() string { return string(KindRetracement) }

func (r *Retracement) Evaluate(marketID string, bars []models.PriceBar) models.Signal {
	if len(bars) == 0 {
		return models.NoSignal(marketID, r.Name(), "no bars")
	}
	last := bars[len(bars)-1]
	points := swing.Detect(bars, r.p.Swing)

	sig := EvaluateRetracement(points, last.Close, r.p)
	sig.MarketID = marketID
	sig.Strategy = r.Name()
	sig.Close = last.Close
	sig.Time = last.Time

	logger.Debug("retracement %s: %d swing points, direction=%q reason=%s", marketID, len(points), sig.Direction, sig.Reason)
	return sig
}

// EvaluateRetracement чистая функция: три последних экстремума + close -> сигнал.
func EvaluateRetracement(points []models.SwingPoint, close float64, p Params) models.Signal {
	entry, mid, prior, ok := swing.Last3(points)
	if !ok {
		return models.Signal{Reason: fmt.Sprintf("need 3 swing points, have %d", len(points))}
	}
	if mid.WaveLength == 0 {
		return models.Signal{Reason: "mid wave length is zero"}
	}

	long, longOK, longReason := evalSide(models.DirectionBuy, entry, mid, prior, close, p)
	short, shortOK, shortReason := evalSide(models.DirectionSell, entry, mid, prior, close, p)

	switch {
	case longOK && !shortOK:
		return long
	case shortOK && !longOK:
		return short
	case longOK && shortOK:
		return models.Signal{Reason: "both directions matched"}
	}

	reason := longReason
	if reason == "" {
		reason = shortReason
	}
	if reason == "" {
		reason = fmt.Sprintf("no retracement pattern: %s/%s/%s", entry.Kind, mid.Kind, prior.Kind)
	}
	return models.Signal{Reason: reason}
}

func evalSide(
	dir models.Direction,
	entry, mid, prior models.SwingPoint,
	close float64,
	p Params,
) (models.Signal, bool, string) {
	// long: T, P, T; short: P, T, P
	want := [3]models.SwingKind{models.SwingTrough, models.SwingPeak, models.SwingTrough}
	if dir == models.DirectionSell {
		want = [3]models.SwingKind{models.SwingPeak, models.SwingTrough, models.SwingPeak}
	}
	if entry.Kind != want[0] || mid.Kind != want[1] || prior.Kind != want[2] {
		return models.Signal{}, false, ""
	}

	ratio := entry.WaveLength / mid.WaveLength
	lo := p.FiboLevelFrom - p.ZoneThickness
	hi := p.FiboLevelTo + p.ZoneThickness
	if ratio < lo || ratio > hi {
		return models.Signal{}, false, fmt.Sprintf("%s: retracement %.3f outside [%.3f, %.3f]", dir, ratio, lo, hi)
	}

	var sl, tp float64
	var between bool
	if dir == models.DirectionBuy {
		sl = prior.Price - 0.2*mid.WaveLength
		tp = mid.Price + p.TakeProfitMultiple*mid.WaveLength
		between = close > sl && close < mid.Price
	} else {
		sl = prior.Price + 0.2*mid.WaveLength
		tp = mid.Price - p.TakeProfitMultiple*mid.WaveLength
		between = close < sl && close > mid.Price
	}
	if !between {
		return models.Signal{}, false, fmt.Sprintf("%s: close %.2f not between SL %.2f and %.2f", dir, close, sl, mid.Price)
	}

	return models.Signal{
		Direction:      dir,
		StopLoss:       helper.Round2(sl),
		TakeProfit:     helper.Round2(tp),
		RiskMultiplier: p.MaxDrawdownMultiplier,
		PricePoints:    helper.Round2All([]float64{entry.Price, mid.Price, prior.Price}),
		Reason:         fmt.Sprintf("%s: retracement %.3f within band", dir, ratio),
	}, true, ""
}
