package position

import (
	"errors"
	"fmt"
	"math"

	"fibo_bot/internal/models"
)

// Доля доступных средств, которую разрешено занять маржой.
const marginHeadroom = 0.8

var (
	ErrNoReferencePrice    = errors.New("reference price is missing")
	ErrInvalidStopDistance = errors.New("stop distance must be positive")
	ErrInvalidInput        = errors.New("sizing input is not a finite number")
)

type SizeInput struct {
	Direction             models.Direction
	StopLoss              float64
	MaxDrawdownMultiplier float64
	Market                models.MarketSnapshot
	Account               models.AccountState
}

type SizeResult struct {
	ReferencePrice float64
	StopDistance   float64
	MaxDrawdown    float64
	RawSize        float64
	MarginUsed     float64
	Capped         bool
	Size           float64
}

func (r SizeResult) String() string {
	return fmt.Sprintf("ref=%.2f stop_dist=%.2f max_dd=%.2f raw=%.2f margin=%.2f capped=%t size=%.0f",
		r.ReferencePrice, r.StopDistance, r.MaxDrawdown, r.RawSize, r.MarginUsed, r.Capped, r.Size)
}

// CalcSizeByRisk считает размер позиции в единицах брокера:
//  1. stop_dist = max(|ref - sl|, min_stop_distance)
//  2. max_dd    = balance * mdm
//  3. raw       = max_dd / stop_dist
//  4. margin    = raw * ref * margin_factor / 100
//  5. если margin > available * 0.8, размер пересчитывается из маржи
//  6. size      = max(1, floor(size))
//
// ref это offer для покупки и bid для продажи.
func CalcSizeByRisk(in SizeInput) (SizeResult, error) {
	ref, ok := in.Market.ReferencePrice(in.Direction)
	if !ok {
		return SizeResult{}, fmt.Errorf("CalcSizeByRisk %s %s: %w", in.Market.MarketID, in.Direction, ErrNoReferencePrice)
	}

	res := SizeResult{ReferencePrice: ref}

	// 1) дистанция стопа не меньше минимальной у брокера
	res.StopDistance = math.Max(math.Abs(ref-in.StopLoss), in.Market.MinStopDistance)
	if res.StopDistance <= 0 || math.IsNaN(res.StopDistance) {
		return SizeResult{}, fmt.Errorf("CalcSizeByRisk %s: %w", in.Market.MarketID, ErrInvalidStopDistance)
	}

	if math.IsNaN(in.Account.Balance) || math.IsNaN(in.Account.Available) ||
		math.IsInf(in.Account.Balance, 0) || math.IsInf(in.Account.Available, 0) {
		return SizeResult{}, fmt.Errorf("CalcSizeByRisk %s: %w", in.Market.MarketID, ErrInvalidInput)
	}

	// 2) сколько готовы потерять
	res.MaxDrawdown = in.Account.Balance * in.MaxDrawdownMultiplier

	// 3) размер по риску
	res.RawSize = res.MaxDrawdown / res.StopDistance
	size := res.RawSize

	// 4-5) маржа и кэп
	res.MarginUsed = res.RawSize * ref * in.Market.MarginFactor / 100
	if limit := in.Account.Available * marginHeadroom; res.MarginUsed > limit {
		size = limit * 100 / (ref * in.Market.MarginFactor)
		res.Capped = true
	}

	// 6) минимум 1
	if math.IsNaN(size) {
		return SizeResult{}, fmt.Errorf("CalcSizeByRisk %s: size: %w", in.Market.MarketID, ErrInvalidInput)
	}
	res.Size = math.Max(1, math.Floor(size))
	return res, nil
}
