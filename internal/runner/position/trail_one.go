package position

import (
	"context"
	"fmt"
	"math"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
)

const (
	RatingNone    = 0
	RatingOrigin  = 1 // стоп подтянут к началу волны
	RatingTrailed = 2 // терминальный: включён трейлинг от текущей цены

	extensionTrigger = 0.2
	giveBack         = 0.4
)

type TrailInput struct {
	Direction   models.Direction
	PricePoints []float64
	Rating      int
	Bid         *float64
	Offer       *float64
}

type TrailDecision struct {
	Move             bool
	NewRating        int
	StopLevel        float64
	TrailingDistance float64
	Mid              float64
	Extension        float64
	Reason           string
}

// NormalizeRating: старые записи без рейтинга и мусор считаем 0.
func NormalizeRating(r int) int {
	if r < RatingNone || r > RatingTrailed {
		return RatingNone
	}
	return r
}

// EvaluateTrail решает, двигать ли стоп. Рейтинг никогда не уменьшается.
func EvaluateTrail(in TrailInput) TrailDecision {
	rating := NormalizeRating(in.Rating)
	dec := TrailDecision{NewRating: rating}

	if rating == RatingTrailed {
		dec.Reason = "already at rating 2"
		return dec
	}
	if in.Bid == nil || in.Offer == nil {
		dec.Reason = "no bid/offer"
		return dec
	}
	if !in.Direction.Valid() {
		dec.Reason = "unknown direction"
		return dec
	}
	if len(in.PricePoints) < 2 {
		dec.Reason = fmt.Sprintf("need 2 price points, have %d", len(in.PricePoints))
		return dec
	}

	pp0, pp1 := in.PricePoints[0], in.PricePoints[1]
	mid := (*in.Bid + *in.Offer) / 2
	dec.Mid = mid

	// цена ещё не прошла прошлый экстремум
	if (in.Direction == models.DirectionBuy && mid < pp1) ||
		(in.Direction == models.DirectionSell && mid > pp1) {
		dec.Reason = fmt.Sprintf("price %.2f has not crossed %.2f", mid, pp1)
		return dec
	}
	wave := math.Abs(pp1 - pp0)
	if wave == 0 {
		dec.Reason = "zero wave length"
		return dec
	}
	dec.Extension = (math.Abs(mid-pp0) - wave) / wave

	switch {
	case dec.Extension > extensionTrigger:
		stop := mid - giveBack*wave
		if in.Direction == models.DirectionSell {
			stop = mid + giveBack*wave
		}
		dec.Move = true
		dec.NewRating = RatingTrailed
		dec.StopLevel = helper.Round2(stop)
		dec.TrailingDistance = math.Ceil(giveBack*wave) + 1
		dec.Reason = fmt.Sprintf("extension %.3f > %.1f", dec.Extension, extensionTrigger)
	case rating == RatingNone:
		dec.Move = true
		dec.NewRating = RatingOrigin
		dec.StopLevel = helper.Round2(pp0)
		dec.TrailingDistance = math.Ceil(math.Abs(mid-dec.StopLevel)) + 1
		dec.Reason = fmt.Sprintf("crossed %.2f, stop to wave origin", pp1)
	default:
		dec.Reason = fmt.Sprintf("extension %.3f <= %.1f at rating %d", dec.Extension, extensionTrigger, rating)
	}
	return dec
}

// Editor часть брокера, нужная для трейлинга.
type Editor interface {
	EditPosition(ctx context.Context, req broker.EditRequest) (broker.Deal, error)
}

// ApplyTrail отправляет правку позиции. Новый рейтинг возвращается только после
// подтверждения брокера, иначе старый рейтинг и ошибка.
func ApplyTrail(ctx context.Context, ed Editor, pos models.OpenPosition, current int, dec TrailDecision) (int, error) {
	if !dec.Move {
		return current, nil
	}
	_, err := ed.EditPosition(ctx, broker.EditRequest{
		DealID:            pos.DealID,
		StopLevel:         dec.StopLevel,
		LimitLevel:        pos.LimitLevel,
		TrailingStop:      true,
		TrailingDistance:  dec.TrailingDistance,
		TrailingIncrement: 1,
	})
	if err != nil {
		return current, fmt.Errorf("ApplyTrail %s: %w", pos.DealID, err)
	}
	return dec.NewRating, nil
}
