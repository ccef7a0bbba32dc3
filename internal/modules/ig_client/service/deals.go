package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/models"
)

// confirm читает /confirms/{ref}; REJECTED превращается в RejectedError.
func (t *Trader) confirm(ctx context.Context, op, ref string) (broker.Deal, error) {
	if ref == "" {
		return broker.Deal{}, broker.Rejected(op, "empty deal reference")
	}

	var out confirmResponse
	resp, err := t.req(ctx, "1").Get("/confirms/" + url.PathEscape(ref))
	if err := t.call(op+".confirm", resp, err, &out); err != nil {
		return broker.Deal{}, err
	}
	if out.DealStatus != "ACCEPTED" {
		reason := out.Reason
		if reason == "" {
			reason = "dealStatus=" + out.DealStatus
		}
		return broker.Deal{}, broker.Rejected(op, reason)
	}

	return broker.Deal{
		Reference:  ref,
		DealID:     out.DealID,
		MarketID:   out.Epic,
		Status:     out.Status,
		Direction:  models.Direction(out.Direction),
		Level:      out.Level,
		Size:       out.Size,
		StopLevel:  out.StopLevel,
		LimitLevel: out.LimitLevel,
	}, nil
}

func (t *Trader) CreatePosition(ctx context.Context, r broker.OrderRequest) (broker.Deal, error) {
	const op = "create_position"

	if !r.Direction.Valid() || r.Size <= 0 {
		// до брокера запрос не дошёл, повтор ничего не даст
		return broker.Deal{}, broker.Rejected(op, fmt.Sprintf("invalid order direction=%q size=%.2f", r.Direction, r.Size))
	}
	body := map[string]any{
		"epic":           r.MarketID,
		"expiry":         "-",
		"direction":      r.Direction,
		"size":           r.Size,
		"orderType":      "MARKET",
		"timeInForce":    "FILL_OR_KILL",
		"guaranteedStop": false,
		"forceOpen":      true,
		"stopLevel":      r.StopLevel,
		"limitLevel":     r.LimitLevel,
		"currencyCode":   r.Currency,
	}

	var out dealReferenceResponse
	resp, err := t.req(ctx, "2").SetBody(body).Post("/positions/otc")
	if err := t.call(op, resp, err, &out); err != nil {
		return broker.Deal{}, err
	}
	return t.confirm(ctx, op, out.DealReference)
}

// ClosePosition закрывает одну позицию встречной рыночной сделкой.
func (t *Trader) ClosePosition(ctx context.Context, p models.OpenPosition) (broker.Deal, error) {
	const op = "close_position"

	body := map[string]any{
		"dealId":      p.DealID,
		"direction":   p.Direction.Opposite(),
		"size":        p.Size,
		"orderType":   "MARKET",
		"timeInForce": "FILL_OR_KILL",
	}

	var out dealReferenceResponse
	// IG не принимает тело у DELETE, поэтому POST с _method
	resp, err := t.req(ctx, "1").
		SetHeader("_method", "DELETE").
		SetBody(body).
		Post("/positions/otc")
	if err := t.call(op, resp, err, &out); err != nil {
		return broker.Deal{}, err
	}
	return t.confirm(ctx, op, out.DealReference)
}

// CloseAll закрывает все позиции инструмента по одной. Возвращает то, что успели закрыть.
func (t *Trader) CloseAll(ctx context.Context, marketID string) ([]broker.Deal, error) {
	positions, err := t.OpenPositions(ctx, marketID)
	if err != nil {
		return nil, err
	}

	var (
		closed []broker.Deal
		errs   []error
	)
	for _, p := range positions {
		d, err := t.ClosePosition(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.DealID, err))
			continue
		}
		if d.DealID == "" {
			d.DealID = p.DealID
		}
		closed = append(closed, d)
	}
	return closed, errors.Join(errs...)
}

func (t *Trader) EditPosition(ctx context.Context, r broker.EditRequest) (broker.Deal, error) {
	const op = "edit_position"

	body := map[string]any{
		"stopLevel":      r.StopLevel,
		"limitLevel":     r.LimitLevel,
		"guaranteedStop": false,
		"trailingStop":   r.TrailingStop,
	}
	if r.TrailingStop {
		body["trailingStopDistance"] = r.TrailingDistance
		body["trailingStopIncrement"] = r.TrailingIncrement
	}

	var out dealReferenceResponse
	resp, err := t.req(ctx, "2").SetBody(body).Put("/positions/otc/" + url.PathEscape(r.DealID))
	if err := t.call(op, resp, err, &out); err != nil {
		return broker.Deal{}, err
	}
	return t.confirm(ctx, op, out.DealReference)
}
