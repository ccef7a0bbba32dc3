package service

import (
	"context"
	"net/url"

	"fibo_bot/internal/models"
)

func (t *Trader) MarketSnapshot(ctx context.Context, marketID string) (models.MarketSnapshot, error) {
	const op = "get_market_details"

	var out marketResponse
	resp, err := t.req(ctx, "2").Get("/markets/" + url.PathEscape(marketID))
	if err := t.call(op, resp, err, &out); err != nil {
		return models.MarketSnapshot{}, err
	}

	snap := models.MarketSnapshot{
		MarketID:        marketID,
		MarginFactor:    out.Instrument.MarginFactor,
		MinStopDistance: out.DealingRules.MinNormalStopOrLimitDistance.Value,
		MarketStatus:    out.Snapshot.MarketStatus,
		Bid:             out.Snapshot.Bid,
		Offer:           out.Snapshot.Offer,
	}
	if len(out.Instrument.Currencies) > 0 {
		snap.Currency = out.Instrument.Currencies[0].Code
	}
	return snap, nil
}
