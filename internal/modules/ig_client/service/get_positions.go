package service

import (
	"context"

	"fibo_bot/internal/models"
)

// OpenPositions открытые позиции по инструменту; пустой marketID отдаёт все.
func (t *Trader) OpenPositions(ctx context.Context, marketID string) ([]models.OpenPosition, error) {
	const op = "get_open_positions"

	var out positionsResponse
	resp, err := t.req(ctx, "2").Get("/positions")
	if err := t.call(op, resp, err, &out); err != nil {
		return nil, err
	}

	res := make([]models.OpenPosition, 0, len(out.Positions))
	for _, p := range out.Positions {
		if marketID != "" && p.Market.Epic != marketID {
			continue
		}
		res = append(res, models.OpenPosition{
			DealID:     p.Position.DealID,
			MarketID:   p.Market.Epic,
			Direction:  models.Direction(p.Position.Direction),
			Size:       p.Position.Size,
			Level:      p.Position.Level,
			StopLevel:  p.Position.StopLevel,
			LimitLevel: p.Position.LimitLevel,
		})
	}
	return res, nil
}
