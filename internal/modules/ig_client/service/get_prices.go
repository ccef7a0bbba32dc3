package service

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
)

const snapshotLayout = "2006/01/02 15:04:05"

// Prices последние max баров. Цена бара = среднее bid/ask; бары с пустой стороной пропускаются.
func (t *Trader) Prices(ctx context.Context, marketID, resolution string, max int) ([]models.PriceBar, error) {
	const op = "get_prices"

	if max <= 0 {
		max = 2
	}
	var out pricesResponse
	resp, err := t.req(ctx, "3").
		SetQueryParams(map[string]string{
			"resolution": helper.NormResolution(resolution),
			"max":        strconv.Itoa(max),
			"pageSize":   strconv.Itoa(max),
			"pageNumber": "1",
		}).
		Get("/prices/" + url.PathEscape(marketID))
	if err := t.call(op, resp, err, &out); err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(out.Prices))
	for _, p := range out.Prices {
		ts, ok := parseSnapshot(p.SnapshotTimeUTC, p.SnapshotTime)
		if !ok {
			continue
		}
		o, ok1 := midOf(p.OpenPrice)
		h, ok2 := midOf(p.HighPrice)
		l, ok3 := midOf(p.LowPrice)
		c, ok4 := midOf(p.ClosePrice)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue
		}
		bars = append(bars, models.PriceBar{Time: ts, Open: o, High: h, Low: l, Close: c, Volume: p.LastTradedVolume})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func midOf(p pricePair) (float64, bool) {
	if p.Bid == nil || p.Ask == nil {
		return 0, false
	}
	return (*p.Bid + *p.Ask) / 2, true
}

func parseSnapshot(utc, local string) (time.Time, bool) {
	if utc != "" {
		if ts, err := time.Parse("2006-01-02T15:04:05", utc); err == nil {
			return ts.UTC(), true
		}
	}
	if local != "" {
		if ts, err := time.Parse(snapshotLayout, local); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
