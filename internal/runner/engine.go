package runner

import (
	"context"
	"time"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/helper"
	"fibo_bot/internal/ledger"
	"fibo_bot/internal/models"
	"fibo_bot/internal/runner/position"
	"fibo_bot/pkg/tracing"
)

// Engine сводит сигнал, позиции брокера и журнал. Единственный компонент с побочными эффектами.
// Порядок всегда: запрос брокеру -> подтверждение -> запись в журнал.
type Engine struct {
	b      broker.Broker
	ledger ledger.Store
	now    func() time.Time
}

func NewEngine(b broker.Broker, l ledger.Store) *Engine {
	return &Engine{b: b, ledger: l, now: time.Now}
}

// marketState состояние рынка и счёта, прочитанное один раз в начале цикла.
type marketState struct {
	snap    models.MarketSnapshot
	account models.AccountState
}

func (e *Engine) Reconcile(ctx context.Context, marketID string, sig models.Signal) models.CycleReport {
	span, ctx := tracing.StartSpan(ctx, "engine.Reconcile", map[string]string{
		"market":    marketID,
		"direction": string(sig.Direction),
	})
	defer span.Finish()

	rep := newReport(marketID, sig, e.now)

	snap, err := e.b.MarketSnapshot(ctx, marketID)
	if err != nil {
		rep.brokerErr(SourceMarketDetails, err)
		return rep.r
	}
	acc, err := e.b.Account(ctx)
	if err != nil {
		rep.brokerErr(SourceAccount, err)
		return rep.r
	}
	positions, err := e.b.OpenPositions(ctx, marketID)
	if err != nil {
		rep.brokerErr(SourceOpenPositions, err)
		return rep.r
	}
	m := marketState{snap: snap, account: acc}

	switch {
	case !sig.IsNone():
		e.onSignal(ctx, rep, sig, m, positions)
	case len(positions) > 0:
		e.trail(ctx, rep, m, positions)
	default:
		rep.info(SourceReconcile, "no signal and no open positions, nothing to do")
	}

	span.SetTag("errors", rep.r.ErrorsExist())
	return rep.r
}

func splitByDirection(positions []models.OpenPosition, d models.Direction) (same, opposite []models.OpenPosition) {
	for _, p := range positions {
		if p.Direction == d {
			same = append(same, p)
		} else {
			opposite = append(opposite, p)
		}
	}
	return same, opposite
}

func (e *Engine) onSignal(ctx context.Context, rep *report, sig models.Signal, m marketState, positions []models.OpenPosition) {
	same, opposite := splitByDirection(positions, sig.Direction)

	switch {
	case len(positions) == 0:
		rep.info(SourceReconcile, "no open positions, opening %s", sig.Direction)
		e.open(ctx, rep, sig, m)

	case len(same) > 0 && len(opposite) > 0:
		rep.warn(SourceReconcile, "mixed directions: %d %s and %d %s, closing %s one by one",
			len(same), sig.Direction, len(opposite), sig.Direction.Opposite(), sig.Direction.Opposite())
		for _, p := range opposite {
			e.closeOne(ctx, rep, p)
		}
		e.sameDirection(ctx, rep, sig, m)

	case len(opposite) > 0:
		if !e.closeAll(ctx, rep, sig.MarketID, len(opposite)) {
			rep.errorf(SourceReconcile, "not opening %s: opposite positions are still open", sig.Direction)
			return
		}
		e.open(ctx, rep, sig, m)

	default:
		e.sameDirection(ctx, rep, sig, m)
	}
}

// sameDirection: совпадение price_points с открытой записью журнала значит, что этот сигнал уже отработан.
func (e *Engine) sameDirection(ctx context.Context, rep *report, sig models.Signal, m marketState) {
	records, err := e.ledger.Scan(ctx, sig.MarketID)
	if err != nil {
		rep.errorf(SourceReconcile, "ledger scan failed, not opening to avoid a duplicate: %v", err)
		return
	}
	opened := ledger.FindOpened(records, sig.MarketID, sig.Direction)
	if len(opened) == 0 {
		rep.info(SourceReconcile, "no ledger records for open %s positions, opening", sig.Direction)
		e.open(ctx, rep, sig, m)
		return
	}
	for _, rec := range opened {
		if ledger.SamePricePoints(rec.PricePoints, sig.PricePoints) {
			rep.info(SourceReconcile, "duplicate signal: price points %v already traded by deal %s", helper.Round2All(sig.PricePoints), rec.DealID)
			return
		}
	}
	rep.info(SourceReconcile, "new price points %v, opening additional %s", helper.Round2All(sig.PricePoints), sig.Direction)
	e.open(ctx, rep, sig, m)
}

func (e *Engine) open(ctx context.Context, rep *report, sig models.Signal, m marketState) {
	span, ctx := tracing.StartSpan(ctx, "engine.open", map[string]string{"market": sig.MarketID})
	defer span.Finish()

	size, err := position.CalcSizeByRisk(position.SizeInput{
		Direction:             sig.Direction,
		StopLoss:              sig.StopLoss,
		MaxDrawdownMultiplier: sig.RiskMultiplier,
		Market:                m.snap,
		Account:               m.account,
	})
	if err != nil {
		rep.errorf(SourceCreatePosition, "sizing failed: %v", err)
		return
	}
	rep.info(SourceCreatePosition, "size: %s", size)

	req := broker.OrderRequest{
		MarketID:   sig.MarketID,
		Direction:  sig.Direction,
		Size:       size.Size,
		StopLevel:  helper.Round2(sig.StopLoss),
		LimitLevel: helper.Round2(sig.TakeProfit),
		Currency:   m.snap.Currency,
	}
	deal, err := e.b.CreatePosition(ctx, req)
	if err != nil {
		rep.brokerErr(SourceCreatePosition, err)
		return
	}

	level := deal.Level
	if level == 0 {
		level = size.ReferencePrice
	}
	dealSize := deal.Size
	if dealSize == 0 {
		dealSize = size.Size
	}
	rep.success(SourceCreatePosition, "opened %s %s size=%.0f level=%.2f SL=%.2f TP=%.2f deal=%s",
		sig.MarketID, sig.Direction, dealSize, level, req.StopLevel, req.LimitLevel, deal.DealID)

	now := e.now()
	_, err = e.ledger.Put(ctx, models.LedgerRecord{
		Source:             SourceCreatePosition,
		MarketID:           sig.MarketID,
		DealID:             deal.DealID,
		Status:             models.StatusOpened,
		Direction:          sig.Direction,
		OpeningPrice:       level,
		Size:               dealSize,
		StopLoss:           req.StopLevel,
		TakeProfit:         req.LimitLevel,
		PricePoints:        sig.PricePoints,
		TrailingStopRating: position.RatingNone,
		OpenedAt:           now,
	})
	if err != nil {
		rep.errorf(SourceCreatePosition, "deal %s is open at the broker but the ledger write failed: %v", deal.DealID, err)
	}
}

// closeOne закрывает позицию по deal id и помечает запись журнала.
func (e *Engine) closeOne(ctx context.Context, rep *report, p models.OpenPosition) {
	if _, err := e.b.ClosePosition(ctx, p); err != nil {
		rep.brokerErr(SourceClosePosition, err)
		return
	}
	rep.success(SourceClosePosition, "closed %s %s size=%.0f deal=%s", p.MarketID, p.Direction, p.Size, p.DealID)
	e.markClosed(ctx, rep, SourceClosePosition, []string{p.DealID})
}

// closeAll true если брокер подтвердил закрытие всех позиций инструмента.
func (e *Engine) closeAll(ctx context.Context, rep *report, marketID string, want int) bool {
	deals, err := e.b.CloseAll(ctx, marketID)

	ids := make([]string, 0, len(deals))
	for _, d := range deals {
		ids = append(ids, d.DealID)
	}
	if len(ids) > 0 {
		rep.success(SourceCloseAllPositions, "closed %d of %d positions: %v", len(ids), want, ids)
		e.markClosed(ctx, rep, SourceCloseAllPositions, ids)
	}
	if err != nil {
		rep.brokerErr(SourceCloseAllPositions, err)
		return false
	}
	return true
}

// markClosed переводит открытые записи по закрытым сделкам в CLOSED.
func (e *Engine) markClosed(ctx context.Context, rep *report, source string, dealIDs []string) {
	records, err := e.ledger.Scan(ctx, rep.r.MarketID)
	if err != nil {
		rep.errorf(source, "deals %v are closed at the broker but the ledger scan failed: %v", dealIDs, err)
		return
	}
	for _, id := range dealIDs {
		found := false
		for _, rec := range ledger.ByDeal(records, id) {
			if rec.Status != models.StatusOpened {
				continue
			}
			found = true
			if err := e.ledger.Update(ctx, rec.ID, ledger.FieldStatus, models.StatusClosed); err != nil {
				rep.errorf(source, "deal %s is closed at the broker but the ledger update failed: %v", id, err)
			}
		}
		if !found {
			rep.info(source, "deal %s has no open ledger record", id)
		}
	}
}

func (e *Engine) trail(ctx context.Context, rep *report, m marketState, positions []models.OpenPosition) {
	span, ctx := tracing.StartSpan(ctx, "engine.trail", map[string]string{"market": rep.r.MarketID})
	defer span.Finish()

	if same, opposite := splitByDirection(positions, positions[0].Direction); len(same) > 0 && len(opposite) > 0 {
		rep.warn(SourceTrailingStop, "mixed directions among %d open positions", len(positions))
	}

	records, err := e.ledger.Scan(ctx, rep.r.MarketID)
	if err != nil {
		rep.errorf(SourceTrailingStop, "ledger scan failed: %v", err)
		return
	}

	for _, p := range positions {
		recs := ledger.ByDeal(records, p.DealID)
		if len(recs) != 1 {
			rep.warn(SourceTrailingStop, "deal %s: expected 1 ledger record, found %d, skipping", p.DealID, len(recs))
			continue
		}
		rec := recs[0]

		dec := position.EvaluateTrail(position.TrailInput{
			Direction:   p.Direction,
			PricePoints: rec.PricePoints,
			Rating:      rec.TrailingStopRating,
			Bid:         m.snap.Bid,
			Offer:       m.snap.Offer,
		})
		if !dec.Move {
			rep.info(SourceTrailingStop, "deal %s: %s", p.DealID, dec.Reason)
			continue
		}

		current := position.NormalizeRating(rec.TrailingStopRating)
		rating, err := position.ApplyTrail(ctx, e.b, p, current, dec)
		if err != nil {
			rep.brokerErr(SourceEditPosition, err)
			continue
		}
		rep.success(SourceEditPosition, "deal %s: stop %.2f, trailing distance %.0f, rating %d -> %d (%s)",
			p.DealID, dec.StopLevel, dec.TrailingDistance, current, rating, dec.Reason)

		if err := e.ledger.Update(ctx, rec.ID, ledger.FieldTrailingStopRating, rating); err != nil {
			rep.errorf(SourceEditPosition, "deal %s edited at the broker but the ledger update failed: %v", p.DealID, err)
		}
	}
}
