package runner

import (
	"context"
	"time"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/history"
	"fibo_bot/internal/models"
	"fibo_bot/internal/notify"
	"fibo_bot/internal/strategy"
	"fibo_bot/pkg/logger"
	"fibo_bot/pkg/tracing"
)

// Instrument всё, что нужно циклу для одного инструмента.
type Instrument struct {
	MarketID         string
	Resolution       string
	PriceFetchPoints int
	StrategyRecords  int
	Strategy         strategy.Strategy
}

// SessionRefresher брокер с истекающей сессией.
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}

// CycleObserver получает итог каждого цикла (health).
type CycleObserver interface {
	CycleDone(t time.Time, errorsExist bool)
}

type Cycle struct {
	engine   *Engine
	prices   broker.PriceSource
	history  history.Store
	notifier notify.Notifier
	observer CycleObserver
	session  SessionRefresher
	now      func() time.Time
}

func NewCycle(
	engine *Engine,
	prices broker.PriceSource,
	hist history.Store,
	n notify.Notifier,
	obs CycleObserver,
) *Cycle {
	c := &Cycle{
		engine:   engine,
		prices:   prices,
		history:  hist,
		notifier: n,
		observer: obs,
		now:      time.Now,
	}
	if r, ok := engine.b.(SessionRefresher); ok {
		c.session = r
	}
	return c
}

// Run один проход: история -> новые бары -> сессия рынка -> стратегия -> сверка -> отчёт.
func (c *Cycle) Run(ctx context.Context, in Instrument) models.CycleReport {
	span, ctx := tracing.StartSpan(ctx, "cycle.Run", map[string]string{
		"market":   in.MarketID,
		"strategy": in.Strategy.Name(),
	})
	defer span.Finish()

	rep := c.prepare(ctx, in)
	if !rep.r.MarketClosed && !rep.r.ErrorsExist() {
		sig := rep.r.Signal
		res := c.engine.Reconcile(ctx, in.MarketID, sig)
		rep.r.Messages = append(rep.r.Messages, res.Messages...)
	}

	if err := c.notifier.Publish(ctx, rep.r); err != nil {
		logger.Error("publish report %s: %v", in.MarketID, err)
	}
	if c.observer != nil {
		c.observer.CycleDone(c.now(), rep.r.ErrorsExist())
	}
	span.SetTag("errors", rep.r.ErrorsExist())
	return rep.r
}

// prepare всё до сверки: сигнал или причина, по которой сверки не будет.
func (c *Cycle) prepare(ctx context.Context, in Instrument) *report {
	rep := newReport(in.MarketID, models.NoSignal(in.MarketID, in.Strategy.Name(), ""), c.now)

	if c.session != nil {
		if err := c.session.Refresh(ctx); err != nil {
			rep.brokerErr(SourceSession, err)
			return rep
		}
	}

	hist, err := c.history.Load(ctx, in.MarketID)
	if err != nil {
		rep.warn(SourceHistory, "history load failed, starting empty: %v", err)
		hist = nil
	}

	// пустая или короткая история добирается целиком
	fetch := in.PriceFetchPoints
	if len(hist) < in.StrategyRecords && fetch < in.StrategyRecords {
		fetch = in.StrategyRecords
	}
	fresh, err := c.prices.Prices(ctx, in.MarketID, in.Resolution, fetch)
	if err != nil {
		rep.brokerErr(SourcePrices, err)
		return rep
	}

	// незакрытый бар не сохраняем: следующий цикл может его уже не перезапросить
	fresh, forming := history.Completed(fresh, c.now(), in.Resolution)
	if !forming.IsZero() {
		rep.info(SourceMarketStatus, "dropped forming bar %s", forming.UTC().Format(time.RFC3339))
	}

	bars := history.Merge(hist, fresh)
	if err := c.history.Save(ctx, in.MarketID, bars); err != nil {
		rep.warn(SourceHistory, "history save failed: %v", err)
	}
	rep.info(SourceHistory, "%d historical + %d fetched = %d bars", len(hist), len(fresh), len(bars))

	sess := history.CheckSession(bars, c.now(), in.Resolution)
	rep.info(SourceMarketStatus, "%s", sess.Reason)
	if sess.Closed {
		rep.r.MarketClosed = true
		return rep
	}

	sig := in.Strategy.Evaluate(in.MarketID, history.Tail(sess.Bars, in.StrategyRecords))
	sig.MarketID = in.MarketID
	rep.r.Signal = sig
	if sig.IsNone() {
		rep.info(SourceStrategy, "%s: no signal: %s", in.Strategy.Name(), sig.Reason)
	} else {
		rep.info(SourceStrategy, "%s: %s close=%.2f SL=%.2f TP=%.2f points=%v",
			in.Strategy.Name(), sig.Direction, sig.Close, sig.StopLoss, sig.TakeProfit, sig.PricePoints)
	}
	return rep
}
