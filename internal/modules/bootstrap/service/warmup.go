package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/history"
	"fibo_bot/internal/runner"
	"fibo_bot/pkg/logger"
)

// Warmuper догружает историю инструментов, у которых баров меньше strategy_records.
type Warmuper struct {
	prices broker.PriceSource
	hist   history.Store

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
	now func() time.Time
}

func NewWarmuper(prices broker.PriceSource, hist history.Store) *Warmuper {
	return &Warmuper{
		prices: prices,
		hist:   hist,
		sem:    make(chan struct{}, 4), // 4 параллельных инструмента
		now:    time.Now,
	}
}

// Warmup возвращает число догруженных инструментов и первую ошибку.
func (w *Warmuper) Warmup(ctx context.Context, instruments []runner.Instrument) (int, error) {
	var (
		cnt      atomic.Int64
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, in := range instruments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case w.sem <- struct{}{}:
			case <-ctx.Done():
				fail(ctx.Err())
				return
			}
			defer func() { <-w.sem }()

			have, err := w.hist.Load(ctx, in.MarketID)
			if err != nil {
				fail(fmt.Errorf("warmup load %s: %w", in.MarketID, err))
				return
			}
			if len(have) >= in.StrategyRecords {
				return
			}

			bars, err := w.prices.Prices(ctx, in.MarketID, in.Resolution, in.StrategyRecords)
			if err != nil {
				fail(fmt.Errorf("warmup prices %s: %w", in.MarketID, err))
				return
			}
			bars, _ = history.Completed(bars, w.now(), in.Resolution)
			merged := history.Merge(have, bars)
			if err := w.hist.Save(ctx, in.MarketID, merged); err != nil {
				fail(fmt.Errorf("warmup save %s: %w", in.MarketID, err))
				return
			}
			cnt.Add(1)
			logger.Info("warmup %s: %d -> %d bars", in.MarketID, len(have), len(merged))
		}()
	}
	wg.Wait()
	return int(cnt.Load()), firstErr
}
