package service

import (
	"fmt"
	"sort"

	"fibo_bot/internal/modules/config"
	"fibo_bot/internal/runner"
	"fibo_bot/internal/strategy"
	"fibo_bot/pkg/logger"
)

// Registry инструменты из конфига с уже собранными стратегиями.
type Registry struct {
	items map[string]runner.Instrument
	order []string
}

func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{items: make(map[string]runner.Instrument, len(cfg.Instruments))}
	for _, in := range cfg.Instruments {
		st, err := strategy.New(strategy.Kind(in.Strategy), cfg.StrategyParams(in))
		if err != nil {
			return nil, fmt.Errorf("instrument %s: %w", in.MarketID, err)
		}
		r.items[in.MarketID] = runner.Instrument{
			MarketID:         in.MarketID,
			Resolution:       in.Resolution,
			PriceFetchPoints: in.PriceFetchPoints,
			StrategyRecords:  in.StrategyRecords,
			Strategy:         st,
		}
		r.order = append(r.order, in.MarketID)
		logger.Debug("registry: %s -> %s (%s)", in.MarketID, st.Name(), in.Resolution)
	}
	return r, nil
}

// All в порядке конфига.
func (r *Registry) All() []runner.Instrument {
	out := make([]runner.Instrument, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

func (r *Registry) Get(marketID string) (runner.Instrument, bool) {
	in, ok := r.items[marketID]
	return in, ok
}

// Select все инструменты или только перечисленные; неизвестный id это ошибка.
func (r *Registry) Select(ids []string) ([]runner.Instrument, error) {
	if len(ids) == 0 {
		return r.All(), nil
	}
	out := make([]runner.Instrument, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		in, ok := r.items[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		out = append(out, in)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown instruments %v", unknown)
	}
	return out, nil
}
