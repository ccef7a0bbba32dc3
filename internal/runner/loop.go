package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"fibo_bot/internal/models"
	"fibo_bot/pkg/logger"
)

var ErrLoopRunning = errors.New("loop already running")

// Loop гоняет циклы по всем инструментам: сразу на старте, дальше раз в every.
// Инструменты идут последовательно, чтобы не упираться в лимиты брокера.
type Loop struct {
	cycle       *Cycle
	every       time.Duration
	instruments []Instrument

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(c *Cycle, every time.Duration, instruments []Instrument) *Loop {
	if every <= 0 {
		every = time.Hour
	}
	return &Loop{cycle: c, every: every, instruments: instruments}
}

// RunOnce один проход по всем инструментам.
func (l *Loop) RunOnce(ctx context.Context) []models.CycleReport {
	out := make([]models.CycleReport, 0, len(l.instruments))
	for _, in := range l.instruments {
		if ctx.Err() != nil {
			break
		}
		rep := l.cycle.Run(ctx, in)
		logger.Info("cycle %s done: signal=%q messages=%d errors=%t closed=%t",
			in.MarketID, rep.Signal.Direction, len(rep.Messages), rep.ErrorsExist(), rep.MarketClosed)
		out = append(out, rep)
	}
	return out
}

func (l *Loop) Start(parent context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return ErrLoopRunning
	}

	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		logger.Info("loop started: %d instruments every %s", len(l.instruments), l.every)

		l.RunOnce(ctx)
		t := time.NewTicker(l.every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("loop stopped")
				return
			case <-t.C:
				l.RunOnce(ctx)
			}
		}
	}(l.done)
	return nil
}

// Stop гасит цикл и ждёт завершения текущего прохода.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
