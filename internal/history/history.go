package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
)

// Store хранилище истории баров по инструменту.
type Store interface {
	Load(ctx context.Context, marketID string) ([]models.PriceBar, error)
	Save(ctx context.Context, marketID string, bars []models.PriceBar) error
}

// Merge склеивает историю с новыми барами: дубли по времени, побеждает последний, сортировка по времени.
func Merge(hist, fresh []models.PriceBar) []models.PriceBar {
	byTime := make(map[int64]int, len(hist)+len(fresh))
	out := make([]models.PriceBar, 0, len(hist)+len(fresh))

	for _, src := range [][]models.PriceBar{hist, fresh} {
		for _, b := range src {
			b.Time = b.Time.UTC()
			key := b.Time.UnixNano()
			if i, ok := byTime[key]; ok {
				out[i] = b
				continue
			}
			byTime[key] = len(out)
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Completed отбрасывает бары моложе одного resolution: они ещё формируются
// и в историю попадать не должны. Второй результат это время последнего отброшенного бара.
func Completed(bars []models.PriceBar, now time.Time, resolution string) ([]models.PriceBar, time.Time) {
	res, ok := helper.ResolutionDuration(resolution)
	if !ok {
		res = time.Hour
	}
	out := make([]models.PriceBar, 0, len(bars))
	var dropped time.Time
	for _, b := range bars {
		if now.Sub(b.Time) < res {
			dropped = b.Time
			continue
		}
		out = append(out, b)
	}
	return out, dropped
}

// Session результат проверки торговой сессии.
type Session struct {
	Bars   []models.PriceBar
	Closed bool
	Reason string
}

// CheckSession: последний бар старше 2×resolution значит рынок закрыт;
// моложе 1×resolution значит бар ещё формируется и отбрасывается.
func CheckSession(bars []models.PriceBar, now time.Time, resolution string) Session {
	if len(bars) == 0 {
		return Session{Closed: true, Reason: "no price data"}
	}
	res, ok := helper.ResolutionDuration(resolution)
	if !ok {
		res = time.Hour
	}

	last := bars[len(bars)-1].Time
	age := now.Sub(last)
	switch {
	case age > 2*res:
		return Session{
			Bars:   bars,
			Closed: true,
			Reason: fmt.Sprintf("market appears closed, last bar %s is %s old", last.Format(time.RFC3339), age.Round(time.Minute)),
		}
	case age < res:
		return Session{
			Bars:   bars[:len(bars)-1],
			Reason: fmt.Sprintf("market open, dropped forming bar %s", last.Format(time.RFC3339)),
		}
	default:
		return Session{
			Bars:   bars,
			Reason: fmt.Sprintf("market open, last bar %s is %s old", last.Format(time.RFC3339), age.Round(time.Minute)),
		}
	}
}

// Tail последние n баров; n <= 0 отдаёт всё.
func Tail(bars []models.PriceBar, n int) []models.PriceBar {
	if n <= 0 || len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
