package helper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var resolutions = map[string]time.Duration{
	"MINUTE":    time.Minute,
	"MINUTE_5":  5 * time.Minute,
	"MINUTE_15": 15 * time.Minute,
	"MINUTE_30": 30 * time.Minute,
	"HOUR":      time.Hour,
	"HOUR_4":    4 * time.Hour,
	"DAY":       24 * time.Hour,
}

// NormResolution приводит "1h"/"hour"/"15m" к виду брокера (HOUR, MINUTE_15...).
func NormResolution(raw string) string {
	s := strings.TrimSpace(strings.ToUpper(raw))
	switch s {
	case "1M", "MINUTE_1":
		return "MINUTE"
	case "5M":
		return "MINUTE_5"
	case "15M":
		return "MINUTE_15"
	case "30M":
		return "MINUTE_30"
	case "", "1H", "60M", "HOUR_1":
		return "HOUR"
	case "4H":
		return "HOUR_4"
	case "1D", "D":
		return "DAY"
	default:
		return s
	}
}

// ResolutionDuration длительность бара; ok=false для неизвестного разрешения.
func ResolutionDuration(res string) (time.Duration, bool) {
	d, ok := resolutions[NormResolution(res)]
	return d, ok
}

// Round2 округление цены до 2 знаков (half away from zero), как у брокера.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func Round2All(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = Round2(v)
	}
	return out
}

// SamePricePoints сравнивает точки после округления до 2 знаков.
func SamePricePoints(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !decimal.NewFromFloat(a[i]).Round(2).Equal(decimal.NewFromFloat(b[i]).Round(2)) {
			return false
		}
	}
	return true
}

func Ptr[T any](v T) *T { return &v }
