package swing

import (
	"math"

	"fibo_bot/internal/models"
)

const (
	DefaultWindow     = 40
	DefaultDistance   = 5
	DefaultProminence = 2.0
)

type Params struct {
	Window     int     // сколько последних баров анализируем
	Distance   int     // минимальное расстояние между экстремумами в барах
	Prominence float64 // минимальная значимость в единицах цены
}

func DefaultParams() Params {
	return Params{
		Window:     DefaultWindow,
		Distance:   DefaultDistance,
		Prominence: DefaultProminence,
	}
}

// Detect возвращает чередующуюся последовательность пиков и впадин
// по последним p.Window барам. Короткое окно даёт пустой результат.
func Detect(bars []models.PriceBar, p Params) []models.SwingPoint {
	if p.Window > 0 && len(bars) > p.Window {
		bars = bars[len(bars)-p.Window:]
	}
	if len(bars) < 3 {
		return nil
	}

	highs := make([]float64, len(bars))
	negLows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		negLows[i] = -b.Low
	}

	isPeak := make([]bool, len(bars))
	for _, i := range FindPeaks(highs, p.Distance, p.Prominence) {
		isPeak[i] = true
	}
	isTrough := make([]bool, len(bars))
	for _, i := range FindPeaks(negLows, p.Distance, p.Prominence) {
		isTrough[i] = true
	}

	var out []models.SwingPoint
	push := func(pt models.SwingPoint) {
		n := len(out)
		if n == 0 || out[n-1].Kind != pt.Kind {
			out = append(out, pt)
			return
		}
		// подряд одного вида: оставляем самый крайний, при равенстве первый
		last := out[n-1]
		if (pt.Kind == models.SwingPeak && pt.Price > last.Price) ||
			(pt.Kind == models.SwingTrough && pt.Price < last.Price) {
			out[n-1] = pt
		}
	}

	for i, b := range bars {
		peak := models.SwingPoint{Index: i, Time: b.Time, Kind: models.SwingPeak, Price: b.High}
		trough := models.SwingPoint{Index: i, Time: b.Time, Kind: models.SwingTrough, Price: b.Low}

		switch {
		case isPeak[i] && isTrough[i]:
			// outside bar: сначала вид, отличный от последней точки
			if len(out) > 0 && out[len(out)-1].Kind == models.SwingPeak {
				push(trough)
				push(peak)
			} else {
				push(peak)
				push(trough)
			}
		case isPeak[i]:
			push(peak)
		case isTrough[i]:
			push(trough)
		}
	}

	for i := range out {
		if i == 0 {
			out[i].WaveLength = 0
			continue
		}
		out[i].WaveLength = math.Abs(out[i].Price - out[i-1].Price)
	}
	return out
}

// Last3 отдаёт entry, mid, prior (последняя, предпоследняя, третья с конца).
func Last3(points []models.SwingPoint) (entry, mid, prior models.SwingPoint, ok bool) {
	n := len(points)
	if n < 3 {
		return entry, mid, prior, false
	}
	return points[n-1], points[n-2], points[n-3], true
}
