package swing

import "sort"

// FindPeaks ищет локальные максимумы x с фильтрами distance и prominence.
// Плато даёт средний индекс, крайние точки пиком не бывают.
// При distance <= 1 фильтр по расстоянию не применяется.
func FindPeaks(x []float64, distance int, prominence float64) []int {
	peaks := localMaxima(x)
	if len(peaks) == 0 {
		return nil
	}
	if distance > 1 {
		peaks = selectByDistance(x, peaks, distance)
	}

	out := peaks[:0]
	for _, p := range peaks {
		if peakProminence(x, p) >= prominence {
			out = append(out, p)
		}
	}
	return out
}

func localMaxima(x []float64) []int {
	var peaks []int
	iMax := len(x) - 1
	for i := 1; i < iMax; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < iMax && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			left, right := i, ahead-1
			peaks = append(peaks, (left+right)/2)
			i = ahead
		}
	}
	return peaks
}

// selectByDistance оставляет более высокие пики, выбрасывая соседей ближе distance.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] < x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for i := len(order) - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// peakProminence: высота пика над более высоким из двух оснований.
func peakProminence(x []float64, peak int) float64 {
	leftMin := x[peak]
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
		}
	}
	rightMin := x[peak]
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
		}
	}
	if leftMin > rightMin {
		return x[peak] - leftMin
	}
	return x[peak] - rightMin
}
