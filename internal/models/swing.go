package models

import "time"

type SwingKind string

const (
	SwingPeak   SwingKind = "P"
	SwingTrough SwingKind = "T"
)

type SwingPoint struct {
	Index      int // индекс бара внутри анализируемого окна
	Time       time.Time
	Kind       SwingKind
	Price      float64
	WaveLength float64 // |Price - предыдущая точка|, у первой 0
}
