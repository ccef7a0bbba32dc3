package strategy

import (
	"testing"
	"time"

	"fibo_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes ...float64) []models.PriceBar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return bars
}

func smaParams() Params {
	p := DefaultParams()
	p.SMAFast = 2
	p.SMASlow = 4
	p.SMALookback = 3
	return p
}

func TestSMACross(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		closes []float64
		want   models.Direction
		sl, tp float64
		points []float64
	}{
		{
			name:   "bullish crossing",
			closes: []float64{10, 10, 10, 10, 9, 12},
			want:   models.DirectionBuy,
			sl:     7.92,
			tp:     19.5,
			points: []float64{8, 12, 8},
		},
		{
			name:   "bearish crossing",
			closes: []float64{10, 10, 10, 10, 11, 8},
			want:   models.DirectionSell,
			sl:     12.12,
			tp:     0.5,
			points: []float64{12, 8, 12},
		},
		{
			name:   "flat",
			closes: []float64{10, 10, 10, 10, 10, 10},
			want:   models.DirectionNone,
		},
		{
			name:   "not enough bars",
			closes: []float64{10, 10, 10, 10},
			want:   models.DirectionNone,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sig := NewSMACross(smaParams()).Evaluate("CS.D.EURUSD.MINI.IP", barsFromCloses(tt.closes...))
			require.Equal(t, tt.want, sig.Direction, sig.Reason)
			assert.Equal(t, "sma_cross", sig.Strategy)
			if tt.want == models.DirectionNone {
				return
			}
			assert.InDelta(t, tt.sl, sig.StopLoss, 1e-9)
			assert.InDelta(t, tt.tp, sig.TakeProfit, 1e-9)
			assert.Equal(t, tt.points, sig.PricePoints)
			assert.Contains(t, sig.Indicators, "sma_fast")
			assert.Contains(t, sig.Indicators, "sma_slow")
		})
	}
}

func TestSMACrossIndicators(t *testing.T) {
	t.Parallel()

	sig := NewSMACross(smaParams()).Evaluate("X", barsFromCloses(10, 10, 10, 10, 9, 12))
	assert.Equal(t, 10.5, sig.Indicators["sma_fast"])
	assert.Equal(t, 10.25, sig.Indicators["sma_slow"])
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New(KindRetracement, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "retracement", s.Name())

	s, err = New(KindSMACross, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "sma_cross", s.Name())

	_, err = New("rsi", DefaultParams())
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	bad := DefaultParams()
	bad.FiboLevelFrom = 0.7
	_, err = New(KindRetracement, bad)
	assert.Error(t, err)

	bad = DefaultParams()
	bad.SMAFast = 200
	_, err = New(KindSMACross, bad)
	assert.Error(t, err)
}
