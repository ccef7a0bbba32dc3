package position

import (
	"math"
	"math/rand"
	"testing"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func market(bid, offer, minStop, marginFactor float64) models.MarketSnapshot {
	return models.MarketSnapshot{
		MarketID:        "IX.D.ASX.IFT.IP",
		Bid:             helper.Ptr(bid),
		Offer:           helper.Ptr(offer),
		MinStopDistance: minStop,
		MarginFactor:    marginFactor,
	}
}

func TestCalcSizeByRisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     SizeInput
		want   float64
		capped bool
	}{
		{
			name: "risk sized, under margin cap",
			in: SizeInput{
				Direction:             models.DirectionBuy,
				StopLoss:              95,
				MaxDrawdownMultiplier: 0.02,
				Market:                market(99, 100, 0, 5),
				Account:               models.AccountState{Balance: 10000, Available: 300},
			},
			want: 40,
		},
		{
			name: "margin cap",
			in: SizeInput{
				Direction:             models.DirectionBuy,
				StopLoss:              95,
				MaxDrawdownMultiplier: 0.02,
				Market:                market(99, 100, 0, 5),
				Account:               models.AccountState{Balance: 10000, Available: 200},
			},
			want:   32,
			capped: true,
		},
		{
			name: "broker min stop distance wins",
			in: SizeInput{
				Direction:             models.DirectionBuy,
				StopLoss:              99,
				MaxDrawdownMultiplier: 0.02,
				Market:                market(99, 100, 5, 5),
				Account:               models.AccountState{Balance: 10000, Available: 1000},
			},
			want: 40,
		},
		{
			name: "short uses bid",
			in: SizeInput{
				Direction:             models.DirectionSell,
				StopLoss:              105,
				MaxDrawdownMultiplier: 0.02,
				Market:                market(100, 101, 0, 5),
				Account:               models.AccountState{Balance: 10000, Available: 1000},
			},
			want: 40,
		},
		{
			name: "never below one",
			in: SizeInput{
				Direction:             models.DirectionBuy,
				StopLoss:              95,
				MaxDrawdownMultiplier: 0.02,
				Market:                market(99, 100, 0, 5),
				Account:               models.AccountState{Balance: 100, Available: 1000},
			},
			want: 1,
		},
		{
			name: "floors fractional size",
			in: SizeInput{
				Direction:             models.DirectionBuy,
				StopLoss:              97,
				MaxDrawdownMultiplier: 0.02,
				Market:                market(99, 100, 0, 5),
				Account:               models.AccountState{Balance: 1000, Available: 1000},
			},
			want: 6,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := CalcSizeByRisk(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Size)
			assert.Equal(t, tt.capped, got.Capped)
		})
	}
}

func TestCalcSizeByRiskSteps(t *testing.T) {
	t.Parallel()

	got, err := CalcSizeByRisk(SizeInput{
		Direction:             models.DirectionBuy,
		StopLoss:              95,
		MaxDrawdownMultiplier: 0.02,
		Market:                market(99, 100, 0, 5),
		Account:               models.AccountState{Balance: 10000, Available: 300},
	})
	require.NoError(t, err)

	assert.InDelta(t, 100, got.ReferencePrice, 1e-9)
	assert.InDelta(t, 5, got.StopDistance, 1e-9)
	assert.InDelta(t, 200, got.MaxDrawdown, 1e-9)
	assert.InDelta(t, 40, got.RawSize, 1e-9)
	assert.InDelta(t, 200, got.MarginUsed, 1e-9)
	assert.Contains(t, got.String(), "size=40")
}

func TestCalcSizeByRiskErrors(t *testing.T) {
	t.Parallel()

	m := market(99, 100, 0, 5)
	m.Offer = nil
	_, err := CalcSizeByRisk(SizeInput{
		Direction: models.DirectionBuy,
		StopLoss:  95,
		Market:    m,
		Account:   models.AccountState{Balance: 10000, Available: 300},
	})
	assert.ErrorIs(t, err, ErrNoReferencePrice)

	_, err = CalcSizeByRisk(SizeInput{
		Direction: models.DirectionBuy,
		StopLoss:  100,
		Market:    market(99, 100, 0, 5),
		Account:   models.AccountState{Balance: 10000, Available: 300},
	})
	assert.ErrorIs(t, err, ErrInvalidStopDistance)

	for _, acc := range []models.AccountState{
		{Balance: math.NaN(), Available: 300},
		{Balance: 10000, Available: math.NaN()},
		{Balance: math.Inf(1), Available: 300},
	} {
		got, err := CalcSizeByRisk(SizeInput{
			Direction:             models.DirectionBuy,
			StopLoss:              95,
			MaxDrawdownMultiplier: 0.02,
			Market:                market(99, 100, 0, 5),
			Account:               acc,
		})
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", acc)
		assert.Zero(t, got.Size)
	}

	_, err = CalcSizeByRisk(SizeInput{
		Direction:             models.DirectionBuy,
		StopLoss:              95,
		MaxDrawdownMultiplier: math.NaN(),
		Market:                market(99, 100, 0, 5),
		Account:               models.AccountState{Balance: 10000, Available: 300},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalcSizeByRiskMarginBound(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		ref := 10 + rnd.Float64()*1000
		mf := 1 + rnd.Float64()*20
		// available достаточно хотя бы на 1 единицу
		available := ref*mf/100/0.8 + rnd.Float64()*5000
		in := SizeInput{
			Direction:             models.DirectionBuy,
			StopLoss:              ref - (0.5 + rnd.Float64()*50),
			MaxDrawdownMultiplier: 0.005 + rnd.Float64()*0.05,
			Market:                market(ref-0.5, ref, rnd.Float64()*3, mf),
			Account:               models.AccountState{Balance: 100 + rnd.Float64()*100000, Available: available},
		}

		got, err := CalcSizeByRisk(in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Size, 1.0)
		margin := got.Size * ref * mf / 100
		assert.LessOrEqual(t, margin, available*0.8+1e-6, "case %d: %+v", i, got)
	}
}
