package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
service:
  log_level: debug
  every: 30m
ig:
  url: demo
  api_key: file-key
ledger:
  driver: memory
defaults:
  max_drawdown_multiplier: 0.01
instruments:
  - market_id: CS.D.EURUSD.CFD.IP
    resolution: 1h
  - market_id: IX.D.FTSE.DAILY.IP
    strategy: sma_cross
    resolution: HOUR_4
    price_fetch_points: 5
    params:
      sma_fast: 10
      sma_slow: 30
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv(igAPIKeyENV, "env-key")
	t.Setenv(ledgerDriverENV, "")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.IG.APIKey)
	assert.Equal(t, 30*time.Minute, cfg.Service.Every)
	assert.Equal(t, 15*time.Second, cfg.IG.Timeout)
	assert.Equal(t, LedgerMemory, cfg.Ledger.Driver)
	require.Len(t, cfg.Instruments, 2)

	eur := cfg.Instruments[0]
	assert.Equal(t, "retracement", eur.Strategy)
	assert.Equal(t, "HOUR", eur.Resolution)
	assert.Equal(t, 2, eur.PriceFetchPoints)
	assert.Equal(t, 500, eur.StrategyRecords)

	p := cfg.StrategyParams(eur)
	assert.Equal(t, 0.01, p.MaxDrawdownMultiplier)
	assert.Equal(t, 40, p.Swing.Window)
	assert.Equal(t, 0.3, p.FiboLevelFrom)

	ftse, ok := cfg.Instrument("IX.D.FTSE.DAILY.IP")
	require.True(t, ok)
	p = cfg.StrategyParams(ftse)
	assert.Equal(t, 10, p.SMAFast)
	assert.Equal(t, 30, p.SMASlow)
	assert.Equal(t, 20, p.SMALookback)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"fibo band inverted", `
ledger: {driver: memory}
instruments:
  - market_id: A
    params: {fibo_level_from: 0.6, fibo_level_to: 0.5}
`},
		{"unknown strategy", `
ledger: {driver: memory}
instruments:
  - market_id: A
    strategy: donchian
`},
		{"sma fast above slow", `
ledger: {driver: memory}
instruments:
  - market_id: A
    strategy: sma_cross
    params: {sma_fast: 50, sma_slow: 20}
`},
		{"unknown resolution", `
ledger: {driver: memory}
instruments:
  - market_id: A
    resolution: WEEK_3
`},
		{"duplicate market", `
ledger: {driver: memory}
instruments:
  - market_id: A
  - market_id: A
`},
		{"postgres without dsn", `
ledger: {driver: postgres}
`},
		{"records below window", `
ledger: {driver: memory}
instruments:
  - market_id: A
    strategy_records: 10
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(databaseDSN, "")
			t.Setenv(ledgerDriverENV, "")
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), err.Error())
		})
	}
}

func TestStrategyParamsMerge(t *testing.T) {
	base := defaultStrategyParams()
	got := base.Merge(StrategyParams{Distance: 7, ZoneThickness: 0.05})
	assert.Equal(t, 7, got.Distance)
	assert.Equal(t, 0.05, got.ZoneThickness)
	assert.Equal(t, base.Window, got.Window)
}
