package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fibo_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
service:
  health_addr: ""
ig:
  password: secret
ledger:
  driver: memory
instruments:
  - market_id: CS.D.EURUSD.CFD.IP
    resolution: HOUR
    params:
      window: 20
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", path))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestConfigCommand(t *testing.T) {
	out := execute(t, "config")

	assert.Contains(t, out, "password: '***'")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "market_id: CS.D.EURUSD.CFD.IP")
	assert.Contains(t, out, "window: 20")
	assert.Contains(t, out, "max_drawdown_multiplier: 0.02")
}

func TestLedgerListEmpty(t *testing.T) {
	out := execute(t, "ledger", "list")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "MARKET")

	t.Cleanup(func() { ledgerFormat = "table" })
	out = execute(t, "ledger", "list", "--format", "yaml")
	assert.Contains(t, out, "[]")
}

func TestPrintReport(t *testing.T) {
	at := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printReport(&buf, models.CycleReport{
		MarketID: "CS.D.EURUSD.CFD.IP",
		Signal: models.Signal{
			Direction:  models.DirectionBuy,
			Close:      104,
			StopLoss:   86,
			TakeProfit: 140,
		},
		Messages: []models.Message{
			{Type: models.MessageSuccess, Source: "create_position", Time: at, Text: "deal D1 opened"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "CS.D.EURUSD.CFD.IP [open] signal: BUY close=104.00 sl=86.00 tp=140.00")
	assert.Contains(t, out, "S 12:00:00 create_position")
	assert.Contains(t, out, "deal D1 opened")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "***", mask("x"))
}
