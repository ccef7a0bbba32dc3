package cmd

import (
	"fmt"
	"strings"
	"time"

	"fibo_bot/internal/ledger"
	"fibo_bot/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gopkg.in/yaml.v2"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Query the position ledger",
	Long: `Query position ledger records from the configured store (ledger.driver).

Examples:
  fibo-bot ledger list
  fibo-bot ledger list --market CS.D.EURUSD.CFD.IP --format yaml`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger records",
	Args:  cobra.NoArgs,
	RunE:  runLedgerList,
}

var (
	ledgerMarket string
	ledgerFormat string
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd)

	ledgerListCmd.Flags().StringVarP(&ledgerMarket, "market", "m", "", "filter by market id")
	ledgerListCmd.Flags().StringVarP(&ledgerFormat, "format", "f", "table", "output format (table, yaml)")
}

type ledgerRow struct {
	ID          string    `yaml:"id"`
	MarketID    string    `yaml:"market_id"`
	DealID      string    `yaml:"deal_id"`
	Status      string    `yaml:"status"`
	Direction   string    `yaml:"direction"`
	Size        float64   `yaml:"size"`
	Opening     float64   `yaml:"opening_price"`
	StopLoss    float64   `yaml:"stop_loss"`
	TakeProfit  float64   `yaml:"take_profit"`
	PricePoints []float64 `yaml:"price_points,flow"`
	Rating      int       `yaml:"trailing_stop_rating"`
	Source      string    `yaml:"source"`
	OpenedAt    time.Time `yaml:"opened_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

func toRow(r models.LedgerRecord) ledgerRow {
	return ledgerRow{
		ID:          r.ID,
		MarketID:    r.MarketID,
		DealID:      r.DealID,
		Status:      string(r.Status),
		Direction:   string(r.Direction),
		Size:        r.Size,
		Opening:     r.OpeningPrice,
		StopLoss:    r.StopLoss,
		TakeProfit:  r.TakeProfit,
		PricePoints: r.PricePoints,
		Rating:      r.TrailingStopRating,
		Source:      r.Source,
		OpenedAt:    r.OpenedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	var store ledger.Store
	app := fx.New(append(storeOptions(cfg), fx.Populate(&store))...)

	stop, err := start(cmd.Context(), app)
	if err != nil {
		return err
	}
	defer stop()

	recs, err := store.Scan(cmd.Context(), ledgerMarket)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	rows := make([]ledgerRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, toRow(r))
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(ledgerFormat) {
	case "yaml":
		return yaml.NewEncoder(out).Encode(rows)
	case "table", "":
		cells := make([][]string, 0, len(rows))
		for _, r := range rows {
			cells = append(cells, []string{
				r.ID, r.MarketID, r.DealID, r.Status, r.Direction,
				fmt.Sprintf("%.2f", r.Size), fmt.Sprintf("%.2f", r.Opening),
				fmt.Sprintf("%.2f", r.StopLoss), fmt.Sprintf("%.2f", r.TakeProfit),
				fmt.Sprintf("%d", r.Rating), r.OpenedAt.Format(time.DateTime),
			})
		}
		_, err := fmt.Fprintln(out, renderTable(
			[]string{"ID", "MARKET", "DEAL", "STATUS", "DIR", "SIZE", "OPEN", "SL", "TP", "RATING", "OPENED"},
			cells,
		))
		return err
	default:
		return fmt.Errorf("unknown format %q (supported: table, yaml)", ledgerFormat)
	}
}
