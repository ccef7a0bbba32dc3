package cmd

import (
	"fmt"
	"io"
	"time"

	"fibo_bot/internal/models"
	"fibo_bot/internal/modules/health"
	strategysvc "fibo_bot/internal/modules/strategy/service"
	"fibo_bot/internal/runner"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one cycle over the configured instruments and exit",
	Long: `Run refreshes the IG session, updates price history, evaluates the
strategy and reconciles the signal with open positions, once per instrument.

The exit code is non-zero when any cycle reported an error.

Example:
  fibo-bot run --instrument CS.D.EURUSD.CFD.IP`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

var runInstruments []string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runInstruments, "instrument", "i", nil, "market ids to run (default all configured)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	var (
		reg   *strategysvc.Registry
		cycle *runner.Cycle
	)
	app := fx.New(appOptions(cfg,
		health.StateModule(),
		fx.Populate(&reg, &cycle),
	)...)

	stop, err := start(cmd.Context(), app)
	if err != nil {
		return err
	}
	defer stop()

	instruments, err := reg.Select(runInstruments)
	if err != nil {
		return err
	}

	reports := runner.NewLoop(cycle, cfg.Service.Every, instruments).RunOnce(cmd.Context())
	failed := 0
	for _, r := range reports {
		printReport(cmd.OutOrStdout(), r)
		if r.ErrorsExist() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d cycles finished with errors", failed, len(reports))
	}
	return nil
}

func printReport(w io.Writer, r models.CycleReport) {
	signal := "none"
	if !r.Signal.IsNone() {
		signal = fmt.Sprintf("%s close=%.2f sl=%.2f tp=%.2f", r.Signal.Direction, r.Signal.Close, r.Signal.StopLoss, r.Signal.TakeProfit)
	}
	status := "open"
	if r.MarketClosed {
		status = "closed"
	}
	fmt.Fprintln(w, marketStyle.Render(fmt.Sprintf("%s [%s] signal: %s", r.MarketID, status, signal)))
	for _, m := range r.Messages {
		line := fmt.Sprintf("%s %s %-22s %s", m.Type, m.Time.Format(time.TimeOnly), m.Source, m.Text)
		fmt.Fprintln(w, "  "+messageStyle(m.Type).Render(line))
	}
}
