package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fibo_bot/internal/modules/config"
	"fibo_bot/pkg/logger"
	"fibo_bot/pkg/tracing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v           = viper.New()
	cfg         *config.Config
	closeTracer = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "fibo-bot",
	Short: "Fibonacci retracement signals and position lifecycle for IG markets",
	Long: `fibo-bot evaluates a strategy per instrument on hourly/daily bars,
reconciles the signal with open IG positions and keeps a position ledger.

Commands:
  run     - one cycle over the configured instruments, then exit
  serve   - periodic cycles with health endpoints
  ledger  - inspect the position ledger
  config  - print the resolved configuration

Flags and env (FIBO_CONFIG, FIBO_LOG_LEVEL) override configs/$CONFIG_FILE.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(v.GetString("config"))
		if err != nil {
			return err
		}
		if lvl := v.GetString("log_level"); lvl != "" {
			c.Service.LogLevel = lvl
		}
		if err := logger.Init(c.Service.LogLevel, c.Service.Name); err != nil {
			return err
		}

		tracing.SetServiceName(c.Service.Name)
		_, closer, err := tracing.InitTracer(tracing.Config{
			Enabled: c.Tracing.Enabled,
			Host:    c.Tracing.Host,
			Port:    c.Tracing.Port,
		})
		if err != nil {
			logger.Warn("tracing disabled: %v", err)
		} else {
			closeTracer = closer
		}

		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeTracer()
		logger.Sync()
	},
}

// Execute разбирает флаги и запускает команду. SIGINT/SIGTERM отменяют контекст.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		rootCmd.PrintErrln("Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to yaml config (default configs/$CONFIG_FILE)")
	rootCmd.PersistentFlags().String("log-level", "", "override service.log_level (debug, info, warn, error)")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	v.SetEnvPrefix("FIBO")
	v.AutomaticEnv()
}
