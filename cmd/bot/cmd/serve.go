package cmd

import (
	"context"
	"time"

	"fibo_bot/internal/modules/bootstrap"
	"fibo_bot/internal/modules/health"
	healthsvc "fibo_bot/internal/modules/health/service"
	strategysvc "fibo_bot/internal/modules/strategy/service"
	"fibo_bot/internal/runner"
	"fibo_bot/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run cycles periodically and expose health endpoints",
	Long: `Serve warms up price history, then runs one cycle per instrument every
--every (service.every in config). /livez, /readyz and /healthz are served on
service.health_addr.

Example:
  fibo-bot serve --every 1h`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveEvery       time.Duration
	serveInstruments []string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().DurationVar(&serveEvery, "every", 0, "cycle period (default service.every)")
	serveCmd.Flags().StringSliceVarP(&serveInstruments, "instrument", "i", nil, "market ids to run (default all configured)")
}

func runServe(cmd *cobra.Command, args []string) error {
	every := cfg.Service.Every
	if serveEvery > 0 {
		every = serveEvery
	}

	app := fx.New(appOptions(cfg,
		health.Module(),
		bootstrap.Module(),
		fx.Invoke(func(lc fx.Lifecycle, reg *strategysvc.Registry, cycle *runner.Cycle, state *healthsvc.State) error {
			instruments, err := reg.Select(serveInstruments)
			if err != nil {
				return err
			}
			loop := runner.NewLoop(cycle, every, instruments)
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					// контекст команды, а не хука: хук живёт только на время старта
					if err := loop.Start(cmd.Context()); err != nil {
						return err
					}
					state.SetReady(true)
					return nil
				},
				OnStop: func(context.Context) error {
					state.SetReady(false)
					loop.Stop()
					return nil
				},
			})
			return nil
		}),
	)...)

	stop, err := start(cmd.Context(), app)
	if err != nil {
		return err
	}
	defer stop()

	logger.Info("fibo-bot serving every %s", every)
	select {
	case <-cmd.Context().Done():
	case sig := <-app.Done():
		logger.Info("signal %s", sig)
	}
	return nil
}
