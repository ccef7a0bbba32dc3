package cmd

import (
	"fibo_bot/internal/modules/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long: `Print the configuration after defaults, yaml and env overrides, with the
strategy parameters resolved per instrument. Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

type resolvedInstrument struct {
	config.Instrument `yaml:",inline"`
	Resolved          config.StrategyParams `yaml:"resolved"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	c := *cfg
	c.IG.APIKey = mask(c.IG.APIKey)
	c.IG.Password = mask(c.IG.Password)
	c.Telegram.Token = mask(c.Telegram.Token)
	c.DB = mask(c.DB)

	instruments := make([]resolvedInstrument, 0, len(c.Instruments))
	for _, in := range c.Instruments {
		instruments = append(instruments, resolvedInstrument{
			Instrument: in,
			Resolved:   cfg.ResolvedParams(in),
		})
	}
	c.Instruments = nil

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Encode(map[string]any{"instruments": instruments})
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
