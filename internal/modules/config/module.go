package config

import "go.uber.org/fx"

// Module отдаёт уже загруженный конфиг в граф fx. cli грузит его раньше,
// чтобы поднять логгер и трейсер до старта приложения.
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
	)
}
