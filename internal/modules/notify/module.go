package notify

import (
	"fibo_bot/internal/modules/config"
	"fibo_bot/internal/notify"
	"fibo_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewNotifier лог всегда, telegram при наличии токена и чата.
func NewNotifier(cfg *config.Config) notify.Notifier {
	out := notify.Multi{notify.NewLog()}
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		return out
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		logger.Error("telegram notifier disabled: %v", err)
		return out
	}
	return append(out, tg)
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(NewNotifier),
	)
}
