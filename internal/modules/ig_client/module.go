package ig_client

import (
	"context"
	"strings"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/modules/config"
	"fibo_bot/internal/modules/ig_client/service"
	"fibo_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewClientConfig переводит конфиг приложения в конфиг клиента. demo/live разворачиваются в url.
func NewClientConfig(cfg *config.Config) service.Config {
	url := cfg.IG.URL
	switch strings.ToLower(url) {
	case "", "demo":
		url = service.DemoURL
	case "live":
		url = service.LiveURL
	}
	return service.Config{
		BaseURL:    url,
		APIKey:     cfg.IG.APIKey,
		Username:   cfg.IG.Username,
		Password:   cfg.IG.Password,
		AccountID:  cfg.IG.AccountID,
		Timeout:    cfg.IG.Timeout,
		SessionTTL: cfg.IG.SessionTTL,
	}
}

// NewTrader трейдер без сессии; логин происходит на старте приложения и далее по TTL.
func NewTrader(lc fx.Lifecycle, c *service.Client) *service.Trader {
	t := c.Trader(nil)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := t.Refresh(ctx); err != nil {
				return err
			}
			logger.Info("ig session opened, account %s", t.Session().AccountID)
			return nil
		},
	})
	return t
}

func Module() fx.Option {
	return fx.Module("ig_client",
		fx.Provide(
			NewClientConfig,
			service.NewClient,
			NewTrader,
			fx.Annotate(
				func(t *service.Trader) *service.Trader { return t },
				fx.As(new(broker.Broker), new(broker.PriceSource)),
			),
		),
	)
}
