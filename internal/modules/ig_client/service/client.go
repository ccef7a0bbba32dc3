package service

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

const (
	DemoURL = "https://demo-api.ig.com/gateway/deal"
	LiveURL = "https://api.ig.com/gateway/deal"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Username   string
	Password   string
	AccountID  string
	Timeout    time.Duration
	SessionTTL time.Duration
}

// Client REST-клиент IG. Состояния сессии не хранит: токены живут в Session.
type Client struct {
	cfg  Config
	http *resty.Client
	now  func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DemoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 5 * time.Hour
	}

	h := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json; charset=UTF-8").
		SetHeader("X-IG-API-KEY", cfg.APIKey).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &Client{cfg: cfg, http: h, now: time.Now}
}

// Trader привязывает сессию к клиенту. Все торговые вызовы идут через него.
func (c *Client) Trader(s *Session) *Trader {
	return &Trader{c: c, s: s}
}
