package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/strategy"
	"fibo_bot/internal/swing"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"

	igAPIKeyENV    = "IG_API_KEY"
	igUsernameENV  = "IG_USERNAME"
	igPasswordENV  = "IG_PASSWORD"
	igURLENV       = "IG_API_URL"
	igAccountIDENV = "IG_ACCOUNT_ID"

	ledgerDriverENV = "LEDGER_DRIVER"
	logLevelENV     = "LOG_LEVEL"
)

const (
	LedgerMemory   = "memory"
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config ...
type Config struct {
	Service struct {
		Name       string        `yaml:"name"`
		LogLevel   string        `yaml:"log_level"`
		HealthAddr string        `yaml:"health_addr"`
		Every      time.Duration `yaml:"every"` // период serve-цикла
	} `yaml:"service"`

	IG struct {
		URL        string        `yaml:"url"` // demo | live | полный url
		APIKey     string        `yaml:"api_key"`
		Username   string        `yaml:"username"`
		Password   string        `yaml:"password"`
		AccountID  string        `yaml:"account_id"`
		Timeout    time.Duration `yaml:"timeout"`
		SessionTTL time.Duration `yaml:"session_ttl"`
	} `yaml:"ig"`

	DB         string `yaml:"db_dsn"`
	DBMaxConns int32  `yaml:"db_max_conns"`

	Ledger struct {
		Driver string `yaml:"driver"` // memory | sqlite | postgres
		Path   string `yaml:"path"`   // файл sqlite
	} `yaml:"ledger"`

	History struct {
		Dir string `yaml:"dir"`
	} `yaml:"history"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	// Дефолты стратегий, инструменты их перекрывают
	Defaults StrategyParams `yaml:"defaults"`

	Instruments []Instrument `yaml:"instruments"`
}

type Instrument struct {
	MarketID         string         `yaml:"market_id"`
	Strategy         string         `yaml:"strategy"` // retracement | sma_cross
	Resolution       string         `yaml:"resolution"`
	PriceFetchPoints int            `yaml:"price_fetch_points"` // сколько новых баров тянуть за цикл
	StrategyRecords  int            `yaml:"strategy_records"`   // сколько последних баров отдаём стратегии
	Params           StrategyParams `yaml:"params"`
}

// StrategyParams yaml-зеркало strategy.Params. Нули означают "не задано".
type StrategyParams struct {
	Window                int     `yaml:"window"`
	Distance              int     `yaml:"distance"`
	Prominence            float64 `yaml:"prominence"`
	FiboLevelFrom         float64 `yaml:"fibo_level_from"`
	FiboLevelTo           float64 `yaml:"fibo_level_to"`
	TakeProfitMultiple    float64 `yaml:"take_profit_multiple"`
	ZoneThickness         float64 `yaml:"zone_thickness"`
	MaxDrawdownMultiplier float64 `yaml:"max_drawdown_multiplier"`
	SMAFast               int     `yaml:"sma_fast"`
	SMASlow               int     `yaml:"sma_slow"`
	SMALookback           int     `yaml:"sma_lookback"`
}

func defaultStrategyParams() StrategyParams {
	p := strategy.DefaultParams()
	return StrategyParams{
		Window:                p.Swing.Window,
		Distance:              p.Swing.Distance,
		Prominence:            p.Swing.Prominence,
		FiboLevelFrom:         p.FiboLevelFrom,
		FiboLevelTo:           p.FiboLevelTo,
		TakeProfitMultiple:    p.TakeProfitMultiple,
		ZoneThickness:         p.ZoneThickness,
		MaxDrawdownMultiplier: p.MaxDrawdownMultiplier,
		SMAFast:               p.SMAFast,
		SMASlow:               p.SMASlow,
		SMALookback:           p.SMALookback,
	}
}

// Merge поверх p кладёт заданные (ненулевые) поля o.
func (p StrategyParams) Merge(o StrategyParams) StrategyParams {
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setFloat := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setInt(&p.Window, o.Window)
	setInt(&p.Distance, o.Distance)
	setFloat(&p.Prominence, o.Prominence)
	setFloat(&p.FiboLevelFrom, o.FiboLevelFrom)
	setFloat(&p.FiboLevelTo, o.FiboLevelTo)
	setFloat(&p.TakeProfitMultiple, o.TakeProfitMultiple)
	setFloat(&p.ZoneThickness, o.ZoneThickness)
	setFloat(&p.MaxDrawdownMultiplier, o.MaxDrawdownMultiplier)
	setInt(&p.SMAFast, o.SMAFast)
	setInt(&p.SMASlow, o.SMASlow)
	setInt(&p.SMALookback, o.SMALookback)
	return p
}

func (p StrategyParams) Strategy() strategy.Params {
	return strategy.Params{
		Swing: swing.Params{
			Window:     p.Window,
			Distance:   p.Distance,
			Prominence: p.Prominence,
		},
		FiboLevelFrom:         p.FiboLevelFrom,
		FiboLevelTo:           p.FiboLevelTo,
		TakeProfitMultiple:    p.TakeProfitMultiple,
		ZoneThickness:         p.ZoneThickness,
		MaxDrawdownMultiplier: p.MaxDrawdownMultiplier,
		SMAFast:               p.SMAFast,
		SMASlow:               p.SMASlow,
		SMALookback:           p.SMALookback,
	}
}

// ResolvedParams итоговые параметры инструмента: дефолты пакета, затем defaults, затем params.
func (c *Config) ResolvedParams(in Instrument) StrategyParams {
	return defaultStrategyParams().Merge(c.Defaults).Merge(in.Params)
}

func (c *Config) StrategyParams(in Instrument) strategy.Params {
	return c.ResolvedParams(in).Strategy()
}

// Instrument ищет инструмент по market_id.
func (c *Config) Instrument(marketID string) (Instrument, bool) {
	for _, in := range c.Instruments {
		if in.MarketID == marketID {
			return in, true
		}
	}
	return Instrument{}, false
}

// Load читает yaml. Пустой path = configs/$CONFIG_FILE (по умолчанию values_local.yaml).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = "configs/" + getenvDefault(configFilePathENV, "values_local.yaml")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	config := defaultConfig()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	config.applyEnv()
	config.fillInstruments()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	c := &Config{}
	c.Service.Name = "fibo-bot"
	c.Service.LogLevel = "info"
	c.Service.HealthAddr = ":8080"
	c.Service.Every = time.Hour
	c.IG.URL = "demo"
	c.IG.Timeout = 15 * time.Second
	c.IG.SessionTTL = 5 * time.Hour
	c.Ledger.Driver = LedgerSQLite
	c.Ledger.Path = "data/ledger.db"
	c.History.Dir = "data/history"
	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831
	return c
}

func (c *Config) applyEnv() {
	c.IG.APIKey = getenvDefault(igAPIKeyENV, c.IG.APIKey)
	c.IG.Username = getenvDefault(igUsernameENV, c.IG.Username)
	c.IG.Password = getenvDefault(igPasswordENV, c.IG.Password)
	c.IG.URL = getenvDefault(igURLENV, c.IG.URL)
	c.IG.AccountID = getenvDefault(igAccountIDENV, c.IG.AccountID)
	c.IG.Timeout = durationFromEnv("IG_TIMEOUT", c.IG.Timeout.String())

	c.DB = getenvDefault(databaseDSN, c.DB)
	c.Ledger.Driver = strings.ToLower(getenvDefault(ledgerDriverENV, c.Ledger.Driver))
	c.Service.LogLevel = getenvDefault(logLevelENV, c.Service.LogLevel)
	c.Service.Every = durationFromEnv("CYCLE_EVERY", c.Service.Every.String())

	c.Telegram.Token = getenvDefault(tokenTelegramENV, c.Telegram.Token)
	c.Telegram.ChatID = int64(intFromEnv(chatTelegramENV, int(c.Telegram.ChatID)))

	c.Tracing.Enabled = boolFromEnv("TRACING_ENABLED", c.Tracing.Enabled)

	c.Defaults.MaxDrawdownMultiplier = floatFromEnv("MAX_DRAWDOWN_MULTIPLIER", c.Defaults.MaxDrawdownMultiplier)
}

func (c *Config) fillInstruments() {
	for i := range c.Instruments {
		in := &c.Instruments[i]
		if in.Strategy == "" {
			in.Strategy = string(strategy.KindRetracement)
		}
		in.Resolution = helper.NormResolution(in.Resolution)
		if in.PriceFetchPoints == 0 {
			in.PriceFetchPoints = 2
		}
		if in.StrategyRecords == 0 {
			in.StrategyRecords = 500
		}
	}
}

// Validate ловит несовместимые параметры до старта, а не посреди цикла.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Ledger.Driver {
	case LedgerMemory:
	case LedgerSQLite:
		if c.Ledger.Path == "" {
			bad("ledger.path is required for sqlite")
		}
	case LedgerPostgres:
		if c.DB == "" {
			bad("db_dsn is required for postgres ledger")
		}
	default:
		bad("unknown ledger driver %q", c.Ledger.Driver)
	}

	seen := make(map[string]bool)
	for _, in := range c.Instruments {
		if in.MarketID == "" {
			bad("instrument without market_id")
			continue
		}
		if seen[in.MarketID] {
			bad("duplicate instrument %s", in.MarketID)
		}
		seen[in.MarketID] = true

		if _, ok := helper.ResolutionDuration(in.Resolution); !ok {
			bad("%s: unknown resolution %q", in.MarketID, in.Resolution)
		}
		if in.PriceFetchPoints < 1 {
			bad("%s: price_fetch_points must be >= 1", in.MarketID)
		}

		p := c.StrategyParams(in)
		if _, err := strategy.New(strategy.Kind(in.Strategy), p); err != nil {
			bad("%s: %v", in.MarketID, err)
		}
		if p.Swing.Window < 3 || p.Swing.Distance < 1 || p.Swing.Prominence < 0 {
			bad("%s: swing window=%d distance=%d prominence=%.2f", in.MarketID, p.Swing.Window, p.Swing.Distance, p.Swing.Prominence)
		}
		if p.MaxDrawdownMultiplier <= 0 || p.TakeProfitMultiple <= 0 {
			bad("%s: max_drawdown_multiplier and take_profit_multiple must be > 0", in.MarketID)
		}
		if in.StrategyRecords < p.Swing.Window {
			bad("%s: strategy_records %d < window %d", in.MarketID, in.StrategyRecords, p.Swing.Window)
		}
		if strategy.Kind(in.Strategy) == strategy.KindSMACross && in.StrategyRecords <= p.SMASlow {
			bad("%s: strategy_records %d <= sma_slow %d", in.MarketID, in.StrategyRecords, p.SMASlow)
		}
	}
	return errors.Join(errs...)
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
