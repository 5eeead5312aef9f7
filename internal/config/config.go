package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/kjannette/optiondash/internal/logger"
	"github.com/kjannette/optiondash/internal/marketdata"
)

type Config struct {
	App        AppConfig
	API        APIConfig
	MarketData MarketDataConfig
	Defaults   DefaultsConfig
	DB         DBConfig
	Redis      RedisConfig
	Warmer     WarmerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"optiondash"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type APIConfig struct {
	Port            int    `envconfig:"API_PORT" default:"3001"`
	Key             string `envconfig:"API_KEY"`
	CORSAllowOrigin string `envconfig:"CORS_ALLOW_ORIGIN" default:"*"`
}

type MarketDataConfig struct {
	Provider          string        `envconfig:"MARKET_DATA_PROVIDER" default:"yahoo"`
	PolygonAPIKey     string        `envconfig:"POLYGON_API_KEY"`
	YahooBaseURL      string        `envconfig:"YAHOO_BASE_URL"`
	PolygonBaseURL    string        `envconfig:"POLYGON_BASE_URL"`
	Timeout           time.Duration `envconfig:"MARKET_DATA_TIMEOUT" default:"15s"`
	RequestsPerSecond float64       `envconfig:"MARKET_DATA_RPS" default:"2"`
	VolatilityWindow  string        `envconfig:"VOLATILITY_WINDOW" default:"1y"`
	FallbackVol       float64       `envconfig:"FALLBACK_VOLATILITY" default:"0.2"`
}

// DefaultsConfig seeds the dashboard form.
type DefaultsConfig struct {
	Ticker   string  `envconfig:"DEFAULT_TICKER" default:"AAPL"`
	Strike   float64 `envconfig:"DEFAULT_STRIKE" default:"100"`
	Maturity float64 `envconfig:"DEFAULT_MATURITY" default:"1"`
	Rate     float64 `envconfig:"DEFAULT_RATE" default:"0.05"`
	Period   string  `envconfig:"DEFAULT_PERIOD" default:"1y"`
}

type DBConfig struct {
	Enabled  bool   `envconfig:"DB_ENABLED" default:"false"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"optiondash"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"15m"`
}

// WarmerConfig schedules background refreshes; Interval 0 disables them.
type WarmerConfig struct {
	Interval   time.Duration `envconfig:"WARM_INTERVAL" default:"0"`
	Tickers    []string      `envconfig:"WARM_TICKERS"`
	WebhookURL string        `envconfig:"WEBHOOK_URL"`
}

const (
	ProviderYahoo     = "yahoo"
	ProviderPolygon   = "polygon"
	ProviderSynthetic = "synthetic"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	cfg.MarketData.Provider = strings.ToLower(strings.TrimSpace(cfg.MarketData.Provider))
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	log := logger.Named("config")

	switch c.MarketData.Provider {
	case ProviderYahoo, ProviderSynthetic:
	case ProviderPolygon:
		if c.MarketData.PolygonAPIKey == "" {
			errs = append(errs, "POLYGON_API_KEY is required when MARKET_DATA_PROVIDER=polygon")
		}
	default:
		errs = append(errs, fmt.Sprintf("MARKET_DATA_PROVIDER must be yahoo, polygon or synthetic (got %q)", c.MarketData.Provider))
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT out of range: %d", c.API.Port))
	}
	if c.Defaults.Strike <= 0 {
		errs = append(errs, "DEFAULT_STRIKE must be positive")
	}
	if c.Defaults.Maturity <= 0 {
		errs = append(errs, "DEFAULT_MATURITY must be positive")
	}
	if c.MarketData.FallbackVol <= 0 {
		errs = append(errs, "FALLBACK_VOLATILITY must be positive")
	}
	if c.MarketData.Timeout <= 0 {
		errs = append(errs, "MARKET_DATA_TIMEOUT must be positive")
	}
	if _, err := marketdata.ParsePeriod(c.Defaults.Period); err != nil {
		errs = append(errs, "DEFAULT_PERIOD: "+err.Error())
	}
	if _, err := marketdata.ParsePeriod(c.MarketData.VolatilityWindow); err != nil {
		errs = append(errs, "VOLATILITY_WINDOW: "+err.Error())
	}
	if c.Warmer.Interval < 0 {
		errs = append(errs, "WARM_INTERVAL must not be negative")
	}
	if c.DB.Enabled && c.DB.User == "" {
		errs = append(errs, "DB_USER is required when DB_ENABLED=true")
	}

	if c.API.Key == "" {
		log.Warn("API_KEY not set, /v1 endpoints have no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	logger.Named("config").Infow("configuration loaded",
		"env", c.App.Env,
		"port", c.API.Port,
		"auth", boolLabel(c.API.Key != "", "api key", "disabled"),
		"provider", c.MarketData.Provider,
		"volatility_window", c.MarketData.VolatilityWindow,
		"fallback_volatility", c.MarketData.FallbackVol,
		"default_ticker", c.Defaults.Ticker,
		"database", boolLabel(c.DB.Enabled, c.DB.Host, "disabled"),
		"redis", boolLabel(c.Redis.Addr != "", c.Redis.Addr, "disabled"),
		"warmer", boolLabel(c.Warmer.Interval > 0, c.Warmer.Interval.String(), "disabled"),
	)
}

// WarmTickers returns the watch list, defaulting to the dashboard ticker.
func (c *Config) WarmTickers() []string {
	if len(c.Warmer.Tickers) > 0 {
		return c.Warmer.Tickers
	}
	return []string{c.Defaults.Ticker}
}

// DSN builds the postgres URL with credentials escaped.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     net.JoinHostPort(c.DB.Host, strconv.Itoa(c.DB.Port)),
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
