package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"stock_alerter/internal/engine"
)

// Config is the full environment surface of the alert watcher. Defaults
// here are the documented ones: they gate every condition, so they must
// be explicit rather than buried in the code.
type Config struct {
	// MySQL DSN for the watchlist and mailing list tables.
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// SMTP credentials. Missing credentials downgrade the mailer to a
	// logged no-op instead of failing the run.
	EmailUser string `envconfig:"EMAIL_USER"`
	EmailPass string `envconfig:"EMAIL_PASS"`
	SMTPHost  string `envconfig:"SMTP_HOST" default:"smtp-auth.mailprotect.be"`
	SMTPPort  int    `envconfig:"SMTP_PORT" default:"587"`

	// Global daily-move threshold in percent; a per-record value wins.
	DailyChangeThreshold float64 `envconfig:"DAILY_CHANGE_THRESHOLD" default:"3.0"`

	// Market open in UTC (13:30 = 9:30 ET, US cash open). No alert of
	// any kind fires before this time or on weekends.
	MarketOpenHourUTC   int `envconfig:"MARKET_OPEN_HOUR_UTC" default:"13"`
	MarketOpenMinuteUTC int `envconfig:"MARKET_OPEN_MINUTE_UTC" default:"30"`

	// Price feed backend: "yahoo" or "alpaca". Alpaca needs the usual
	// APCA_* keys in the environment.
	FeedProvider string `envconfig:"FEED_PROVIDER" default:"yahoo"`

	PollIntervalMins int    `envconfig:"POLL_INTERVAL_MINS" default:"30"`
	MetricsAddr      string `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`

	// Headlines attached to each alert email.
	NewsLimit int `envconfig:"NEWS_LIMIT" default:"3"`
}

// Load reads a .env file if present, then maps the environment onto a
// Config. A missing .env is fine; production sets real variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EngineDefaults converts the configured globals into the engine's
// value type.
func (c *Config) EngineDefaults() engine.Defaults {
	return engine.Defaults{
		DailyChangeThreshold: decimal.NewFromFloat(c.DailyChangeThreshold),
		MarketOpenHourUTC:    c.MarketOpenHourUTC,
		MarketOpenMinuteUTC:  c.MarketOpenMinuteUTC,
	}
}
