package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// 1. Satisfy the one required variable.
	os.Setenv("DATABASE_URL", "user:pass@tcp(localhost:3306)/alerts?parseTime=True")
	defer os.Unsetenv("DATABASE_URL")

	// 2. Make sure the optional knobs are unset.
	for _, k := range []string{
		"DAILY_CHANGE_THRESHOLD",
		"MARKET_OPEN_HOUR_UTC",
		"MARKET_OPEN_MINUTE_UTC",
		"FEED_PROVIDER",
		"POLL_INTERVAL_MINS",
		"SMTP_PORT",
		"LOG_LEVEL",
		"NEWS_LIMIT",
	} {
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DailyChangeThreshold != 3.0 {
		t.Errorf("DailyChangeThreshold = %v, want 3.0", cfg.DailyChangeThreshold)
	}
	if cfg.MarketOpenHourUTC != 13 || cfg.MarketOpenMinuteUTC != 30 {
		t.Errorf("Market open = %d:%d, want 13:30", cfg.MarketOpenHourUTC, cfg.MarketOpenMinuteUTC)
	}
	if cfg.FeedProvider != "yahoo" {
		t.Errorf("FeedProvider = %q, want yahoo", cfg.FeedProvider)
	}
	if cfg.PollIntervalMins != 30 {
		t.Errorf("PollIntervalMins = %d, want 30", cfg.PollIntervalMins)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.NewsLimit != 3 {
		t.Errorf("NewsLimit = %d, want 3", cfg.NewsLimit)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without DATABASE_URL")
	}
}

func TestEngineDefaults(t *testing.T) {
	cfg := &Config{
		DailyChangeThreshold: 4.5,
		MarketOpenHourUTC:    10,
		MarketOpenMinuteUTC:  30,
	}

	d := cfg.EngineDefaults()
	if d.DailyChangeThreshold.InexactFloat64() != 4.5 {
		t.Errorf("DailyChangeThreshold = %s, want 4.5", d.DailyChangeThreshold)
	}
	if d.MarketOpenHourUTC != 10 || d.MarketOpenMinuteUTC != 30 {
		t.Errorf("Open = %d:%d, want 10:30", d.MarketOpenHourUTC, d.MarketOpenMinuteUTC)
	}
}
