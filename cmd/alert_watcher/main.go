package main

import (
	"context"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock_alerter/internal/config"
	"stock_alerter/internal/logger"
	"stock_alerter/internal/mailer"
	"stock_alerter/internal/market"
	"stock_alerter/internal/market/alpaca"
	"stock_alerter/internal/market/yahoo"
	"stock_alerter/internal/news"
	"stock_alerter/internal/storage"
	"stock_alerter/internal/watcher"
)

func main() {
	runOnce := flag.Bool("once", false, "run a single evaluation pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("CRITICAL: config: %v", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("main")

	store, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open database")
	}

	var feed market.PriceFeed
	switch cfg.FeedProvider {
	case "alpaca":
		feed = alpaca.NewProvider()
	case "yahoo":
		feed = yahoo.NewProvider()
	default:
		log.Fatal().Str("provider", cfg.FeedProvider).Msg("Unknown feed provider")
	}

	m := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass, news.NewClient(cfg.NewsLimit))
	w := watcher.New(store, feed, m, cfg.EngineDefaults())

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Error().Err(err).Msg("Metrics endpoint stopped")
		}
	}()

	log.Info().
		Str("github_sha", os.Getenv("GITHUB_SHA")).
		Str("feed_provider", cfg.FeedProvider).
		Int("market_open_hour_utc", cfg.MarketOpenHourUTC).
		Int("market_open_minute_utc", cfg.MarketOpenMinuteUTC).
		Float64("daily_change_threshold", cfg.DailyChangeThreshold).
		Msg("Startup marker")

	// Run once immediately; scheduled runs follow.
	w.Poll()

	if *runOnce {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Warn().Msg("Shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(time.Duration(cfg.PollIntervalMins) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Main loop stopping")
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}
