package watcher

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stock_alerter/internal/engine"
	"stock_alerter/internal/logger"
	"stock_alerter/internal/market"
	"stock_alerter/internal/metrics"
	"stock_alerter/internal/models"
	"stock_alerter/internal/storage"
)

// Alerter delivers one fired condition. Implementations are fire and
// forget; failures are their own problem.
type Alerter interface {
	Send(ticker, reason string, rec models.WatchlistRecord, mailingList []string)
}

// Watcher runs one evaluation pass over the whole watchlist per Poll.
// Each record is processed independently: a guard or failure on one
// ticker never blocks the rest. The design assumes at most one
// concurrent pass; flag writes are not tied transactionally to the
// reads that produced them, so overlapping runs can double-send.
type Watcher struct {
	store    storage.WatchlistStore
	feed     market.PriceFeed
	alerter  Alerter
	defaults engine.Defaults

	// now is injectable for tests; defaults to the UTC wall clock.
	now func() time.Time
}

// RunSummary aggregates per-ticker outcomes of one pass.
type RunSummary struct {
	RunID           string
	Evaluated       int
	DataUnavailable int
	StaleData       int
	MarketClosed    int
	AlertsFired     int
	Errors          int
}

func New(store storage.WatchlistStore, feed market.PriceFeed, alerter Alerter, defaults engine.Defaults) *Watcher {
	return &Watcher{
		store:    store,
		feed:     feed,
		alerter:  alerter,
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Poll evaluates every watchlist record once and returns the summary.
func (w *Watcher) Poll() RunSummary {
	start := time.Now()
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	summary := RunSummary{RunID: uuid.NewString()}
	log := logger.WithComponent("watcher").With().Str("run_id", summary.RunID).Logger()

	mailing, err := w.store.ListMailingEmails()
	if err != nil {
		// Record-level recipients still work; degrade instead of abort.
		log.Error().Err(err).Msg("Failed to load mailing list")
		summary.Errors++
		mailing = nil
	}

	records, err := w.store.ListRecords()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load watchlist")
		summary.Errors++
		return summary
	}
	metrics.WatchlistSize.Set(float64(len(records)))

	now := w.now()
	log.Info().
		Int("records", len(records)).
		Str("utc_now", now.Format(time.RFC3339)).
		Int("weekday", int(now.Weekday())).
		Msg("Evaluation pass started")

	for _, rec := range records {
		w.processRecord(log, &summary, rec, mailing, now)
	}

	log.Info().
		Int("evaluated", summary.Evaluated).
		Int("data_unavailable", summary.DataUnavailable).
		Int("stale_data", summary.StaleData).
		Int("market_closed", summary.MarketClosed).
		Int("alerts_fired", summary.AlertsFired).
		Int("errors", summary.Errors).
		Msg("Evaluation pass finished")

	return summary
}

func (w *Watcher) processRecord(log zerolog.Logger, summary *RunSummary, rec models.WatchlistRecord, mailing []string, now time.Time) {
	tlog := log.With().Str("ticker", rec.Ticker).Logger()

	snap, err := w.feed.LatestTwoCloses(rec.Ticker)
	if err != nil {
		metrics.FeedErrorsTotal.Inc()
		if errors.Is(err, market.ErrUnavailable) {
			tlog.Warn().Err(err).Msg("Invalid or insufficient ticker data")
		} else {
			tlog.Error().Err(err).Msg("Price feed failure")
			summary.Errors++
		}
		snap = nil // the engine treats a nil snapshot as unavailable
	}

	res := engine.Evaluate(rec, snap, now, w.defaults)
	metrics.EvaluationsTotal.WithLabelValues(string(res.Outcome)).Inc()

	switch res.Outcome {
	case engine.OutcomeEvaluated:
		summary.Evaluated++
	case engine.OutcomeDataUnavailable:
		summary.DataUnavailable++
	case engine.OutcomeStaleData:
		summary.StaleData++
		tlog.Info().Msg("Skipping notification due to outdated data")
	case engine.OutcomeMarketClosed:
		summary.MarketClosed++
		tlog.Info().Msg("Skipping notification due to market being closed")
	}

	for _, cond := range res.Fired {
		metrics.AlertsFiredTotal.WithLabelValues(string(cond.Type)).Inc()
		summary.AlertsFired++
		tlog.Info().
			Str("condition", string(cond.Type)).
			Str("reason", cond.Reason).
			Msg("Alert fired")
		w.alerter.Send(rec.Ticker, cond.Reason, rec, mailing)
	}

	if len(res.Mutations) > 0 {
		if err := w.store.ApplyUpdates(rec.Ticker, res.Mutations); err != nil {
			// Flags that fail to persist will re-fire next run. That is
			// the original's non-transactional behavior: duplicate over
			// silent loss.
			metrics.StoreErrorsTotal.Inc()
			summary.Errors++
			tlog.Error().Err(err).Msg("Failed to persist notification flags")
		}
	}
}
