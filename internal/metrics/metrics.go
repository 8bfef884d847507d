package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerter_evaluations_total",
			Help: "Ticker evaluations by outcome",
		},
		[]string{"outcome"}, // evaluated, data_unavailable, stale_data, market_closed
	)

	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerter_alerts_fired_total",
			Help: "Fired alert conditions by type",
		},
		[]string{"condition"},
	)

	FeedErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerter_feed_errors_total",
			Help: "Price feed lookups that returned no usable data",
		},
	)

	StoreErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerter_store_errors_total",
			Help: "Failed watchlist flag updates",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerter_emails_sent_total",
			Help: "Alert emails by delivery status",
		},
		[]string{"status"}, // sent, failed
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alerter_run_duration_seconds",
			Help:    "Duration of one full watchlist pass",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	WatchlistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerter_watchlist_size",
			Help: "Records seen in the last pass",
		},
	)
)
