// Package metrics holds the Prometheus collectors shared by the feeds,
// the credential source and the websocket hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedFetches counts fetch attempts by dashboard and outcome
	// (live, fallback, empty).
	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_feed_fetches_total",
		Help: "Dashboard data fetches by outcome.",
	}, []string{"dashboard", "result"})

	FeedFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_feed_fetch_duration_seconds",
		Help:    "Latency of the dashboard SELECT.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dashboard"})

	SnapshotRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dashboard_snapshot_rows",
		Help: "Rows held in the last good snapshot.",
	}, []string{"dashboard"})

	SnapshotAge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dashboard_snapshot_fetched_timestamp_seconds",
		Help: "Unix time of the last successful fetch.",
	}, []string{"dashboard"})

	CredentialRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lakebase_credential_refreshes_total",
		Help: "Database credentials minted for new connections.",
	}, []string{"result"})

	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_websocket_clients",
		Help: "Connected websocket clients.",
	})

	TickUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_tick_updates_total",
		Help: "Updates built per dashboard tick.",
	}, []string{"dashboard", "tick"})
)
