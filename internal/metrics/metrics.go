// Package metrics provides Prometheus metrics for FleetPulse.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "fleetpulse"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Sheets fetch metrics
var (
	// SheetFetchDuration tracks outbound spreadsheet fetch latency per range.
	SheetFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sheets",
			Name:      "fetch_duration_seconds",
			Help:      "Outbound spreadsheet range fetch latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"range"},
	)

	// SheetFetchErrors counts failed outbound fetches.
	SheetFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sheets",
			Name:      "fetch_errors_total",
			Help:      "Total failed spreadsheet range fetches",
		},
		[]string{"reason"},
	)

	// SheetRowsFetched counts raw rows returned by the source.
	SheetRowsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sheets",
			Name:      "rows_fetched_total",
			Help:      "Total raw rows returned by spreadsheet fetches",
		},
		[]string{"range"},
	)
)

// Pipeline metrics
var (
	// RowsProcessed counts rows that passed filtering and parsing per view.
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_processed_total",
			Help:      "Rows aggregated into report buckets",
		},
		[]string{"view"},
	)

	// RowsDropped counts excluded rows by view and drop reason.
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_dropped_total",
			Help:      "Rows excluded from aggregation by reason",
		},
		[]string{"view", "reason"},
	)
)
