// Package metrics holds the prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by route, method and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offplan_http_requests_total",
			Help: "HTTP requests handled, by route, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPDuration observes request latency by route.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offplan_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Forecasts counts forecast computations by outcome.
	Forecasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offplan_forecasts_total",
			Help: "Forecast computations, by outcome",
		},
		[]string{"status"},
	)

	// Scenarios counts projected scenarios.
	Scenarios = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offplan_scenarios_projected_total",
			Help: "Scenarios projected across all forecasts",
		},
	)

	// CalculationErrors counts failed calculations by operation and error type.
	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offplan_calculation_errors_total",
			Help: "Failed calculations, by operation and error type",
		},
		[]string{"op", "error_type"},
	)

	// CacheLookups counts forecast cache lookups by result.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offplan_cache_lookups_total",
			Help: "Forecast cache lookups, by hit or miss",
		},
		[]string{"result"},
	)
)
