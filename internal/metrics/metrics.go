// Package metrics declares the Prometheus collectors of the service. They are
// registered with the default registry at init and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, chi route pattern
	// and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openart_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openart_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AssetOperations counts asset host calls by operation (upload, retire)
	// and outcome (ok, error, rejected).
	AssetOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openart_asset_operations_total",
			Help: "Asset host operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	SessionsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openart_sessions_purged_total",
			Help: "Expired sessions removed by the purge job",
		},
	)
)
