package keycloak

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the identity-provider gateway.
var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idgw_provider_requests_total",
			Help: "Total number of requests sent to the identity provider",
		},
		[]string{"method", "result"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idgw_provider_request_duration_seconds",
			Help:    "Duration of identity provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "result"},
	)

	adminTokenCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idgw_admin_token_cache_hits_total",
			Help: "Total number of admin session cache hits",
		},
	)

	adminTokenCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idgw_admin_token_cache_misses_total",
			Help: "Total number of admin session cache misses",
		},
	)

	adminTokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idgw_admin_token_refresh_total",
			Help: "Total number of admin session refresh attempts",
		},
		[]string{"result"},
	)
)

// Metric result label values.
const (
	metricResultSuccess      = "success"
	metricResultNetworkError = "network_error"
	metricResultHTTPError    = "http_error"
)
