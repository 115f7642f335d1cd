package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records admin login attempts by result (success|failure|invalid).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteconfig_auth_attempts_total",
			Help: "Total number of admin login attempts",
		},
		[]string{"result"},
	)

	// ConfigReads counts configuration reads by origin (store|default|timeout).
	ConfigReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteconfig_config_reads_total",
			Help: "Total number of configuration reads by origin",
		},
		[]string{"origin"},
	)

	// ConfigWrites counts configuration writes by result (success|invalid|unavailable|read_only).
	ConfigWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteconfig_config_writes_total",
			Help: "Total number of configuration writes",
		},
		[]string{"result"},
	)

	// StoreLatency measures store operations per adapter kind.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siteconfig_store_operation_seconds",
			Help:    "Configuration store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "operation", "status"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siteconfig_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
