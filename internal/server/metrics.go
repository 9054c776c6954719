package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	MetricRequestsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dproxy_requests_resolved_total",
			Help: "Requests terminated by each resolver stage",
		},
		[]string{"stage"},
	)
	MetricUpstreamErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dproxy_upstream_errors_total",
			Help: "Upstream exchanges that failed before a response was received",
		},
	)
	MetricUpstreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dproxy_upstream_duration_seconds",
			Help:    "Latency of upstream exchanges",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var metricsOnce sync.Once

// InitMetrics registers Prometheus metrics with the default registry.
func InitMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(MetricRequestsResolved)
		prometheus.MustRegister(MetricUpstreamErrors)
		prometheus.MustRegister(MetricUpstreamDuration)
	})
}
