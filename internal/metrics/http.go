package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "http_request_latency_seconds",
			Namespace: KhetsenseNamespace,
			Buckets:   prometheus.DefBuckets,
			Help:      "The latency of http operations in seconds.",
		},
		[]string{"verb"},
	)

	ReportDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "report_degraded_total",
			Namespace: KhetsenseNamespace,
			Help:      "Reports assembled with one or more datasets missing after a failed read.",
		},
		[]string{"dataset"},
	)
)
