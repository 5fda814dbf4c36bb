package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calcd_connections_total",
		Help: "Connections accepted since start.",
	})
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calcd_connections_active",
		Help: "Connections currently open.",
	})
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calcd_requests_total",
		Help: "Request lines received since start.",
	})
	responsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcd_responses_total",
		Help: "Responses sent, by status.",
	}, []string{"status"})
	requestSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calcd_request_seconds",
		Help:    "Request handling latency.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})
	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calcd_evictions_total",
		Help: "Connections closed for idling past the threshold.",
	})
)
