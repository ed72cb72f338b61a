package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cbgate_orders_total",
		Help: "The total number of orders processed",
	}, []string{"status", "side"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cbgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cbgate_upstream_latency_seconds",
		Help:    "Exchange API call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cbgate_tokens_issued_total",
		Help: "Total fresh auth tokens issued (cache misses)",
	})

	WebhookRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cbgate_webhook_rejects_total",
		Help: "Total rejected webhook requests",
	}, []string{"reason"})
)
