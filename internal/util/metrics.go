package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of cart add operations",
	})

	CartClearsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_clears_total",
		Help: "Total number of cart clear operations",
	}, []string{"trigger"})

	CompareRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compare_rejected_total",
		Help: "Total number of rejected compare adds",
	}, []string{"reason"})

	CheckoutAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total number of checkout submissions",
	})

	CheckoutSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_succeeded_total",
		Help: "Total number of successful checkouts",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"stage"})

	PaymentConfirmLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_confirm_latency_seconds",
		Help:    "Latency of processor confirmation calls",
		Buckets: prometheus.DefBuckets,
	})

	PaymentIntentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_intent_latency_seconds",
		Help:    "Latency of payment intent creation calls",
		Buckets: prometheus.DefBuckets,
	})

	CatalogRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_latency_seconds",
		Help:    "Latency of catalog service requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	CatalogCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog cache lookups by outcome",
	}, []string{"outcome"})

	SessionsActiveGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sessions_active",
		Help: "Number of live storefront sessions",
	})

	SessionsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_expired_total",
		Help: "Total number of sessions removed by the janitor",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
