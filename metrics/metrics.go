// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SocialOperations 社交操作计数，result: success | error | noop
	SocialOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_social_operations_total",
			Help: "Total number of social graph operations",
		},
		[]string{"operation", "result"},
	)

	// FeedEventFailures 动态写入失败次数（不影响主操作）
	FeedEventFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_feed_event_failures_total",
			Help: "Total number of feed events that could not be recorded",
		},
		[]string{"event_type"},
	)

	RecommendationNeighbors = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filmorate_recommendation_neighbors",
			Help:    "Number of taste neighbors used per recommendation request",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 20},
		},
	)

	PopularCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmorate_popular_cache_hits_total",
			Help: "Total number of popular film cache hits",
		},
	)

	PopularCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmorate_popular_cache_misses_total",
			Help: "Total number of popular film cache misses",
		},
	)

	// CircuitBreakerState 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "filmorate_circuit_breaker_state",
			Help: "Circuit breaker state per collaborator",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_circuit_breaker_requests_total",
			Help: "Requests through circuit breakers by result",
		},
		[]string{"name", "result"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmorate_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordOperation 记录一次社交操作结果
func RecordOperation(operation string, err error, changed bool) {
	result := "success"
	switch {
	case err != nil:
		result = "error"
	case !changed:
		result = "noop"
	}
	SocialOperations.WithLabelValues(operation, result).Inc()
}
