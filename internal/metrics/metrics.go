package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "hvrmanager"
)

var (
	apiDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	// Transport Metrics
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Count of Fivetran API round trips by method and HTTP status.",
	}, []string{"method", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Time taken for a Fivetran API round trip.",
		Buckets:   apiDurationBuckets,
	}, []string{"method"})

	// Lifecycle Operation Metrics
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Count of connector lifecycle operations by outcome.",
	}, []string{"operation", "outcome"})
)
