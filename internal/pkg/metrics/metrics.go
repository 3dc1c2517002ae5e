package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage outcomes recorded by the ingestion pipeline
const (
	OutcomeSuccess  = "success"
	OutcomeSkipped  = "skipped"
	OutcomeDegraded = "degraded"
	OutcomeFailure  = "failure"
)

var (
	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedsphere_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedsphere_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Ingestion pipeline metrics
	IngestStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedsphere_ingest_stage_total",
			Help: "Ingestion pipeline stage outcomes",
		},
		[]string{"stage", "outcome"}, // outcome: success, skipped, degraded, failure
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedsphere_ingest_duration_seconds",
			Help:    "End-to-end duration of message and comment ingestion",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"pipeline", "result"},
	)

	BlobChunksFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedsphere_blob_chunks_fetched_total",
			Help: "Total number of ranged reads issued against object storage",
		},
	)

	// Collaborator metrics
	CollaboratorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedsphere_collaborator_requests_total",
			Help: "Outbound analysis service requests by result",
		},
		[]string{"collaborator", "result"}, // result: success, failure, rejected, retry
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedsphere_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Live feed
	LiveFeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedsphere_live_feed_clients",
			Help: "Number of connected live feed WebSocket clients",
		},
	)
)

// RecordAPIRequest records an API request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordStage records the outcome of one ingestion stage
func RecordStage(stage, outcome string) {
	IngestStageTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordIngest records the duration of one pipeline run
func RecordIngest(pipeline string, err error, duration time.Duration) {
	result := OutcomeSuccess
	if err != nil {
		result = OutcomeFailure
	}
	IngestDuration.WithLabelValues(pipeline, result).Observe(duration.Seconds())
}
