// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stream Metrics
	StreamRecordsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_records_published_total",
			Help: "Total number of records published to a stream topic",
		},
		[]string{"topic"},
	)

	StreamPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_publish_errors_total",
			Help: "Total number of failed stream publishes",
		},
		[]string{"topic"},
	)

	StreamRecordsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_records_consumed_total",
			Help: "Total number of records consumed from a stream topic",
		},
		[]string{"topic", "consumer"},
	)

	StreamDecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_decode_failures_total",
			Help: "Total number of records skipped because they failed decode or validation",
		},
		[]string{"topic", "reason"},
	)

	// Aggregator Metrics
	AggregatorActionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_actions_processed_total",
			Help: "Total number of user actions applied to similarity state",
		},
		[]string{"action_type"},
	)

	AggregatorActionsIgnored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregator_actions_ignored_total",
			Help: "Total number of actions that produced no state change",
		},
		[]string{"reason"}, // "weight_not_higher", "unknown_action"
	)

	AggregatorPairsUpdated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregator_pairs_updated_per_action",
			Help:    "Number of similarity pairs recomputed per applied action",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	AggregatorApplyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregator_apply_duration_seconds",
			Help:    "Duration of applying one action to similarity state",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	AggregatorTrackedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregator_tracked_events",
			Help: "Number of distinct events with at least one interaction",
		},
	)

	AggregatorTrackedPairs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregator_tracked_pairs",
			Help: "Number of event pairs with a non-empty co-interaction overlap",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// RPC Metrics
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "Total number of RPC requests",
		},
		[]string{"service", "method", "code"},
	)

	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_request_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"service", "method"},
	)

	RPCStreamedResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_streamed_results",
			Help:    "Number of result records streamed per RPC response",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"method"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of circuit breaker recorded failures",
		},
		[]string{"name"},
	)
)

// RecordDBQuery records the duration and outcome of a database query.
func RecordDBQuery(operation, table string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordRPC records one completed RPC with its gRPC status code string.
func RecordRPC(service, method, code string, start time.Time) {
	RPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	RPCRequestDuration.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
}

// RecordApply records one action applied to aggregator state.
func RecordApply(actionType string, pairsUpdated int, start time.Time) {
	AggregatorActionsProcessed.WithLabelValues(actionType).Inc()
	AggregatorPairsUpdated.Observe(float64(pairsUpdated))
	AggregatorApplyDuration.Observe(time.Since(start).Seconds())
}
