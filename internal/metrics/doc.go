// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered globally via promauto and exposed at the /metrics
endpoint of the ops HTTP server in Prometheus text format:

	curl http://localhost:3900/metrics

# Available Metrics

Stream Metrics:
  - stream_records_published_total: Records published per topic (counter)
  - stream_publish_errors_total: Failed publishes per topic (counter)
  - stream_records_consumed_total: Records consumed per topic and consumer (counter)
  - stream_decode_failures_total: Skipped undecodable records (counter)
    Labels: topic, reason (unmarshal, validation)

Aggregator Metrics:
  - aggregator_actions_processed_total: Applied actions per type (counter)
  - aggregator_actions_ignored_total: No-op actions (counter)
    Labels: reason (weight_not_higher, unknown_action)
  - aggregator_pairs_updated_per_action: Pairs recomputed per action (histogram)
  - aggregator_apply_duration_seconds: State update latency (histogram)
  - aggregator_tracked_events, aggregator_tracked_pairs: State size (gauges)

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)

RPC Metrics:
  - rpc_requests_total: Requests per service, method, status code (counter)
  - rpc_request_duration_seconds: Request latency (histogram)
  - rpc_streamed_results: Records per streamed response (histogram)

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=open, 2=half-open (gauge)
  - circuit_breaker_failures_total: Recorded failures (counter)
*/
package metrics
