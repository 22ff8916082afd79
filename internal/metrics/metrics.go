// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package metrics holds the Prometheus instrumentation for Fleetwatch:
// vendor API calls, sync schedulers, DuckDB queries, the HTTP API, the
// WebSocket feed, event fan-out and the legacy importer.
//
// All collectors are registered on the default registry through promauto and
// exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Vendor API Metrics
	BrigadeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brigade_requests_total",
			Help: "Total number of vendor API requests",
		},
		[]string{"operation", "status"}, // status: "success", "error"
	)

	BrigadeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brigade_request_duration_seconds",
			Help:    "Vendor API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	BrigadeRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brigade_retries_total",
			Help: "Total number of vendor API retry attempts",
		},
		[]string{"operation"},
	)

	BrigadeTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brigade_token_refreshes_total",
			Help: "Total number of vendor key refreshes by reason",
		},
		[]string{"reason"}, // "initial", "expired", "rejected"
	)

	BrigadeRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brigade_records_skipped_total",
			Help: "Vendor records dropped because they could not be parsed",
		},
		[]string{"entity"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Sync Scheduler Metrics
	SyncTickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_tick_duration_seconds",
			Help:    "Duration of one scheduler tick in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"scheduler"},
	)

	SyncRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_processed_total",
			Help: "Total number of records written by a scheduler",
		},
		[]string{"scheduler"},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of failed scheduler ticks",
		},
		[]string{"scheduler", "error_type"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful tick",
		},
		[]string{"scheduler"},
	)

	SchedulerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_scheduler_state",
			Help: "Scheduler state (0=idle, 1=running, 2=backoff)",
		},
		[]string{"scheduler"},
	)

	// Domain Metrics
	AlarmsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alarms_inserted_total",
			Help: "Total number of new alarm events stored",
		},
	)

	AlarmsDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alarms_duplicate_total",
			Help: "Total number of alarm events already present",
		},
	)

	AlarmsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alarms_purged_total",
			Help: "Total number of alarm events removed by retention",
		},
	)

	PositionsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "positions_skipped_total",
			Help: "Positions not stored, by reason",
		},
		[]string{"reason"}, // "no_fix", "out_of_range", "unknown_device"
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

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages broadcast",
		},
		[]string{"type"},
	)

	// Event Fan-out Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published",
		},
		[]string{"topic"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Total number of failed event publishes",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of events delivered to the live feed",
		},
		[]string{"topic"},
	)

	// Legacy Import Metrics
	ImportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacy_import_records_total",
			Help: "Rows read from a legacy database, by table and outcome",
		},
		[]string{"table", "outcome"}, // outcome: "imported", "skipped", "failed"
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBrigadeRequest records one vendor API attempt.
func RecordBrigadeRequest(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	BrigadeRequestsTotal.WithLabelValues(operation, status).Inc()
	BrigadeRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSyncTick records the outcome of one scheduler tick. errorType is empty on success.
func RecordSyncTick(scheduler string, duration time.Duration, records int, errorType string) {
	SyncTickDuration.WithLabelValues(scheduler).Observe(duration.Seconds())
	SyncRecordsProcessed.WithLabelValues(scheduler).Add(float64(records))
	if errorType != "" {
		SyncErrors.WithLabelValues(scheduler, errorType).Inc()
		return
	}
	SyncLastSuccess.WithLabelValues(scheduler).Set(float64(time.Now().Unix()))
}

// SetSchedulerState publishes the numeric scheduler state.
func SetSchedulerState(scheduler string, state float64) {
	SchedulerState.WithLabelValues(scheduler).Set(state)
}

// RecordAlarmInsert counts one alarm insert outcome.
func RecordAlarmInsert(inserted bool) {
	if inserted {
		AlarmsInserted.Inc()
	} else {
		AlarmsDuplicate.Inc()
	}
}
