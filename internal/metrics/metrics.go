// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Postgres query performance
// - Supabase Storage client calls and circuit breaker state
// - Clip lifecycle (registrations, verifications, failures)
// - NATS event publication

var (
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

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postgres_query_duration_seconds",
			Help:    "Duration of Postgres queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postgres_query_errors_total",
			Help: "Total number of Postgres query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postgres_connections_in_use",
			Help: "Current number of database connections in use",
		},
	)

	// Clip Lifecycle Metrics
	ClipsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clips_registered_total",
			Help: "Total number of clips registered (upload sessions issued)",
		},
		[]string{"contract_type"},
	)

	ClipsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clips_verified_total",
			Help: "Total number of clips verified and finalized",
		},
		[]string{"status"}, // uploaded, uploaded_temp
	)

	ClipVerificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_verification_failures_total",
			Help: "Total number of failed upload verifications",
		},
		[]string{"reason"}, // size_mismatch, etag_mismatch, object_inaccessible
	)

	ClipRegistrationCompensations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clip_registration_compensations_total",
			Help: "Total number of queued rows deleted after signed upload URL issuance failed",
		},
	)

	// Storage Client Metrics
	StorageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_request_duration_seconds",
			Help:    "Duration of Supabase Storage API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // sign_upload, sign_download, sign_batch, stat
	)

	StorageRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_request_errors_total",
			Help: "Total number of Supabase Storage API errors",
		},
		[]string{"operation"},
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
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Event Publication Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of clip events published to NATS",
		},
	)

	NATSPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_publish_failures_total",
			Help: "Total number of failed clip event publications",
		},
	)

	NATSPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_publish_duration_seconds",
			Help:    "Duration of NATS publish operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

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

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordClipRegistered records an issued upload session.
func RecordClipRegistered(contractType string) {
	ClipsRegistered.WithLabelValues(contractType).Inc()
}

// RecordClipVerified records a finalized clip.
func RecordClipVerified(status string) {
	ClipsVerified.WithLabelValues(status).Inc()
}

// RecordVerificationFailure records a failed upload verification.
func RecordVerificationFailure(reason string) {
	ClipVerificationFailures.WithLabelValues(reason).Inc()
}

// RecordStorageRequest records a Supabase Storage API call.
func RecordStorageRequest(operation string, duration time.Duration, err error) {
	StorageRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StorageRequestErrors.WithLabelValues(operation).Inc()
	}
}

// RecordNATSPublish records the outcome of a clip event publication.
func RecordNATSPublish(duration time.Duration, err error) {
	NATSPublishDuration.Observe(duration.Seconds())
	if err != nil {
		NATSPublishFailures.Inc()
		return
	}
	NATSMessagesPublished.Inc()
}
