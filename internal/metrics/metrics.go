// Squadforge - AI Teammate Matchmaking and Player Clustering Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadforge

// Package metrics provides Prometheus instrumentation for Squadforge:
// recommendation latency and cache efficiency, store operations, training
// runs, and API endpoint throughput.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of team recommendation computation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	RecommendationCacheWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_write_failures_total",
			Help: "Total number of failed recommendation cache writes (request still served)",
		},
	)

	RecommendationHistoryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_history_failures_total",
			Help: "Total number of failed recommendation history appends (request still served)",
		},
	)

	CandidatesEvaluated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates_evaluated",
			Help:    "Number of candidates scored per recommendation",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badger_operation_duration_seconds",
			Help:    "Duration of BadgerDB store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badger_operation_errors_total",
			Help: "Total number of BadgerDB store operation errors",
		},
		[]string{"operation", "table"},
	)

	FeatureVectorsSynthesized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_vectors_synthesized_total",
			Help: "Total number of feature vectors synthesized for unseen players",
		},
	)

	// Training Metrics
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of training runs by model and outcome",
		},
		[]string{"model", "status"}, // status: "success", "failure", "rejected"
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"model"},
	)

	TrainingQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_queue_depth",
			Help: "Number of training jobs waiting in the queue",
		},
	)

	ModelsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "models_loaded",
			Help: "Number of model kinds with an active loaded model",
		},
	)

	ModelSwapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_swaps_total",
			Help: "Total number of atomic model registry swaps",
		},
		[]string{"model"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordStoreOperation records the duration and outcome of a store operation.
func RecordStoreOperation(operation, table string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordTrainingRun records a completed training run.
func RecordTrainingRun(model string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	TrainingRunsTotal.WithLabelValues(model, status).Inc()
	TrainingDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request observation.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
