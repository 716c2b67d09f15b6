/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for NeuronEval
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Request metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_eval_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurondb_eval_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Evaluation metrics */
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_eval_evaluations_total",
			Help: "Total number of SQL evaluations",
		},
		[]string{"agent_type", "verdict"},
	)

	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurondb_eval_evaluation_duration_seconds",
			Help:    "Evaluation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent_type"},
	)

	/* Executor metrics */
	executorQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_eval_executor_queries_total",
			Help: "Total number of sandboxed query executions",
		},
		[]string{"backend", "status"},
	)

	executorQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurondb_eval_executor_query_duration_seconds",
			Help:    "Sandboxed query execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"backend"},
	)

	/* LLM metrics */
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_eval_llm_calls_total",
			Help: "Total number of LLM calls",
		},
		[]string{"purpose", "status"},
	)

	llmCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurondb_eval_llm_call_duration_seconds",
			Help:    "External LLM call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"purpose"},
	)

	/* Drift metrics */
	driftChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_eval_drift_checks_total",
			Help: "Total number of drift checks",
		},
		[]string{"agent_type", "classification"},
	)

	baselineRebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_eval_baseline_rebuilds_total",
			Help: "Total number of baseline rebuilds",
		},
		[]string{"agent_type", "status"},
	)

	/* Error classification metrics */
	errorsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_eval_errors_classified_total",
			Help: "Total number of classified errors",
		},
		[]string{"category", "method"},
	)
)

/* RecordHTTPRequest records an HTTP request */
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordEvaluation records a completed evaluation */
func RecordEvaluation(agentType, verdict string, duration time.Duration) {
	evaluationsTotal.WithLabelValues(agentType, verdict).Inc()
	evaluationDuration.WithLabelValues(agentType).Observe(duration.Seconds())
}

/* RecordExecutorQuery records a sandboxed query execution */
func RecordExecutorQuery(backend, status string, duration time.Duration) {
	executorQueriesTotal.WithLabelValues(backend, status).Inc()
	executorQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

/* RecordLLMCall records an external LLM call */
func RecordLLMCall(purpose, status string, duration time.Duration) {
	llmCallsTotal.WithLabelValues(purpose, status).Inc()
	llmCallDuration.WithLabelValues(purpose).Observe(duration.Seconds())
}

/* RecordDriftCheck records a drift check */
func RecordDriftCheck(agentType, classification string) {
	driftChecksTotal.WithLabelValues(agentType, classification).Inc()
}

/* RecordBaselineRebuild records a baseline rebuild attempt */
func RecordBaselineRebuild(agentType, status string) {
	baselineRebuildsTotal.WithLabelValues(agentType, status).Inc()
}

/* RecordErrorClassified records a classified error */
func RecordErrorClassified(category, method string) {
	errorsClassifiedTotal.WithLabelValues(category, method).Inc()
}

/* Handler returns the Prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
