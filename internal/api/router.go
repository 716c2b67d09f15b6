/*-------------------------------------------------------------------------
 *
 * router.go
 *    HTTP route registration
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/api/router.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronEval/internal/metrics"
)

/* NewRouter wires all routes and middleware */
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(SecurityHeadersMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/evaluations", h.CreateEvaluation).Methods(http.MethodPost)
	v1.HandleFunc("/evaluations", h.ListEvaluations).Methods(http.MethodGet)
	v1.HandleFunc("/evaluations/summary", h.GetEvaluationSummary).Methods(http.MethodGet)
	v1.HandleFunc("/evaluations/{query_id}", h.GetEvaluation).Methods(http.MethodGet)

	v1.HandleFunc("/drift/score", h.ScoreDrift).Methods(http.MethodPost)
	v1.HandleFunc("/drift/{agent_type}", h.ListDrift).Methods(http.MethodGet)

	v1.HandleFunc("/baselines/{agent_type}/rebuild", h.RebuildBaseline).Methods(http.MethodPost)

	v1.HandleFunc("/errors/classify", h.ClassifyError).Methods(http.MethodPost)
	v1.HandleFunc("/errors/summary", h.GetErrorSummary).Methods(http.MethodGet)

	return r
}
