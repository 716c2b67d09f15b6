/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    API handlers for NeuronEval
 *
 * Provides HTTP handlers for evaluations, drift scoring, baseline
 * rebuilds, and error classification.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronEval/internal/db"
	"github.com/neurondb/NeuronEval/internal/drift"
	"github.com/neurondb/NeuronEval/internal/eval"
	"github.com/neurondb/NeuronEval/internal/judge"
	"github.com/neurondb/NeuronEval/internal/metrics"
)

type Handlers struct {
	queries    *db.Queries
	evaluator  *eval.Evaluator
	detector   *drift.Detector
	baselines  *drift.Manager
	classifier *judge.Classifier
	gtStore    *eval.GroundTruthStore
}

func NewHandlers(queries *db.Queries, evaluator *eval.Evaluator, detector *drift.Detector, baselines *drift.Manager, classifier *judge.Classifier, gtStore *eval.GroundTruthStore) *Handlers {
	return &Handlers{
		queries:    queries,
		evaluator:  evaluator,
		detector:   detector,
		baselines:  baselines,
		classifier: classifier,
		gtStore:    gtStore,
	}
}

/* Evaluations */

func (h *Handlers) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "evaluation request parsing failed", err), requestID))
		return
	}

	if req.QueryID == "" || req.QueryText == "" || req.AgentType == "" || req.GeneratedSQL == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest,
			"query_id, query_text, agent_type, and generated_sql are required", nil), requestID))
		return
	}

	ctx := metrics.WithQueryIDLogContext(r.Context(), req.QueryID)
	ctx = metrics.WithAgentTypeLogContext(ctx, req.AgentType)

	/* Resolve a ground truth from the corpus when the caller did not
	 * supply one */
	gtSimilarity := req.GTMatchSimilarity
	if req.GroundTruthSQL != "" && gtSimilarity == 0 {
		gtSimilarity = 1.0
	}
	if req.GroundTruthSQL == "" && h.gtStore != nil {
		match, err := h.gtStore.FindMatch(ctx, req.QueryText)
		if err != nil {
			metrics.WarnWithContext(ctx, "Ground truth lookup failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else if match != nil {
			req.GroundTruthSQL = match.SQL
			gtSimilarity = match.Similarity
		}
	}

	rec, err := h.evaluator.Evaluate(ctx, eval.Request{
		QueryID:              req.QueryID,
		QueryText:            req.QueryText,
		AgentType:            req.AgentType,
		GeneratedSQL:         req.GeneratedSQL,
		GroundTruthSQL:       req.GroundTruthSQL,
		ConnectionDescriptor: req.ConnectionDescriptor,
		GTMatchSimilarity:    gtSimilarity,
	})
	if err != nil {
		var notPersisted *eval.ErrNotPersisted
		if errors.As(err, &notPersisted) {
			/* The score is valid; signal the durability gap without
			 * discarding it */
			w.Header().Set("X-Persistence-Failed", "true")
			respondJSON(w, http.StatusAccepted, toEvaluationResponse(notPersisted.Record))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "evaluation failed", err), requestID))
		return
	}

	respondJSON(w, http.StatusCreated, toEvaluationResponse(rec))
}

func (h *Handlers) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())

	rec, err := h.queries.GetEvaluationByQueryID(r.Context(), vars["query_id"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, WrapError(ErrNotFound, requestID))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load evaluation", err), requestID))
		return
	}

	respondJSON(w, http.StatusOK, toEvaluationResponse(rec))
}

func (h *Handlers) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var agentType *string
	if v := r.URL.Query().Get("agent_type"); v != "" {
		agentType = &v
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	recs, err := h.queries.ListEvaluations(r.Context(), agentType, limit, offset)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list evaluations", err), requestID))
		return
	}

	responses := make([]EvaluationResponse, len(recs))
	for i := range recs {
		responses[i] = toEvaluationResponse(&recs[i])
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *Handlers) GetEvaluationSummary(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	summary, err := h.queries.GetEvaluationSummary(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load evaluation summary", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

/* Drift */

func (h *Handlers) ScoreDrift(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	/* The drift stack is absent when no embedding client is configured */
	if h.detector == nil {
		respondError(w, WrapError(NewError(http.StatusServiceUnavailable,
			"drift detection unavailable, no embedding client configured", nil), requestID))
		return
	}

	var req DriftScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "drift request parsing failed", err), requestID))
		return
	}
	if req.QueryID == "" || req.QueryText == "" || req.AgentType == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest,
			"query_id, query_text, and agent_type are required", nil), requestID))
		return
	}

	ctx := metrics.WithQueryIDLogContext(r.Context(), req.QueryID)

	result, err := h.detector.Detect(ctx, req.QueryID, req.QueryText, req.AgentType)
	if err != nil {
		if errors.Is(err, drift.ErrNoBaseline) {
			respondError(w, WrapError(NewError(http.StatusConflict, "no active baseline for agent type", err), requestID))
			return
		}
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "drift scoring failed", err), requestID))
		return
	}

	respondJSON(w, http.StatusOK, DriftScoreResponse{
		QueryID:              result.QueryID,
		AgentType:            result.AgentType,
		DriftScore:           result.DriftScore,
		Classification:       result.Classification,
		SimilarityToBaseline: result.SimilarityToBaseline,
		IsAnomaly:            result.IsAnomaly,
		BaselineVersion:      result.BaselineVersion,
	})
}

func (h *Handlers) ListDrift(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())

	recs, err := h.queries.ListDrift(r.Context(), vars["agent_type"], queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list drift records", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

/* Baselines */

func (h *Handlers) RebuildBaseline(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	agentType := vars["agent_type"]

	if h.baselines == nil {
		respondError(w, WrapError(NewError(http.StatusServiceUnavailable,
			"baseline rebuild unavailable, no embedding client configured", nil), requestID))
		return
	}

	var req RebuildBaselineRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, WrapError(NewError(http.StatusBadRequest, "rebuild request parsing failed", err), requestID))
			return
		}
	}

	corpus := req.Corpus
	if len(corpus) == 0 && h.gtStore != nil {
		corpus = h.gtStore.CorpusFor(agentType, 50)
	}

	baseline, err := h.baselines.Rebuild(r.Context(), agentType, corpus)
	if err != nil {
		switch {
		case errors.Is(err, drift.ErrInsufficientData):
			respondError(w, WrapError(NewError(http.StatusUnprocessableEntity, "corpus too small for baseline", err), requestID))
		case errors.Is(err, drift.ErrRebuildInProgress):
			respondError(w, WrapError(NewError(http.StatusConflict, "baseline rebuild already in progress", err), requestID))
		default:
			respondError(w, WrapError(NewError(http.StatusInternalServerError, "baseline rebuild failed", err), requestID))
		}
		return
	}

	respondJSON(w, http.StatusCreated, BaselineResponse{
		ID:         baseline.ID,
		AgentType:  baseline.AgentType,
		CorpusSize: baseline.CorpusSize,
		Version:    baseline.Version,
		IsActive:   baseline.IsActive,
		CreatedAt:  baseline.CreatedAt,
	})
}

/* Errors */

func (h *Handlers) ClassifyError(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req ClassifyErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "classify request parsing failed", err), requestID))
		return
	}
	if strings.TrimSpace(req.ErrorMessage) == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "error_message is required", nil), requestID))
		return
	}

	cls := h.classifier.Classify(r.Context(), req.ErrorMessage, judge.ClassifyContext{
		Query:    req.QueryText,
		Response: req.Response,
		Logs:     req.Logs,
	})

	rec := &db.ErrorRecord{
		QueryID:    req.QueryID,
		Category:   cls.Category,
		Severity:   cls.Severity,
		Message:    req.ErrorMessage,
		Confidence: cls.Confidence,
		Method:     cls.Method,
		Signature:  cls.Signature,
	}
	if err := h.queries.UpsertErrorRecord(r.Context(), rec); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to record classified error", err), requestID))
		return
	}

	respondJSON(w, http.StatusOK, ClassifyErrorResponse{
		Category:   cls.Category,
		Severity:   cls.Severity,
		Confidence: cls.Confidence,
		Method:     cls.Method,
		Signature:  cls.Signature,
	})
}

func (h *Handlers) GetErrorSummary(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	summary, err := h.queries.GetErrorSummary(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load error summary", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

/* Health */

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok", Version: "1.0.0"}

	if err := h.queries.DB.PingContext(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

/* Helper functions */

func toEvaluationResponse(rec *db.EvaluationRecord) EvaluationResponse {
	return EvaluationResponse{
		ID:              rec.ID,
		QueryID:         rec.QueryID,
		QueryText:       rec.QueryText,
		AgentType:       rec.AgentType,
		GeneratedSQL:    rec.GeneratedSQL,
		GroundTruthSQL:  rec.GroundTruthSQL,
		StructuralScore: rec.StructuralScore,
		SemanticScore:   rec.SemanticScore,
		LLMScore:        rec.LLMScore,
		ResultScore:     rec.ResultScore,
		FinalScore:      rec.FinalScore,
		Verdict:         rec.Verdict,
		Confidence:      rec.Confidence,
		Reasoning:       rec.Reasoning,
		State:           rec.State,
		Details:         rec.Details,
		CreatedAt:       rec.CreatedAt,
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err *APIError) {
	response := ErrorResponse{
		Error: err.Message,
		Code:  err.Code,
	}
	if err.Err != nil {
		response.Message = err.Err.Error()
	}
	if err.RequestID != "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	respondJSON(w, err.Code, response)
}
