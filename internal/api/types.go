/*-------------------------------------------------------------------------
 *
 * types.go
 *    Request/response types for the evaluation API
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/api/types.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"time"

	"github.com/google/uuid"
)

/* CreateEvaluationRequest submits one generated statement for scoring */
type CreateEvaluationRequest struct {
	QueryID      string `json:"query_id"`
	QueryText    string `json:"query_text"`
	AgentType    string `json:"agent_type"`
	GeneratedSQL string `json:"generated_sql"`

	GroundTruthSQL       string  `json:"ground_truth_sql,omitempty"`
	ConnectionDescriptor string  `json:"connection_descriptor,omitempty"`
	GTMatchSimilarity    float64 `json:"gt_match_similarity,omitempty"`
}

/* EvaluationResponse is one scored evaluation */
type EvaluationResponse struct {
	ID              uuid.UUID              `json:"id"`
	QueryID         string                 `json:"query_id"`
	QueryText       string                 `json:"query_text"`
	AgentType       string                 `json:"agent_type"`
	GeneratedSQL    string                 `json:"generated_sql"`
	GroundTruthSQL  *string                `json:"ground_truth_sql,omitempty"`
	StructuralScore float64                `json:"structural_score"`
	SemanticScore   float64                `json:"semantic_score"`
	LLMScore        float64                `json:"llm_score"`
	ResultScore     *float64               `json:"result_score,omitempty"`
	FinalScore      float64                `json:"final_score"`
	Verdict         string                 `json:"verdict"`
	Confidence      float64                `json:"confidence"`
	Reasoning       string                 `json:"reasoning"`
	State           string                 `json:"state"`
	Details         map[string]interface{} `json:"details,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

/* DriftScoreRequest scores one query against the baseline */
type DriftScoreRequest struct {
	QueryID   string `json:"query_id"`
	QueryText string `json:"query_text"`
	AgentType string `json:"agent_type"`
}

/* DriftScoreResponse is one drift observation */
type DriftScoreResponse struct {
	QueryID              string  `json:"query_id"`
	AgentType            string  `json:"agent_type"`
	DriftScore           float64 `json:"drift_score"`
	Classification       string  `json:"classification"`
	SimilarityToBaseline float64 `json:"similarity_to_baseline"`
	IsAnomaly            bool    `json:"is_anomaly"`
	BaselineVersion      int     `json:"baseline_version"`
}

/* RebuildBaselineRequest rebuilds the baseline from a corpus. With an
 * empty corpus the server falls back to the ground-truth store. */
type RebuildBaselineRequest struct {
	Corpus []string `json:"corpus,omitempty"`
}

/* BaselineResponse describes one baseline version */
type BaselineResponse struct {
	ID         uuid.UUID `json:"id"`
	AgentType  string    `json:"agent_type"`
	CorpusSize int       `json:"corpus_size"`
	Version    int       `json:"version"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

/* ClassifyErrorRequest classifies one failure message */
type ClassifyErrorRequest struct {
	QueryID      string `json:"query_id"`
	ErrorMessage string `json:"error_message"`
	QueryText    string `json:"query_text,omitempty"`
	Response     string `json:"response,omitempty"`
	Logs         string `json:"logs,omitempty"`
}

/* ClassifyErrorResponse is one classification outcome */
type ClassifyErrorResponse struct {
	Category   string  `json:"category"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Signature  string  `json:"signature"`
}

/* HealthResponse reports service liveness */
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}
