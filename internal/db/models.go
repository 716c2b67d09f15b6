/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for NeuronEval
 *
 * Defines data structures for evaluation records, drift records,
 * baselines, and classified error records.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* EvaluationRecord is the immutable outcome of one SQL evaluation */
type EvaluationRecord struct {
	ID              uuid.UUID `db:"id"`
	QueryID         string    `db:"query_id"`
	QueryText       string    `db:"query_text"`
	AgentType       string    `db:"agent_type"`
	GeneratedSQL    string    `db:"generated_sql"`
	GroundTruthSQL  *string   `db:"ground_truth_sql"`
	StructuralScore float64   `db:"structural_score"`
	SemanticScore   float64   `db:"semantic_score"`
	LLMScore        float64   `db:"llm_score"`
	ResultScore     *float64  `db:"result_score"`
	FinalScore      float64   `db:"final_score"`
	Verdict         string    `db:"verdict"`
	Confidence      float64   `db:"confidence"`
	Reasoning       string    `db:"reasoning"`
	State           string    `db:"state"`
	Details         JSONBMap  `db:"details"`
	CreatedAt       time.Time `db:"created_at"`
}

/* DriftRecord is one append-only drift observation */
type DriftRecord struct {
	ID                   uuid.UUID `db:"id"`
	QueryID              string    `db:"query_id"`
	AgentType            string    `db:"agent_type"`
	Embedding            Vector    `db:"embedding"`
	DriftScore           float64   `db:"drift_score"`
	Classification       string    `db:"classification"`
	SimilarityToBaseline float64   `db:"similarity_to_baseline"`
	IsAnomaly            bool      `db:"is_anomaly"`
	CreatedAt            time.Time `db:"created_at"`
}

/* Baseline is an immutable, versioned centroid for one agent type */
type Baseline struct {
	ID         uuid.UUID `db:"id"`
	AgentType  string    `db:"agent_type"`
	Centroid   Vector    `db:"centroid"`
	CorpusSize int       `db:"corpus_size"`
	Version    int       `db:"version"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
}

/* ErrorRecord is a classified failure, deduplicated by category + signature */
type ErrorRecord struct {
	ID              uuid.UUID `db:"id"`
	QueryID         string    `db:"query_id"`
	Category        string    `db:"category"`
	Severity        string    `db:"severity"`
	Message         string    `db:"message"`
	Confidence      float64   `db:"confidence"`
	Method          string    `db:"method"`
	Signature       string    `db:"signature"`
	OccurrenceCount int       `db:"occurrence_count"`
	FirstSeenAt     time.Time `db:"first_seen_at"`
	LastSeenAt      time.Time `db:"last_seen_at"`
}

/* JSONBMap wraps map[string]interface{} for JSONB columns */
type JSONBMap map[string]interface{}

func (m JSONBMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONB map: %w", err)
	}
	return data, nil
}

func (m *JSONBMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type: %T", src)
	}

	return json.Unmarshal(data, m)
}

/* Vector wraps []float32 for JSONB-encoded embedding columns */
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vector: %w", err)
	}
	return data, nil
}

func (v *Vector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}

	var data []byte
	switch s := src.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("unsupported vector source type: %T", src)
	}

	var values []float32
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to unmarshal vector: %w", err)
	}
	*v = values
	return nil
}
