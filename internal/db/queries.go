/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for NeuronEval
 *
 * Provides database query functions for evaluation records, drift
 * records, baselines, and classified errors.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

/* ErrNotFound is returned when a record does not exist */
var ErrNotFound = errors.New("record not found")

type Queries struct {
	DB *sqlx.DB
}

func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{DB: db}
}

/* Evaluation queries */
const (
	insertEvaluationQuery = `
		INSERT INTO neuroneval.evaluations
		(query_id, query_text, agent_type, generated_sql, ground_truth_sql,
		 structural_score, semantic_score, llm_score, result_score,
		 final_score, verdict, confidence, reasoning, state, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::jsonb)
		RETURNING id, created_at`

	getEvaluationByQueryIDQuery = `SELECT * FROM neuroneval.evaluations WHERE query_id = $1`

	listEvaluationsQuery = `
		SELECT * FROM neuroneval.evaluations
		WHERE ($1::text IS NULL OR agent_type = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	evaluationSummaryQuery = `
		SELECT agent_type,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE verdict = 'PASS') AS passed,
		       AVG(final_score) AS avg_score
		FROM neuroneval.evaluations
		GROUP BY agent_type
		ORDER BY agent_type`
)

/* Drift queries */
const (
	insertDriftQuery = `
		INSERT INTO neuroneval.drift_monitoring
		(query_id, agent_type, embedding, drift_score, classification,
		 similarity_to_baseline, is_anomaly)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7)
		RETURNING id, created_at`

	listDriftQuery = `
		SELECT * FROM neuroneval.drift_monitoring
		WHERE agent_type = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

/* Baseline queries */
const (
	getActiveBaselineQuery = `
		SELECT * FROM neuroneval.baselines
		WHERE agent_type = $1 AND is_active
		LIMIT 1`

	deactivateBaselinesQuery = `
		UPDATE neuroneval.baselines SET is_active = FALSE
		WHERE agent_type = $1 AND is_active`

	insertBaselineQuery = `
		INSERT INTO neuroneval.baselines (agent_type, centroid, corpus_size, version, is_active)
		VALUES ($1, $2::jsonb, $3,
		        COALESCE((SELECT MAX(version) FROM neuroneval.baselines WHERE agent_type = $1), 0) + 1,
		        TRUE)
		RETURNING id, version, created_at`
)

/* Error record queries */
const (
	upsertErrorQuery = `
		INSERT INTO neuroneval.errors
		(query_id, category, severity, message, confidence, method, signature,
		 occurrence_count, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, NOW(), NOW())
		ON CONFLICT (category, signature) DO UPDATE SET
			occurrence_count = neuroneval.errors.occurrence_count + 1,
			last_seen_at = NOW(),
			query_id = EXCLUDED.query_id
		RETURNING id, occurrence_count, first_seen_at, last_seen_at`

	errorSummaryQuery = `
		SELECT category, severity, COUNT(*) AS distinct_errors, SUM(occurrence_count) AS total_occurrences
		FROM neuroneval.errors
		GROUP BY category, severity
		ORDER BY category, severity`
)

/* Evaluation methods */
func (q *Queries) InsertEvaluation(ctx context.Context, rec *EvaluationRecord) error {
	detailsValue, err := rec.Details.Value()
	if err != nil {
		return fmt.Errorf("failed to convert evaluation details: %w", err)
	}

	params := []interface{}{
		rec.QueryID, rec.QueryText, rec.AgentType, rec.GeneratedSQL, rec.GroundTruthSQL,
		rec.StructuralScore, rec.SemanticScore, rec.LLMScore, rec.ResultScore,
		rec.FinalScore, rec.Verdict, rec.Confidence, rec.Reasoning, rec.State, detailsValue,
	}
	err = q.DB.GetContext(ctx, rec, insertEvaluationQuery, params...)
	if err != nil {
		return fmt.Errorf("evaluation record creation failed: query_id='%s', error=%w", rec.QueryID, err)
	}
	return nil
}

func (q *Queries) GetEvaluationByQueryID(ctx context.Context, queryID string) (*EvaluationRecord, error) {
	var rec EvaluationRecord
	err := q.DB.GetContext(ctx, &rec, getEvaluationByQueryIDQuery, queryID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: query_id='%s', error=%w", queryID, err)
	}
	return &rec, nil
}

func (q *Queries) ListEvaluations(ctx context.Context, agentType *string, limit, offset int) ([]EvaluationRecord, error) {
	var recs []EvaluationRecord
	err := q.DB.SelectContext(ctx, &recs, listEvaluationsQuery, agentType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return recs, nil
}

/* EvaluationSummary holds per-agent evaluation aggregates */
type EvaluationSummary struct {
	AgentType string   `db:"agent_type"`
	Total     int      `db:"total"`
	Passed    int      `db:"passed"`
	AvgScore  *float64 `db:"avg_score"`
}

func (q *Queries) GetEvaluationSummary(ctx context.Context) ([]EvaluationSummary, error) {
	var rows []EvaluationSummary
	err := q.DB.SelectContext(ctx, &rows, evaluationSummaryQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation summary: %w", err)
	}
	return rows, nil
}

/* Drift methods */
func (q *Queries) InsertDrift(ctx context.Context, rec *DriftRecord) error {
	embeddingValue, err := rec.Embedding.Value()
	if err != nil {
		return fmt.Errorf("failed to convert drift embedding: %w", err)
	}

	params := []interface{}{
		rec.QueryID, rec.AgentType, embeddingValue, rec.DriftScore,
		rec.Classification, rec.SimilarityToBaseline, rec.IsAnomaly,
	}
	err = q.DB.GetContext(ctx, rec, insertDriftQuery, params...)
	if err != nil {
		return fmt.Errorf("drift record creation failed: query_id='%s', error=%w", rec.QueryID, err)
	}
	return nil
}

func (q *Queries) ListDrift(ctx context.Context, agentType string, limit, offset int) ([]DriftRecord, error) {
	var recs []DriftRecord
	err := q.DB.SelectContext(ctx, &recs, listDriftQuery, agentType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list drift records: agent_type='%s', error=%w", agentType, err)
	}
	return recs, nil
}

/* Baseline methods */
func (q *Queries) ActiveBaseline(ctx context.Context, agentType string) (*Baseline, error) {
	var b Baseline
	err := q.DB.GetContext(ctx, &b, getActiveBaselineQuery, agentType)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active baseline: agent_type='%s', error=%w", agentType, err)
	}
	return &b, nil
}

/* InsertBaseline writes a new baseline version and atomically makes it active.
 * The deactivate + insert pair runs in one transaction so readers never see
 * zero or two active versions. */
func (q *Queries) InsertBaseline(ctx context.Context, b *Baseline) error {
	centroidValue, err := b.Centroid.Value()
	if err != nil {
		return fmt.Errorf("failed to convert baseline centroid: %w", err)
	}

	tx, err := q.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("baseline transaction begin failed: agent_type='%s', error=%w", b.AgentType, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deactivateBaselinesQuery, b.AgentType); err != nil {
		return fmt.Errorf("baseline deactivation failed: agent_type='%s', error=%w", b.AgentType, err)
	}

	row := tx.QueryRowxContext(ctx, insertBaselineQuery, b.AgentType, centroidValue, b.CorpusSize)
	if err := row.Scan(&b.ID, &b.Version, &b.CreatedAt); err != nil {
		return fmt.Errorf("baseline insert failed: agent_type='%s', error=%w", b.AgentType, err)
	}
	b.IsActive = true

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("baseline transaction commit failed: agent_type='%s', error=%w", b.AgentType, err)
	}
	return nil
}

/* Error record methods */
func (q *Queries) UpsertErrorRecord(ctx context.Context, rec *ErrorRecord) error {
	params := []interface{}{
		rec.QueryID, rec.Category, rec.Severity, rec.Message,
		rec.Confidence, rec.Method, rec.Signature,
	}
	row := q.DB.QueryRowxContext(ctx, upsertErrorQuery, params...)
	if err := row.Scan(&rec.ID, &rec.OccurrenceCount, &rec.FirstSeenAt, &rec.LastSeenAt); err != nil {
		return fmt.Errorf("error record upsert failed: category='%s', error=%w", rec.Category, err)
	}
	return nil
}

/* ErrorSummary holds per-category error aggregates */
type ErrorSummary struct {
	Category         string `db:"category"`
	Severity         string `db:"severity"`
	DistinctErrors   int    `db:"distinct_errors"`
	TotalOccurrences int    `db:"total_occurrences"`
}

func (q *Queries) GetErrorSummary(ctx context.Context) ([]ErrorSummary, error) {
	var rows []ErrorSummary
	err := q.DB.SelectContext(ctx, &rows, errorSummaryQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to get error summary: %w", err)
	}
	return rows, nil
}
