/*-------------------------------------------------------------------------
 *
 * detector.go
 *    Distributional drift scoring for incoming queries
 *
 * Embeds each natural-language query and compares it against the
 * active baseline centroid for its agent type. Purely observational:
 * an anomalous query is recorded and reported, never blocked.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/drift/detector.go
 *
 *-------------------------------------------------------------------------
 */

package drift

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/neurondb/NeuronEval/internal/db"
	"github.com/neurondb/NeuronEval/internal/metrics"
)

/* ErrNoBaseline is returned when no active baseline exists for the
 * agent type */
var ErrNoBaseline = errors.New("no active baseline for agent type")

/* Drift classifications */
const (
	ClassificationNormal = "normal"
	ClassificationMedium = "medium"
	ClassificationHigh   = "high"
)

/* Result is one drift observation */
type Result struct {
	QueryID              string
	AgentType            string
	Embedding            []float32
	DriftScore           float64
	Classification       string
	SimilarityToBaseline float64
	IsAnomaly            bool
	BaselineVersion      int
}

/* BaselineSource supplies the active baseline for an agent type */
type BaselineSource interface {
	ActiveBaseline(ctx context.Context, agentType string) (*db.Baseline, error)
}

/* DriftSink persists drift observations */
type DriftSink interface {
	InsertDrift(ctx context.Context, rec *db.DriftRecord) error
}

type Detector struct {
	embedder Embedder
	source   BaselineSource
	sink     DriftSink

	normalThreshold  float64
	anomalyThreshold float64
}

/* NewDetector builds a detector. Similarity at or above
 * normalThreshold is normal, at or above anomalyThreshold is medium,
 * below it is high drift and flagged anomalous. */
func NewDetector(embedder Embedder, source BaselineSource, sink DriftSink, normalThreshold, anomalyThreshold float64) *Detector {
	if normalThreshold <= 0 {
		normalThreshold = 0.7
	}
	if anomalyThreshold <= 0 {
		anomalyThreshold = 0.5
	}
	return &Detector{
		embedder:         embedder,
		source:           source,
		sink:             sink,
		normalThreshold:  normalThreshold,
		anomalyThreshold: anomalyThreshold,
	}
}

/* Detect embeds the query, scores it against the active baseline, and
 * persists the observation. A missing baseline is ErrNoBaseline. */
func (d *Detector) Detect(ctx context.Context, queryID, queryText, agentType string) (*Result, error) {
	baseline, err := d.source.ActiveBaseline(ctx, agentType)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: agent_type=%s", ErrNoBaseline, agentType)
		}
		return nil, fmt.Errorf("failed to load baseline: agent_type=%s: %w", agentType, err)
	}

	embedding, err := d.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: query_id=%s: %w", queryID, err)
	}

	if len(embedding) != len(baseline.Centroid) {
		return nil, fmt.Errorf("embedding dimension mismatch: query=%d baseline=%d, baseline needs regeneration with the current embedding model",
			len(embedding), len(baseline.Centroid))
	}

	similarity := CosineSimilarity(embedding, baseline.Centroid)
	result := &Result{
		QueryID:              queryID,
		AgentType:            agentType,
		Embedding:            embedding,
		SimilarityToBaseline: similarity,
		DriftScore:           1.0 - similarity,
		BaselineVersion:      baseline.Version,
	}

	switch {
	case similarity >= d.normalThreshold:
		result.Classification = ClassificationNormal
	case similarity >= d.anomalyThreshold:
		result.Classification = ClassificationMedium
	default:
		result.Classification = ClassificationHigh
		result.IsAnomaly = true
	}

	metrics.RecordDriftCheck(agentType, result.Classification)

	if d.sink != nil {
		rec := &db.DriftRecord{
			QueryID:              result.QueryID,
			AgentType:            result.AgentType,
			Embedding:            db.Vector(result.Embedding),
			DriftScore:           result.DriftScore,
			Classification:       result.Classification,
			SimilarityToBaseline: result.SimilarityToBaseline,
			IsAnomaly:            result.IsAnomaly,
		}
		if err := d.sink.InsertDrift(ctx, rec); err != nil {
			/* Observation storage must not fail the caller */
			metrics.ErrorWithContext(ctx, "Failed to store drift observation", err, map[string]interface{}{
				"query_id": queryID,
			})
		}
	}

	return result, nil
}

/* CosineSimilarity computes dot(a,b) / (|a|·|b|); zero-norm inputs
 * score 0 */
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	norm := math.Sqrt(normA) * math.Sqrt(normB)
	if norm == 0 {
		return 0.0
	}
	return dot / norm
}
