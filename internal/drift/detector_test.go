/*-------------------------------------------------------------------------
 *
 * detector_test.go
 *    Tests for drift scoring and classification bands
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/drift/detector_test.go
 *
 *-------------------------------------------------------------------------
 */

package drift

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/neurondb/NeuronEval/internal/db"
)

/* fakeEmbedder returns fixed vectors */
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

/* fakeBaselineSource serves one canned baseline */
type fakeBaselineSource struct {
	baseline *db.Baseline
	err      error
}

func (f *fakeBaselineSource) ActiveBaseline(ctx context.Context, agentType string) (*db.Baseline, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.baseline, nil
}

/* captureSink records inserted drift observations */
type captureSink struct {
	records []*db.DriftRecord
	err     error
}

func (c *captureSink) InsertDrift(ctx context.Context, rec *db.DriftRecord) error {
	c.records = append(c.records, rec)
	return c.err
}

func TestDetectClassificationBands(t *testing.T) {
	baseline := &db.Baseline{
		AgentType: "analytics",
		Centroid:  db.Vector{1, 0},
		Version:   3,
	}

	/* Pythagorean vectors against the (1,0) centroid give exact cosine
	 * values, so the inclusive threshold comparisons are deterministic */
	tests := []struct {
		name               string
		vector             []float32
		similarity         float64
		wantClassification string
		wantAnomaly        bool
	}{
		{"aligned with centroid", []float32{1, 0}, 1.0, ClassificationNormal, false},
		{"exactly normal threshold", []float32{4, 3}, 0.8, ClassificationNormal, false},
		{"between thresholds", []float32{1, 1}, 1 / math.Sqrt2, ClassificationMedium, false},
		{"exactly anomaly threshold", []float32{3, 4}, 0.6, ClassificationMedium, false},
		{"below anomaly threshold", []float32{7, 24}, 0.28, ClassificationHigh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &captureSink{}
			d := NewDetector(
				&fakeEmbedder{vector: tt.vector},
				&fakeBaselineSource{baseline: baseline},
				sink, 0.8, 0.6)

			result, err := d.Detect(context.Background(), "q-1", "show me sales", "analytics")
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}

			if result.Classification != tt.wantClassification {
				t.Errorf("classification = %s, want %s (similarity %f)",
					result.Classification, tt.wantClassification, result.SimilarityToBaseline)
			}
			if result.IsAnomaly != tt.wantAnomaly {
				t.Errorf("anomaly = %v, want %v", result.IsAnomaly, tt.wantAnomaly)
			}
			if math.Abs(result.SimilarityToBaseline-tt.similarity) > 1e-5 {
				t.Errorf("similarity = %f, want %f", result.SimilarityToBaseline, tt.similarity)
			}
			if math.Abs(result.DriftScore-(1.0-tt.similarity)) > 1e-5 {
				t.Errorf("drift score = %f, want %f", result.DriftScore, 1.0-tt.similarity)
			}
			if result.BaselineVersion != 3 {
				t.Errorf("baseline version = %d, want 3", result.BaselineVersion)
			}
			if len(sink.records) != 1 {
				t.Fatalf("expected one stored observation, got %d", len(sink.records))
			}
			if sink.records[0].Classification != tt.wantClassification {
				t.Errorf("stored classification = %s, want %s",
					sink.records[0].Classification, tt.wantClassification)
			}
		})
	}
}

func TestDetectMissingBaseline(t *testing.T) {
	d := NewDetector(
		&fakeEmbedder{vector: []float32{1, 0}},
		&fakeBaselineSource{err: db.ErrNotFound},
		nil, 0, 0)

	_, err := d.Detect(context.Background(), "q-1", "text", "unknown_agent")

	if !errors.Is(err, ErrNoBaseline) {
		t.Errorf("expected ErrNoBaseline, got %v", err)
	}
}

func TestDetectDimensionMismatch(t *testing.T) {
	d := NewDetector(
		&fakeEmbedder{vector: []float32{1, 0, 0}},
		&fakeBaselineSource{baseline: &db.Baseline{Centroid: db.Vector{1, 0}}},
		nil, 0, 0)

	_, err := d.Detect(context.Background(), "q-1", "text", "analytics")

	if err == nil {
		t.Fatal("expected a dimension mismatch error")
	}
}

func TestDetectSinkFailureDoesNotFailCaller(t *testing.T) {
	d := NewDetector(
		&fakeEmbedder{vector: []float32{1, 0}},
		&fakeBaselineSource{baseline: &db.Baseline{Centroid: db.Vector{1, 0}}},
		&captureSink{err: errors.New("insert failed")},
		0, 0)

	result, err := d.Detect(context.Background(), "q-1", "text", "analytics")

	if err != nil {
		t.Errorf("sink failure must not fail the observation, got %v", err)
	}
	if result == nil || result.Classification != ClassificationNormal {
		t.Errorf("expected a normal classification result, got %+v", result)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0.0},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
