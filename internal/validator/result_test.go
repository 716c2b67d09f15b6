/*-------------------------------------------------------------------------
 *
 * result_test.go
 *    Tests for execution-backed result validation
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/validator/result_test.go
 *
 *-------------------------------------------------------------------------
 */

package validator

import (
	"context"
	"math"
	"testing"

	"github.com/neurondb/NeuronEval/internal/executor"
)

/* fakeRunner returns canned results keyed by SQL text */
type fakeRunner struct {
	results map[string]executor.ExecutionResult
}

func (f *fakeRunner) Execute(ctx context.Context, sqlText, connectionDescriptor string) executor.ExecutionResult {
	if r, ok := f.results[sqlText]; ok {
		return r
	}
	return executor.ExecutionResult{
		Success: false,
		Error:   &executor.ExecError{Kind: executor.KindUnknown, Message: "no canned result"},
	}
}

func okResult(columns []string, rows [][]interface{}) executor.ExecutionResult {
	return executor.ExecutionResult{
		Success:  true,
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}
}

func failedResult(kind executor.ErrorKind, msg string) executor.ExecutionResult {
	return executor.ExecutionResult{
		Success: false,
		Error:   &executor.ExecError{Kind: kind, Message: msg},
	}
}

const (
	genSQL = "SELECT id FROM users"
	gtSQL  = "SELECT id FROM users ORDER BY id"
)

func TestValidateIdenticalResults(t *testing.T) {
	rows := [][]interface{}{{int64(1)}, {int64(2)}}
	runner := &fakeRunner{results: map[string]executor.ExecutionResult{
		genSQL: okResult([]string{"id"}, rows),
		gtSQL:  okResult([]string{"id"}, rows),
	}}
	v := NewResultValidator(runner, 0, 0)

	validation := v.Validate(context.Background(), genSQL, gtSQL, "sqlite:test.db", 0.95)

	if !validation.ExecutionSuccess {
		t.Fatal("expected execution success")
	}
	if validation.Score != 1.0 {
		t.Errorf("identical results at high confidence should score 1.0, got %f", validation.Score)
	}
	if validation.ConfidenceLevel != ConfidenceHigh {
		t.Errorf("similarity 0.95 should map to HIGH, got %s", validation.ConfidenceLevel)
	}
	if !validation.SchemaMatch || !validation.RowCountMatch {
		t.Errorf("expected full structural agreement: %+v", validation)
	}
}

func TestValidateGeneratedFailureScoresZero(t *testing.T) {
	runner := &fakeRunner{results: map[string]executor.ExecutionResult{
		genSQL: failedResult(executor.KindSyntaxError, "no such column: idd"),
		gtSQL:  okResult([]string{"id"}, nil),
	}}
	v := NewResultValidator(runner, 0, 0)

	validation := v.Validate(context.Background(), genSQL, gtSQL, "sqlite:test.db", 1.0)

	if validation.Score != 0.0 {
		t.Errorf("failed generated query must score 0.0, got %f", validation.Score)
	}
	if validation.ExecutionSuccess {
		t.Error("execution success must be false")
	}
	if validation.GroundTruthIssue {
		t.Error("a generated-query failure is not a ground truth issue")
	}
	if validation.Error == "" {
		t.Error("expected the execution error to be surfaced")
	}
}

func TestValidateGroundTruthFailureIsFlagged(t *testing.T) {
	runner := &fakeRunner{results: map[string]executor.ExecutionResult{
		genSQL: okResult([]string{"id"}, nil),
		gtSQL:  failedResult(executor.KindSyntaxError, "no such table: archived"),
	}}
	v := NewResultValidator(runner, 0, 0)

	validation := v.Validate(context.Background(), genSQL, gtSQL, "sqlite:test.db", 1.0)

	if validation.Score != 0.0 {
		t.Errorf("ground truth failure must score 0.0, got %f", validation.Score)
	}
	if !validation.GroundTruthIssue {
		t.Error("ground truth failure must be flagged as a data-quality issue")
	}
	if !validation.ExecutionSuccess {
		t.Error("the generated query did execute")
	}
}

func TestValidateTieredScores(t *testing.T) {
	tests := []struct {
		name      string
		genRows   [][]interface{}
		genCols   []string
		gtRows    [][]interface{}
		gtCols    []string
		wantScore float64
	}{
		{
			name:      "schema mismatch",
			genCols:   []string{"id", "extra"},
			gtCols:    []string{"id"},
			wantScore: 0.1,
		},
		{
			name:      "row count mismatch",
			genCols:   []string{"id"},
			genRows:   [][]interface{}{{int64(1)}},
			gtCols:    []string{"id"},
			gtRows:    [][]interface{}{{int64(1)}, {int64(2)}},
			wantScore: 0.3,
		},
		{
			name:      "half the rows differ",
			genCols:   []string{"id"},
			genRows:   [][]interface{}{{int64(1)}, {int64(9)}},
			gtCols:    []string{"id"},
			gtRows:    [][]interface{}{{int64(1)}, {int64(2)}},
			wantScore: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{results: map[string]executor.ExecutionResult{
				genSQL: okResult(tt.genCols, tt.genRows),
				gtSQL:  okResult(tt.gtCols, tt.gtRows),
			}}
			v := NewResultValidator(runner, 0, 0)

			validation := v.Validate(context.Background(), genSQL, gtSQL, "sqlite:test.db", 1.0)

			if math.Abs(validation.Score-tt.wantScore) > 1e-9 {
				t.Errorf("score = %f, want %f (details: %v)", validation.Score, tt.wantScore, validation.Details)
			}
		})
	}
}

func TestConfidenceTiers(t *testing.T) {
	v := NewResultValidator(&fakeRunner{}, 0, 0)

	tests := []struct {
		similarity float64
		wantTier   string
		wantWeight float64
	}{
		{0.95, ConfidenceHigh, 1.0},
		{0.90, ConfidenceHigh, 1.0},
		{0.89, ConfidenceMedium, 0.8},
		{0.75, ConfidenceMedium, 0.8},
		{0.74, ConfidenceLow, 0.5},
		{0.0, ConfidenceLow, 0.5},
	}

	for _, tt := range tests {
		tier, weight := v.confidenceTier(tt.similarity)
		if tier != tt.wantTier || weight != tt.wantWeight {
			t.Errorf("confidenceTier(%f) = (%s, %f), want (%s, %f)",
				tt.similarity, tier, weight, tt.wantTier, tt.wantWeight)
		}
	}
}

func TestValidateConfidenceWeightApplied(t *testing.T) {
	rows := [][]interface{}{{int64(1)}}
	runner := &fakeRunner{results: map[string]executor.ExecutionResult{
		genSQL: okResult([]string{"id"}, rows),
		gtSQL:  okResult([]string{"id"}, rows),
	}}
	v := NewResultValidator(runner, 0, 0)

	validation := v.Validate(context.Background(), genSQL, gtSQL, "sqlite:test.db", 0.80)

	/* Raw score 1.0 at MEDIUM confidence weight 0.8 */
	if math.Abs(validation.Score-0.8) > 1e-9 {
		t.Errorf("score = %f, want 0.8", validation.Score)
	}
	if validation.ConfidenceLevel != ConfidenceMedium {
		t.Errorf("expected MEDIUM, got %s", validation.ConfidenceLevel)
	}
}
