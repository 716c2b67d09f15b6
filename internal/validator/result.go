/*-------------------------------------------------------------------------
 *
 * result.go
 *    Execution-backed result validation of generated SQL
 *
 * Runs the generated statement and the ground-truth statement against
 * the target database in parallel, compares the result sets, and folds
 * the comparison into a tiered score weighted by the confidence of the
 * ground-truth match.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/validator/result.go
 *
 *-------------------------------------------------------------------------
 */

package validator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/neurondb/NeuronEval/internal/comparator"
	"github.com/neurondb/NeuronEval/internal/executor"
	"github.com/neurondb/NeuronEval/internal/metrics"
)

/* QueryRunner is the execution dependency of the result validator */
type QueryRunner interface {
	Execute(ctx context.Context, sqlText, connectionDescriptor string) executor.ExecutionResult
}

/* Confidence tiers for the ground-truth match */
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

/* ResultValidation is the full outcome of execution-backed validation */
type ResultValidation struct {
	Score            float64
	ConfidenceLevel  string
	ExecutionSuccess bool

	/* GroundTruthIssue marks a ground-truth execution failure: a
	 * data-quality problem, not an agent fault */
	GroundTruthIssue bool

	SchemaMatch      bool
	RowCountMatch    bool
	ContentMatchRate *float64

	GeneratedTimeMS   float64
	GroundTruthTimeMS float64

	Details map[string]interface{}
	Error   string
}

type ResultValidator struct {
	runner QueryRunner

	highConfidenceSimilarity   float64
	mediumConfidenceSimilarity float64
}

func NewResultValidator(runner QueryRunner, highConfidenceSimilarity, mediumConfidenceSimilarity float64) *ResultValidator {
	if highConfidenceSimilarity <= 0 {
		highConfidenceSimilarity = 0.90
	}
	if mediumConfidenceSimilarity <= 0 {
		mediumConfidenceSimilarity = 0.75
	}
	return &ResultValidator{
		runner:                     runner,
		highConfidenceSimilarity:   highConfidenceSimilarity,
		mediumConfidenceSimilarity: mediumConfidenceSimilarity,
	}
}

/* Validate executes both statements in parallel and scores the
 * agreement. gtSimilarity is the similarity of the query to its matched
 * ground truth; it sets the confidence weight applied to the raw score. */
func (v *ResultValidator) Validate(ctx context.Context, generatedSQL, groundTruthSQL, connectionDescriptor string, gtSimilarity float64) ResultValidation {
	details := make(map[string]interface{})
	validation := ResultValidation{Details: details}

	var genResult, gtResult executor.ExecutionResult

	/* Both executions carry their own timeout inside the executor, so
	 * wall-clock cost is max(generated, ground truth), not the sum */
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		genResult = v.runner.Execute(gctx, generatedSQL, connectionDescriptor)
		return nil
	})
	g.Go(func() error {
		gtResult = v.runner.Execute(gctx, groundTruthSQL, connectionDescriptor)
		return nil
	})
	g.Wait()

	validation.GeneratedTimeMS = genResult.ExecutionTimeMS
	validation.GroundTruthTimeMS = gtResult.ExecutionTimeMS
	details["generated_time_ms"] = genResult.ExecutionTimeMS
	details["ground_truth_time_ms"] = gtResult.ExecutionTimeMS

	if !genResult.Success {
		validation.Score = 0.0
		if genResult.Error != nil {
			validation.Error = genResult.Error.Error()
			details["generated_error_kind"] = string(genResult.Error.Kind)
		}
		metrics.InfoWithContext(ctx, "Result validation stopped: generated query failed", map[string]interface{}{
			"error": validation.Error,
		})
		return validation
	}
	validation.ExecutionSuccess = true

	if !gtResult.Success {
		validation.Score = 0.0
		validation.GroundTruthIssue = true
		if gtResult.Error != nil {
			validation.Error = gtResult.Error.Error()
			details["ground_truth_error_kind"] = string(gtResult.Error.Kind)
		}
		metrics.WarnWithContext(ctx, "Ground truth query failed during result validation", map[string]interface{}{
			"error": validation.Error,
		})
		return validation
	}

	comparison := comparator.Compare(&genResult, &gtResult, groundTruthSQL)
	validation.SchemaMatch = comparison.SchemaMatch
	validation.RowCountMatch = comparison.RowCountMatch
	validation.ContentMatchRate = comparison.ContentMatchRate
	details["comparison"] = comparison.Details

	rawScore := rawResultScore(comparison)
	confidence, weight := v.confidenceTier(gtSimilarity)

	validation.ConfidenceLevel = confidence
	validation.Score = rawScore * weight
	details["raw_score"] = rawScore
	details["confidence_weight"] = weight

	return validation
}

/* rawResultScore applies the tiered scoring ladder to a comparison */
func rawResultScore(comparison comparator.ComparisonResult) float64 {
	if !comparison.SchemaMatch {
		return 0.1
	}
	if !comparison.RowCountMatch {
		return 0.3
	}

	rate := 0.0
	if comparison.ContentMatchRate != nil {
		rate = *comparison.ContentMatchRate
	}

	switch {
	case rate >= 0.99:
		return 1.0
	case rate >= 0.95:
		return 0.95
	case rate >= 0.80:
		return 0.80
	default:
		return rate
	}
}

/* confidenceTier maps the ground-truth match similarity onto a tier
 * and its score weight */
func (v *ResultValidator) confidenceTier(similarity float64) (string, float64) {
	switch {
	case similarity >= v.highConfidenceSimilarity:
		return ConfidenceHigh, 1.0
	case similarity >= v.mediumConfidenceSimilarity:
		return ConfidenceMedium, 0.8
	default:
		return ConfidenceLow, 0.5
	}
}
