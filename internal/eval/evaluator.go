/*-------------------------------------------------------------------------
 *
 * evaluator.go
 *    Four-layer SQL evaluation pipeline
 *
 * Orchestrates structural validation, semantic comparison, the LLM
 * judge, and execution-backed result validation over one generated
 * statement, combines the layer scores under fixed weights, and
 * persists the outcome. Drift detection and error classification run
 * off the critical path.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/eval/evaluator.go
 *
 *-------------------------------------------------------------------------
 */

package eval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neurondb/NeuronEval/internal/db"
	"github.com/neurondb/NeuronEval/internal/judge"
	"github.com/neurondb/NeuronEval/internal/metrics"
	"github.com/neurondb/NeuronEval/internal/semantic"
	"github.com/neurondb/NeuronEval/internal/validator"
)

/* Evaluation states */
const (
	StateReceived             = "RECEIVED"
	StateStructuralDone       = "STRUCTURAL_DONE"
	StateSemanticDone         = "SEMANTIC_DONE"
	StateLLMDone              = "LLM_DONE"
	StateResultValidationDone = "RESULT_VALIDATION_DONE"
	StateScored               = "SCORED"
	StatePersisted            = "PERSISTED"
	StateFailed               = "FAILED"
)

/* Layer weights. With result validation available the executing layer
 * takes 0.30 and structural drops to 0.40; without it structural
 * carries 0.60. A missing layer contributes 0 under its fixed weight;
 * weights are never renormalized. */
const (
	weightStructuralFull = 0.40
	weightSemanticFull   = 0.15
	weightLLMFull        = 0.15
	weightResultFull     = 0.30

	weightStructuralBase = 0.60
	weightSemanticBase   = 0.10
	weightLLMBase        = 0.30
)

/* ErrNotPersisted reports an evaluation that was scored but could not
 * be durably recorded; the record travels with the error so callers
 * can still return it */
type ErrNotPersisted struct {
	Record *db.EvaluationRecord
	Cause  error
}

func (e *ErrNotPersisted) Error() string {
	return fmt.Sprintf("evaluation scored but not durably recorded: query_id='%s', error=%v",
		e.Record.QueryID, e.Cause)
}

func (e *ErrNotPersisted) Unwrap() error { return e.Cause }

/* Request is one evaluation submission */
type Request struct {
	QueryID      string
	QueryText    string
	AgentType    string
	GeneratedSQL string

	/* Optional; without it semantic, LLM, and result layers are
	 * missing and score 0 */
	GroundTruthSQL string

	/* Optional; result validation needs a reachable database */
	ConnectionDescriptor string

	/* Similarity of the query to its matched ground truth, drives the
	 * result-validation confidence tier */
	GTMatchSimilarity float64
}

/* StructuralScorer is the non-executing syntax/schema layer */
type StructuralScorer interface {
	Validate(sqlText string) validator.StructuralResult
}

/* SemanticScorer is the component-overlap layer */
type SemanticScorer interface {
	CheckEquivalence(generatedSQL, groundTruthSQL string) semantic.Equivalence
}

/* JudgeScorer is the LLM-as-judge layer */
type JudgeScorer interface {
	Evaluate(ctx context.Context, userQuery, generatedSQL, groundTruthSQL, agentType string) judge.Verdict
}

/* ResultScorer is the execution-backed layer */
type ResultScorer interface {
	Validate(ctx context.Context, generatedSQL, groundTruthSQL, connectionDescriptor string, gtSimilarity float64) validator.ResultValidation
}

/* Store persists finished evaluations */
type Store interface {
	InsertEvaluation(ctx context.Context, rec *db.EvaluationRecord) error
}

/* DriftChecker scores a query against its agent baseline */
type DriftChecker interface {
	Detect(ctx context.Context, queryID, queryText, agentType string) error
}

/* FailureClassifier records classified failures */
type FailureClassifier interface {
	Record(ctx context.Context, queryID, errorMessage string, classifyCtx judge.ClassifyContext)
}

type Evaluator struct {
	structural StructuralScorer
	semantic   SemanticScorer
	judge      JudgeScorer
	result     ResultScorer
	store      Store

	drift      DriftChecker
	classifier FailureClassifier

	threshold      float64
	persistRetries int
	timeout        time.Duration
}

func NewEvaluator(structural StructuralScorer, sem SemanticScorer, j JudgeScorer, result ResultScorer, store Store, threshold float64, persistRetries int) *Evaluator {
	if threshold <= 0 {
		threshold = 0.7
	}
	if persistRetries <= 0 {
		persistRetries = 3
	}
	return &Evaluator{
		structural:     structural,
		semantic:       sem,
		judge:          j,
		result:         result,
		store:          store,
		threshold:      threshold,
		persistRetries: persistRetries,
	}
}

/* SetDriftChecker wires the off-critical-path drift check */
func (e *Evaluator) SetDriftChecker(d DriftChecker) { e.drift = d }

/* SetFailureClassifier wires the off-critical-path error triage */
func (e *Evaluator) SetFailureClassifier(c FailureClassifier) { e.classifier = c }

/* SetTimeout bounds one full Evaluate call, cancelling any in-flight
 * layer work when the budget expires. Zero leaves the caller's context
 * as the only bound. */
func (e *Evaluator) SetTimeout(d time.Duration) { e.timeout = d }

/* Evaluate runs the full pipeline for one request. The returned
 * record is valid even when err is *ErrNotPersisted. */
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*db.EvaluationRecord, error) {
	start := time.Now()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cleanedSQL := CleanSQL(req.GeneratedSQL)
	details := db.JSONBMap{
		"original_sql": req.GeneratedSQL,
		"cleaned_sql":  cleanedSQL,
	}

	rec := &db.EvaluationRecord{
		QueryID:      req.QueryID,
		QueryText:    strings.TrimSpace(req.QueryText),
		AgentType:    req.AgentType,
		GeneratedSQL: req.GeneratedSQL,
		State:        StateReceived,
		Verdict:      "FAIL",
		Details:      details,
	}
	if req.GroundTruthSQL != "" {
		gt := req.GroundTruthSQL
		rec.GroundTruthSQL = &gt
	}

	metrics.InfoWithContext(ctx, "Evaluation started", map[string]interface{}{
		"query_id":   req.QueryID,
		"agent_type": req.AgentType,
	})

	/* Drift detection observes the incoming query regardless of how
	 * the evaluation turns out */
	e.dispatchDrift(req)

	/* The three non-executing layers share the same two SQL strings
	 * and have no mutual dependency */
	var (
		structuralResult validator.StructuralResult
		semanticResult   semantic.Equivalence
		verdict          judge.Verdict
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		structuralResult = e.structural.Validate(cleanedSQL)
		return nil
	})
	if req.GroundTruthSQL != "" {
		g.Go(func() error {
			semanticResult = e.semantic.CheckEquivalence(cleanedSQL, req.GroundTruthSQL)
			return nil
		})
		g.Go(func() error {
			verdict = e.judge.Evaluate(gctx, req.QueryText, cleanedSQL, req.GroundTruthSQL, req.AgentType)
			return nil
		})
	}
	g.Wait()

	rec.State = StateStructuralDone
	rec.StructuralScore = structuralResult.Score
	details["structural"] = map[string]interface{}{
		"score":        structuralResult.Score,
		"syntax_valid": structuralResult.SyntaxValid,
		"schema_valid": structuralResult.SchemaValid,
		"reasons":      structuralResult.Reasons,
	}
	if !structuralResult.SyntaxValid && len(structuralResult.Reasons) > 0 {
		e.dispatchClassification(req, structuralResult.Reasons[0])
	}

	rec.State = StateSemanticDone
	rec.SemanticScore = semanticResult.SimilarityScore
	if req.GroundTruthSQL != "" {
		details["semantic"] = map[string]interface{}{
			"score":      semanticResult.SimilarityScore,
			"components": semanticResult.ComponentScores,
		}
	}

	rec.State = StateLLMDone
	rec.LLMScore = verdict.Score()
	rec.Reasoning = verdict.Reasoning
	if req.GroundTruthSQL != "" {
		details["llm_judge"] = map[string]interface{}{
			"verdict":    verdict.Verdict,
			"confidence": verdict.Confidence,
			"available":  verdict.Available,
			"reasoning":  verdict.Reasoning,
		}
	}

	/* Result validation needs both a ground truth and a database */
	resultAvailable := false
	if req.GroundTruthSQL != "" && req.ConnectionDescriptor != "" && e.result != nil {
		validation := e.result.Validate(ctx, cleanedSQL, req.GroundTruthSQL, req.ConnectionDescriptor, req.GTMatchSimilarity)
		resultAvailable = true
		rec.State = StateResultValidationDone
		score := validation.Score
		rec.ResultScore = &score
		details["result_validation"] = map[string]interface{}{
			"score":              validation.Score,
			"confidence_level":   validation.ConfidenceLevel,
			"execution_success":  validation.ExecutionSuccess,
			"ground_truth_issue": validation.GroundTruthIssue,
			"schema_match":       validation.SchemaMatch,
			"row_count_match":    validation.RowCountMatch,
			"details":            validation.Details,
		}
		if validation.Error != "" && !validation.GroundTruthIssue {
			e.dispatchClassification(req, validation.Error)
		}
	}

	/* Weighted combination is the single join point */
	rec.FinalScore = e.combine(rec, resultAvailable)
	if rec.FinalScore >= e.threshold {
		rec.Verdict = "PASS"
	}
	rec.Confidence = (verdict.Confidence + rec.FinalScore) / 2.0
	rec.State = StateScored
	details["weights_mode"] = weightsMode(resultAvailable)

	metrics.RecordEvaluation(req.AgentType, rec.Verdict, time.Since(start))
	metrics.InfoWithContext(ctx, "Evaluation scored", map[string]interface{}{
		"query_id":    req.QueryID,
		"final_score": rec.FinalScore,
		"verdict":     rec.Verdict,
	})

	if err := e.persist(ctx, rec); err != nil {
		rec.State = StateFailed
		return rec, &ErrNotPersisted{Record: rec, Cause: err}
	}
	rec.State = StatePersisted

	return rec, nil
}

/* combine applies the fixed weights for the active mode */
func (e *Evaluator) combine(rec *db.EvaluationRecord, resultAvailable bool) float64 {
	if resultAvailable {
		resultScore := 0.0
		if rec.ResultScore != nil {
			resultScore = *rec.ResultScore
		}
		return weightStructuralFull*rec.StructuralScore +
			weightSemanticFull*rec.SemanticScore +
			weightLLMFull*rec.LLMScore +
			weightResultFull*resultScore
	}
	return weightStructuralBase*rec.StructuralScore +
		weightSemanticBase*rec.SemanticScore +
		weightLLMBase*rec.LLMScore
}

func weightsMode(resultAvailable bool) string {
	if resultAvailable {
		return "with_result_validation"
	}
	return "without_result_validation"
}

/* persist writes the record with bounded retry and backoff */
func (e *Evaluator) persist(ctx context.Context, rec *db.EvaluationRecord) error {
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= e.persistRetries; attempt++ {
		if lastErr = e.store.InsertEvaluation(ctx, rec); lastErr == nil {
			return nil
		}

		metrics.WarnWithContext(ctx, "Evaluation persistence attempt failed", map[string]interface{}{
			"query_id": rec.QueryID,
			"attempt":  attempt,
			"error":    lastErr.Error(),
		})

		if attempt < e.persistRetries {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	return lastErr
}

/* dispatchDrift fires the drift check on its own goroutine; failures
 * are logged and never reach the evaluation path */
func (e *Evaluator) dispatchDrift(req Request) {
	if e.drift == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.drift.Detect(ctx, req.QueryID, req.QueryText, req.AgentType); err != nil {
			metrics.WarnWithContext(ctx, "Drift check failed", map[string]interface{}{
				"query_id": req.QueryID,
				"error":    err.Error(),
			})
		}
	}()
}

/* dispatchClassification fires error triage on its own goroutine */
func (e *Evaluator) dispatchClassification(req Request, message string) {
	if e.classifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		e.classifier.Record(ctx, req.QueryID, message, judge.ClassifyContext{
			Query:    req.QueryText,
			Response: req.GeneratedSQL,
		})
	}()
}

/* CleanSQL strips markdown code fences around model-emitted SQL */
func CleanSQL(generatedSQL string) string {
	s := strings.TrimSpace(generatedSQL)
	if !strings.Contains(s, "```") {
		return s
	}

	parts := strings.Split(s, "```")
	if len(parts) >= 3 {
		s = parts[1]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "sql")
	return strings.TrimSpace(s)
}
