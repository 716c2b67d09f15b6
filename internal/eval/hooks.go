/*-------------------------------------------------------------------------
 *
 * hooks.go
 *    Off-critical-path hooks: drift observation and error triage
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/eval/hooks.go
 *
 *-------------------------------------------------------------------------
 */

package eval

import (
	"context"
	"errors"

	"github.com/neurondb/NeuronEval/internal/db"
	"github.com/neurondb/NeuronEval/internal/drift"
	"github.com/neurondb/NeuronEval/internal/judge"
	"github.com/neurondb/NeuronEval/internal/metrics"
)

/* DriftHook adapts the drift detector to the evaluator. A missing
 * baseline is expected early in an agent's life and is logged at
 * debug, not warned. */
type DriftHook struct {
	Detector *drift.Detector
}

func (h *DriftHook) Detect(ctx context.Context, queryID, queryText, agentType string) error {
	_, err := h.Detector.Detect(ctx, queryID, queryText, agentType)
	if errors.Is(err, drift.ErrNoBaseline) {
		metrics.DebugWithContext(ctx, "Drift check skipped, no baseline", map[string]interface{}{
			"agent_type": agentType,
		})
		return nil
	}
	return err
}

/* ErrorSink persists classified failures */
type ErrorSink interface {
	UpsertErrorRecord(ctx context.Context, rec *db.ErrorRecord) error
}

/* TriageHook classifies a failure message and records it */
type TriageHook struct {
	Classifier *judge.Classifier
	Sink       ErrorSink
}

func (h *TriageHook) Record(ctx context.Context, queryID, errorMessage string, classifyCtx judge.ClassifyContext) {
	cls := h.Classifier.Classify(ctx, errorMessage, classifyCtx)

	rec := &db.ErrorRecord{
		QueryID:    queryID,
		Category:   cls.Category,
		Severity:   cls.Severity,
		Message:    errorMessage,
		Confidence: cls.Confidence,
		Method:     cls.Method,
		Signature:  cls.Signature,
	}
	if err := h.Sink.UpsertErrorRecord(ctx, rec); err != nil {
		metrics.ErrorWithContext(ctx, "Failed to record classified error", err, map[string]interface{}{
			"query_id": queryID,
			"category": cls.Category,
		})
	}
}
