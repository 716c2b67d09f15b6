/*-------------------------------------------------------------------------
 *
 * baseline.go
 *    Versioned baseline centroid management
 *
 * Rebuilds the per-agent baseline from a ground-truth query corpus:
 * embed the corpus, take the mean vector, write it as a new version,
 * and atomically swap it active. Prior versions are retained for
 * audit. One rebuild per agent type at a time.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/drift/baseline.go
 *
 *-------------------------------------------------------------------------
 */

package drift

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/neurondb/NeuronEval/internal/db"
	"github.com/neurondb/NeuronEval/internal/metrics"
)

var (
	/* ErrInsufficientData is returned when the corpus is below the
	 * configured minimum; no baseline is written */
	ErrInsufficientData = errors.New("corpus too small for baseline")

	/* ErrRebuildInProgress is returned when a rebuild for the same
	 * agent type is already running */
	ErrRebuildInProgress = errors.New("baseline rebuild already in progress")
)

/* DefaultMinCorpusSize is the floor below which a centroid is too
 * noisy to act as a reference distribution */
const DefaultMinCorpusSize = 5

/* BaselineStore persists versioned baselines */
type BaselineStore interface {
	InsertBaseline(ctx context.Context, b *db.Baseline) error
}

/* Manager serializes baseline rebuilds per agent type */
type Manager struct {
	embedder      Embedder
	store         BaselineStore
	minCorpusSize int

	mu         sync.Mutex
	rebuilding map[string]bool
}

func NewManager(embedder Embedder, store BaselineStore, minCorpusSize int) *Manager {
	if minCorpusSize <= 0 {
		minCorpusSize = DefaultMinCorpusSize
	}
	return &Manager{
		embedder:      embedder,
		store:         store,
		minCorpusSize: minCorpusSize,
		rebuilding:    make(map[string]bool),
	}
}

/* Rebuild embeds the corpus and installs a new active baseline.
 * Version assignment and the active swap happen atomically in the
 * store; in-flight drift checks keep reading the prior version until
 * the swap commits. */
func (m *Manager) Rebuild(ctx context.Context, agentType string, corpus []string) (*db.Baseline, error) {
	if len(corpus) < m.minCorpusSize {
		metrics.RecordBaselineRebuild(agentType, "insufficient_data")
		return nil, fmt.Errorf("%w: agent_type=%s size=%d min=%d",
			ErrInsufficientData, agentType, len(corpus), m.minCorpusSize)
	}

	if !m.acquire(agentType) {
		metrics.RecordBaselineRebuild(agentType, "rejected")
		return nil, fmt.Errorf("%w: agent_type=%s", ErrRebuildInProgress, agentType)
	}
	defer m.release(agentType)

	embeddings, err := m.embedder.EmbedBatch(ctx, corpus)
	if err != nil {
		metrics.RecordBaselineRebuild(agentType, "error")
		return nil, fmt.Errorf("failed to embed baseline corpus: agent_type=%s: %w", agentType, err)
	}

	centroid, err := meanVector(embeddings)
	if err != nil {
		metrics.RecordBaselineRebuild(agentType, "error")
		return nil, fmt.Errorf("failed to compute centroid: agent_type=%s: %w", agentType, err)
	}

	baseline := &db.Baseline{
		AgentType:  agentType,
		Centroid:   db.Vector(centroid),
		CorpusSize: len(corpus),
		IsActive:   true,
	}
	if err := m.store.InsertBaseline(ctx, baseline); err != nil {
		metrics.RecordBaselineRebuild(agentType, "error")
		return nil, fmt.Errorf("failed to store baseline: agent_type=%s: %w", agentType, err)
	}

	metrics.RecordBaselineRebuild(agentType, "success")
	metrics.InfoWithContext(ctx, "Baseline rebuilt", map[string]interface{}{
		"agent_type":  agentType,
		"corpus_size": len(corpus),
		"version":     baseline.Version,
	})

	return baseline, nil
}

func (m *Manager) acquire(agentType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rebuilding[agentType] {
		return false
	}
	m.rebuilding[agentType] = true
	return true
}

func (m *Manager) release(agentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rebuilding, agentType)
}

/* meanVector averages a set of equal-length vectors */
func meanVector(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to average")
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector dimension mismatch at index %d: want=%d got=%d", i, dim, len(v))
		}
		for j, x := range v {
			sum[j] += float64(x)
		}
	}

	mean := make([]float32, dim)
	n := float64(len(vectors))
	for j := range sum {
		mean[j] = float32(sum[j] / n)
	}
	return mean, nil
}
