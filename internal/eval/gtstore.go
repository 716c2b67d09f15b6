/*-------------------------------------------------------------------------
 *
 * gtstore.go
 *    Ground-truth corpus with embedding-based lookup
 *
 * Holds curated (question, SQL) pairs per agent type. When an
 * evaluation arrives without an explicit ground truth, the store finds
 * the closest corpus question by embedding similarity; the match
 * similarity feeds the result-validation confidence tier.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/eval/gtstore.go
 *
 *-------------------------------------------------------------------------
 */

package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/neurondb/NeuronEval/internal/drift"
	"github.com/neurondb/NeuronEval/internal/metrics"
)

/* DefaultMatchThreshold is the minimum similarity for a corpus entry
 * to count as the query's ground truth */
const DefaultMatchThreshold = 0.85

/* GroundTruthEntry is one curated question/SQL pair */
type GroundTruthEntry struct {
	QueryText string `json:"query_text"`
	SQL       string `json:"sql"`
	AgentType string `json:"agent_type"`

	embedding []float32
}

/* Match is a resolved ground truth for an incoming query */
type Match struct {
	SQL        string
	Similarity float64
}

/* GroundTruthStore resolves ground truths by embedding similarity */
type GroundTruthStore struct {
	embedder  drift.Embedder
	threshold float64

	mu      sync.RWMutex
	entries []GroundTruthEntry
	primed  bool
}

func NewGroundTruthStore(embedder drift.Embedder, threshold float64) *GroundTruthStore {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &GroundTruthStore{embedder: embedder, threshold: threshold}
}

/* LoadFromFile reads a JSON corpus: either a bare array of entries or
 * an object with a "queries" array */
func (s *GroundTruthStore) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ground truth corpus: path='%s', error=%w", path, err)
	}

	var entries []GroundTruthEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var wrapped struct {
			Queries []GroundTruthEntry `json:"queries"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return fmt.Errorf("failed to parse ground truth corpus: path='%s', error=%w", path, err)
		}
		entries = wrapped.Queries
	}

	kept := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e.QueryText) != "" && strings.TrimSpace(e.SQL) != "" {
			kept = append(kept, e)
		}
	}

	s.mu.Lock()
	s.entries = kept
	s.primed = false
	s.mu.Unlock()

	return nil
}

/* Prime embeds the whole corpus in one batch */
func (s *GroundTruthStore) Prime(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.primed || len(s.entries) == 0 {
		s.primed = true
		return nil
	}

	texts := make([]string, len(s.entries))
	for i, e := range s.entries {
		texts[i] = e.QueryText
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed ground truth corpus: entries=%d, error=%w", len(s.entries), err)
	}

	for i := range s.entries {
		s.entries[i].embedding = vectors[i]
	}
	s.primed = true

	metrics.InfoWithContext(ctx, "Ground truth corpus primed", map[string]interface{}{
		"entries": len(s.entries),
	})
	return nil
}

/* FindMatch returns the closest entry at or above the threshold, or
 * nil when nothing qualifies */
func (s *GroundTruthStore) FindMatch(ctx context.Context, queryText string) (*Match, error) {
	if err := s.Prime(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query for ground truth lookup: %w", err)
	}

	best := -1
	bestSim := 0.0
	for i, e := range s.entries {
		sim := drift.CosineSimilarity(queryVec, e.embedding)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	if best < 0 || bestSim < s.threshold {
		return nil, nil
	}
	return &Match{SQL: s.entries[best].SQL, Similarity: bestSim}, nil
}

/* AgentTypes returns the distinct agent types present in the corpus */
func (s *GroundTruthStore) AgentTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, e := range s.entries {
		t := strings.ToLower(e.AgentType)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			types = append(types, t)
		}
	}
	return types
}

/* CorpusFor returns up to limit corpus questions for an agent type,
 * the seed for baseline rebuilds */
func (s *GroundTruthStore) CorpusFor(agentType string, limit int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var corpus []string
	for _, e := range s.entries {
		if e.AgentType == "" || strings.EqualFold(e.AgentType, agentType) {
			corpus = append(corpus, e.QueryText)
			if limit > 0 && len(corpus) >= limit {
				break
			}
		}
	}
	return corpus
}
