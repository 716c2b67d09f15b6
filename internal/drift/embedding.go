/*-------------------------------------------------------------------------
 *
 * embedding.go
 *    Query embedding for drift detection
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/drift/embedding.go
 *
 *-------------------------------------------------------------------------
 */

package drift

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neurondb/NeuronEval/internal/metrics"
	"github.com/neurondb/NeuronEval/internal/reliability"
)

/* Embedder turns natural-language queries into vectors */
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

/* embeddingAPI is the subset of the OpenAI client the embedder uses */
type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

/* OpenAIEmbedder embeds queries through the embeddings API behind a
 * circuit breaker */
type OpenAIEmbedder struct {
	client  embeddingAPI
	model   openai.EmbeddingModel
	breaker *reliability.CircuitBreaker
}

func NewOpenAIEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client:  client,
		model:   openai.EmbeddingModel(model),
		breaker: reliability.NewCircuitBreaker("embeddings", 5, 30*time.Second),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embedding request has no inputs")
	}

	start := time.Now()
	var resp openai.EmbeddingResponse

	err := e.breaker.Execute(ctx, func() error {
		var callErr error
		resp, callErr = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: e.model,
			Input: texts,
		})
		return callErr
	})
	if err != nil {
		metrics.RecordLLMCall("embedding", "error", time.Since(start))
		return nil, fmt.Errorf("embedding request failed: inputs=%d: %w", len(texts), err)
	}
	metrics.RecordLLMCall("embedding", "success", time.Since(start))

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: want=%d got=%d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
