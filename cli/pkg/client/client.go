/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP client for the NeuronEval API
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cli/pkg/client/client.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

/* EvaluationRequest mirrors the server's evaluation submission body */
type EvaluationRequest struct {
	QueryID              string  `json:"query_id"`
	QueryText            string  `json:"query_text"`
	AgentType            string  `json:"agent_type"`
	GeneratedSQL         string  `json:"generated_sql"`
	GroundTruthSQL       string  `json:"ground_truth_sql,omitempty"`
	ConnectionDescriptor string  `json:"connection_descriptor,omitempty"`
	GTMatchSimilarity    float64 `json:"gt_match_similarity,omitempty"`
}

/* Evaluation is the server's evaluation response */
type Evaluation struct {
	QueryID         string   `json:"query_id"`
	AgentType       string   `json:"agent_type"`
	StructuralScore float64  `json:"structural_score"`
	SemanticScore   float64  `json:"semantic_score"`
	LLMScore        float64  `json:"llm_score"`
	ResultScore     *float64 `json:"result_score,omitempty"`
	FinalScore      float64  `json:"final_score"`
	Verdict         string   `json:"verdict"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	State           string   `json:"state"`
}

/* DriftScore is the server's drift response */
type DriftScore struct {
	QueryID              string  `json:"query_id"`
	AgentType            string  `json:"agent_type"`
	DriftScore           float64 `json:"drift_score"`
	Classification       string  `json:"classification"`
	SimilarityToBaseline float64 `json:"similarity_to_baseline"`
	IsAnomaly            bool    `json:"is_anomaly"`
}

/* Baseline is the server's baseline response */
type Baseline struct {
	AgentType  string `json:"agent_type"`
	CorpusSize int    `json:"corpus_size"`
	Version    int    `json:"version"`
	IsActive   bool   `json:"is_active"`
}

/* ErrorClassification is the server's classify response */
type ErrorClassification struct {
	Category   string  `json:"category"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Signature  string  `json:"signature"`
}

func (c *Client) Evaluate(req EvaluationRequest) (*Evaluation, error) {
	var resp Evaluation
	if err := c.post("/api/v1/evaluations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetEvaluation(queryID string) (*Evaluation, error) {
	var resp Evaluation
	if err := c.get("/api/v1/evaluations/"+queryID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ScoreDrift(queryID, queryText, agentType string) (*DriftScore, error) {
	var resp DriftScore
	body := map[string]string{
		"query_id":   queryID,
		"query_text": queryText,
		"agent_type": agentType,
	}
	if err := c.post("/api/v1/drift/score", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RebuildBaseline(agentType string, corpus []string) (*Baseline, error) {
	var resp Baseline
	body := map[string]interface{}{"corpus": corpus}
	if err := c.post("/api/v1/baselines/"+agentType+"/rebuild", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ClassifyError(queryID, errorMessage, queryText string) (*ErrorClassification, error) {
	var resp ErrorClassification
	body := map[string]string{
		"query_id":      queryID,
		"error_message": errorMessage,
		"query_text":    queryText,
	}
	if err := c.post("/api/v1/errors/classify", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Message)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
