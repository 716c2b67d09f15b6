/*-------------------------------------------------------------------------
 *
 * client_test.go
 *    Tests for the NeuronEval API client
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cli/pkg/client/client_test.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEvaluateRoundTrip(t *testing.T) {
	var gotPath string
	var gotBody EvaluationRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Evaluation{
			QueryID:    gotBody.QueryID,
			Verdict:    "PASS",
			FinalScore: 0.91,
			State:      "PERSISTED",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	evaluation, err := c.Evaluate(EvaluationRequest{
		QueryID:      "q-1",
		QueryText:    "total sales",
		AgentType:    "analytics",
		GeneratedSQL: "SELECT SUM(amount) FROM orders",
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if gotPath != "/api/v1/evaluations" {
		t.Errorf("path = %s", gotPath)
	}
	if gotBody.AgentType != "analytics" {
		t.Errorf("request body not forwarded: %+v", gotBody)
	}
	if evaluation.Verdict != "PASS" || evaluation.FinalScore != 0.91 {
		t.Errorf("unexpected evaluation: %+v", evaluation)
	}
}

func TestGetEvaluationPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/evaluations/q-42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Evaluation{QueryID: "q-42"})
	}))
	defer srv.Close()

	evaluation, err := NewClient(srv.URL).GetEvaluation("q-42")
	if err != nil {
		t.Fatalf("GetEvaluation() error = %v", err)
	}
	if evaluation.QueryID != "q-42" {
		t.Errorf("unexpected evaluation: %+v", evaluation)
	}
}

func TestErrorResponseDecoding(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantSubstr string
	}{
		{
			name:       "structured error with message",
			status:     http.StatusNotFound,
			body:       `{"error": "not_found", "message": "evaluation not found"}`,
			wantSubstr: "not_found: evaluation not found",
		},
		{
			name:       "structured error without message",
			status:     http.StatusConflict,
			body:       `{"error": "rebuild_in_progress"}`,
			wantSubstr: "rebuild_in_progress",
		},
		{
			name:       "unstructured error body",
			status:     http.StatusInternalServerError,
			body:       "boom",
			wantSubstr: "server returned 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).GetEvaluation("q-1")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestRebuildBaseline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/baselines/analytics/rebuild" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Corpus []string `json:"corpus"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(Baseline{
			AgentType:  "analytics",
			CorpusSize: len(body.Corpus),
			Version:    2,
			IsActive:   true,
		})
	}))
	defer srv.Close()

	baseline, err := NewClient(srv.URL).RebuildBaseline("analytics", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("RebuildBaseline() error = %v", err)
	}
	if baseline.CorpusSize != 3 || baseline.Version != 2 || !baseline.IsActive {
		t.Errorf("unexpected baseline: %+v", baseline)
	}
}

func TestClassifyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ErrorClassification{
			Category:   "SQL_GENERATION",
			Severity:   "high",
			Confidence: 1.0,
			Method:     "rule",
			Signature:  "abc123",
		})
	}))
	defer srv.Close()

	cls, err := NewClient(srv.URL).ClassifyError("q-1", "syntax error", "")
	if err != nil {
		t.Fatalf("ClassifyError() error = %v", err)
	}
	if cls.Category != "SQL_GENERATION" || cls.Method != "rule" {
		t.Errorf("unexpected classification: %+v", cls)
	}
}
