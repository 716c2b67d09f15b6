/*-------------------------------------------------------------------------
 *
 * handlers_test.go
 *    Tests for API handlers in degraded mode
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/api/handlers_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

/* Without an embedding client the server starts with no drift stack;
 * the routes stay registered and must answer 503, not panic. */
func TestScoreDriftWithoutDriftStack(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, nil, nil)
	router := NewRouter(h)

	body := `{"query_id": "q-1", "query_text": "total sales", "agent_type": "analytics"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drift/score", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if !strings.Contains(resp.Error, "drift detection unavailable") {
		t.Errorf("error = %q, want the unavailability reason", resp.Error)
	}
}

func TestRebuildBaselineWithoutDriftStack(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, nil, nil)
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/baselines/analytics/rebuild", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if !strings.Contains(resp.Error, "baseline rebuild unavailable") {
		t.Errorf("error = %q, want the unavailability reason", resp.Error)
	}
}
