/*-------------------------------------------------------------------------
 *
 * classifier_test.go
 *    Tests for rule-first error classification
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/judge/classifier_test.go
 *
 *-------------------------------------------------------------------------
 */

package judge

import (
	"context"
	"testing"
)

func TestClassifyRules(t *testing.T) {
	c := NewClassifier(nil, "")

	tests := []struct {
		name         string
		message      string
		wantCategory string
		wantSeverity string
	}{
		{"syntax error", `syntax error at or near "FORM"`, CategorySQLGeneration, "high"},
		{"parse failure", "could not parse SQL statement", CategorySQLGeneration, "high"},
		{"unexpected token", "unexpected token at position 42", CategorySQLGeneration, "high"},
		{"missing relation", `relation 'customer_orders' does not exist`, CategoryContextRetrieval, "high"},
		{"missing column", `column 'revenue' does not exist`, CategoryContextRetrieval, "high"},
		{"bare does not exist", "the requested view does not exist", CategoryContextRetrieval, "medium"},
		{"sqlite missing table", "no such table: orders", CategoryContextRetrieval, "high"},
		{"connection refused", "dial tcp 10.0.0.5:5432: connection refused", CategoryIntegration, "high"},
		{"timeout", "query timeout after 30s", CategoryIntegration, "medium"},
		{"service unavailable", "upstream returned 503 Service Unavailable", CategoryIntegration, "medium"},
		{"retries exhausted", "max retries exceeded with url", CategoryIntegration, "medium"},
		{"empty data", "no rows returned for the requested period", CategoryDataError, "low"},
		{"wrong join", "incorrect join produced duplicate rows", CategoryAgentLogic, "medium"},
		{"missing filter", "missing filter on date range", CategoryAgentLogic, "medium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(context.Background(), tt.message, ClassifyContext{})

			if cls.Category != tt.wantCategory {
				t.Errorf("category = %s, want %s", cls.Category, tt.wantCategory)
			}
			if cls.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", cls.Severity, tt.wantSeverity)
			}
			if cls.Confidence != 1.0 || cls.Method != MethodRule {
				t.Errorf("rule match must have confidence 1.0 and method rule, got %+v", cls)
			}
			if cls.Signature == "" {
				t.Error("signature must be set")
			}
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := NewClassifier(nil, "")

	/* Matches both the syntax rule and the does-not-exist rule; the
	 * syntax rule is ordered first */
	cls := c.Classify(context.Background(), "syntax error: table does not exist", ClassifyContext{})

	if cls.Category != CategorySQLGeneration {
		t.Errorf("first rule must win, got %s", cls.Category)
	}
}

func TestClassifyDefaultWithoutModel(t *testing.T) {
	c := NewClassifier(nil, "")

	cls := c.Classify(context.Background(), "something entirely novel happened", ClassifyContext{})

	if cls.Category != CategoryAgentLogic {
		t.Errorf("unmatched message must default to AGENT_LOGIC, got %s", cls.Category)
	}
	if cls.Confidence != 0.3 || cls.Severity != "low" {
		t.Errorf("default classification must be low confidence, got %+v", cls)
	}
}

func TestClassifyLLMFallback(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantCategory string
		wantMethod   string
		wantConf     float64
	}{
		{"labeled response", "CATEGORY: INTEGRATION", CategoryIntegration, MethodLLM, 0.7},
		{"bare category", "data_error", CategoryDataError, MethodLLM, 0.7},
		{"trailing punctuation", "CATEGORY: SQL_GENERATION.", CategorySQLGeneration, MethodLLM, 0.7},
		{"invalid category falls through", "CATEGORY: SOMETHING_ELSE", CategoryAgentLogic, MethodRule, 0.3},
		{"empty response falls through", "   ", CategoryAgentLogic, MethodRule, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&fakeChatClient{content: tt.content}, "")

			cls := c.Classify(context.Background(), "an unmatched failure shape", ClassifyContext{Query: "q"})

			if cls.Category != tt.wantCategory || cls.Method != tt.wantMethod || cls.Confidence != tt.wantConf {
				t.Errorf("got %+v, want category=%s method=%s confidence=%f",
					cls, tt.wantCategory, tt.wantMethod, tt.wantConf)
			}
		})
	}
}

func TestErrorSignatureStability(t *testing.T) {
	a := ErrorSignature(`relation 'orders_2024' does not exist at line 3`)
	b := ErrorSignature(`relation 'orders_2025' does not exist at line 17`)
	c := ErrorSignature(`column 'region' does not exist`)

	if a != b {
		t.Error("messages differing only in literals and digits must share a signature")
	}
	if a == c {
		t.Error("different failure shapes must not collide")
	}
	if len(a) != 16 {
		t.Errorf("signature must be 16 hex chars, got %d", len(a))
	}
}

func TestErrorSignatureWhitespaceInsensitive(t *testing.T) {
	a := ErrorSignature("query  timeout\n after 30s")
	b := ErrorSignature("query timeout after 99s")

	if a != b {
		t.Error("whitespace and digit variations must not change the signature")
	}
}
