/*-------------------------------------------------------------------------
 *
 * structural_test.go
 *    Tests for structural SQL validation
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/validator/structural_test.go
 *
 *-------------------------------------------------------------------------
 */

package validator

import (
	"strings"
	"testing"
)

func testSchema() SchemaDescriptor {
	return SchemaDescriptor{
		"users": {
			"id":     "integer",
			"name":   "text",
			"region": "text",
		},
		"orders": {
			"id":      "integer",
			"user_id": "integer",
			"amount":  "numeric",
		},
	}
}

func TestStructuralValidateGradedScores(t *testing.T) {
	v := NewStructuralValidator(testSchema())

	tests := []struct {
		name       string
		sql        string
		wantScore  float64
		wantPassed bool
		wantReason string
	}{
		{
			name:       "clean statement",
			sql:        "SELECT name FROM users WHERE id = 1",
			wantScore:  1.0,
			wantPassed: true,
		},
		{
			name:       "clean join with aliases",
			sql:        "SELECT u.name, o.amount FROM users u JOIN orders o ON o.user_id = u.id",
			wantScore:  1.0,
			wantPassed: true,
		},
		{
			name:       "trailing word containing a keyword is not dangling",
			sql:        "SELECT region FROM users ORDER BY region",
			wantScore:  1.0,
			wantPassed: true,
		},
		{
			name:       "cte reference is not an unknown table",
			sql:        "WITH recent AS (SELECT id FROM users) SELECT id FROM recent",
			wantScore:  1.0,
			wantPassed: true,
		},
		{
			name:       "not a select",
			sql:        "UPDATE users SET name = 'x'",
			wantScore:  0.0,
			wantReason: "syntax error",
		},
		{
			name:       "empty statement",
			sql:        "   ",
			wantScore:  0.0,
			wantReason: "empty statement",
		},
		{
			name:       "empty select list",
			sql:        "SELECT FROM users",
			wantScore:  0.0,
			wantReason: "empty select list",
		},
		{
			name:       "unbalanced parentheses",
			sql:        "SELECT name FROM users WHERE (id = 1",
			wantScore:  0.0,
			wantReason: "unbalanced parentheses",
		},
		{
			name:       "unterminated literal",
			sql:        "SELECT name FROM users WHERE name = 'al",
			wantScore:  0.0,
			wantReason: "unterminated string literal",
		},
		{
			name:       "dangling clause",
			sql:        "SELECT name FROM users WHERE",
			wantScore:  0.0,
			wantReason: "dangling clause",
		},
		{
			name:       "unknown table",
			sql:        "SELECT name FROM customers",
			wantScore:  0.3,
			wantReason: "table 'customers' does not exist",
		},
		{
			name:       "unknown column on known table",
			sql:        "SELECT u.nonexistent FROM users u",
			wantScore:  0.5,
			wantReason: "column 'users.nonexistent' does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.sql)

			if result.Score != tt.wantScore {
				t.Errorf("score = %f, want %f (reasons: %v)", result.Score, tt.wantScore, result.Reasons)
			}
			if result.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v", result.Passed, tt.wantPassed)
			}
			if tt.wantReason != "" {
				found := false
				for _, r := range result.Reasons {
					if strings.Contains(r, tt.wantReason) {
						found = true
					}
				}
				if !found {
					t.Errorf("expected a reason containing %q, got %v", tt.wantReason, result.Reasons)
				}
			}
		})
	}
}

func TestStructuralValidateUnknownTableOutranksUnknownColumn(t *testing.T) {
	v := NewStructuralValidator(testSchema())

	result := v.Validate("SELECT u.ghost FROM users u JOIN phantom p ON p.id = u.id")

	if result.Score != 0.3 {
		t.Errorf("unknown table should set the score, got %f", result.Score)
	}
	if !result.SyntaxValid {
		t.Error("syntax should still be marked valid")
	}
	if result.SchemaValid {
		t.Error("schema must be marked invalid")
	}
}

func TestStructuralValidateWithoutSchema(t *testing.T) {
	v := NewStructuralValidator(nil)

	result := v.Validate("SELECT anything FROM wherever")

	if !result.Passed || result.Score != 1.0 {
		t.Errorf("without a schema descriptor only syntax is checked, got %+v", result)
	}
}
