/*-------------------------------------------------------------------------
 *
 * readonly_test.go
 *    Tests for read-only statement enforcement
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/executor/readonly_test.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"strings"
	"testing"
)

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"simple select", "SELECT 1", false},
		{"select with trailing semicolon", "select id from users;", false},
		{"cte select", "WITH c AS (SELECT 1 AS x) SELECT x FROM c", false},
		{"semicolon inside literal", "SELECT ';' AS sep", false},
		{"leading line comment", "-- note\nSELECT 1", false},
		{"leading block comment", "/* note */ SELECT 1", false},
		{"empty statement", "", true},
		{"comment only", "-- nothing here", true},
		{"insert", "INSERT INTO users VALUES (1)", true},
		{"update", "UPDATE users SET name = 'x'", true},
		{"delete", "DELETE FROM users", true},
		{"drop", "DROP TABLE users", true},
		{"stacked statements", "SELECT 1; DROP TABLE users", true},
		{"select into", "SELECT * INTO backup FROM users", true},
		{"verb hidden behind comment", "/* x */ TRUNCATE users", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReadOnly(tt.sql)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckReadOnly(%q) error = %v, wantErr %v", tt.sql, err, tt.wantErr)
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"line comment", "SELECT 1 -- trailing", "SELECT 1 "},
		{"block comment", "SELECT /* inline */ 1", "SELECT  1"},
		{"comment marker inside literal", "SELECT '--not a comment'", "SELECT '--not a comment'"},
		{"block marker inside literal", "SELECT '/* keep */'", "SELECT '/* keep */'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripComments(tt.sql); got != tt.want {
				t.Errorf("stripComments(%q) = %q, want %q", tt.sql, got, tt.want)
			}
		})
	}
}

func TestCheckReadOnlyReportsVerb(t *testing.T) {
	err := CheckReadOnly("MERGE INTO t USING s ON t.id = s.id")
	if err == nil {
		t.Fatal("expected error for MERGE statement")
	}
	if !strings.Contains(err.Error(), "MERGE") {
		t.Errorf("error should name the offending verb, got %q", err.Error())
	}
}
