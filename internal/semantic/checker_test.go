/*-------------------------------------------------------------------------
 *
 * checker_test.go
 *    Tests for schema-aware semantic SQL comparison
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/semantic/checker_test.go
 *
 *-------------------------------------------------------------------------
 */

package semantic

import (
	"math"
	"testing"
)

func testChecker() *Checker {
	return NewChecker(map[string]map[string]string{
		"customers": {
			"id":     "integer",
			"region": "text",
		},
		"orders": {
			"id":          "integer",
			"customer_id": "integer",
			"profit":      "numeric",
		},
	})
}

func TestNormalizeSQL(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"collapses whitespace", "SELECT   id\n FROM\t users", "select id from users"},
		{"strips trailing semicolon", "SELECT id FROM users;", "select id from users"},
		{"lowercases", "SELECT Region FROM Customers", "select region from customers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSQL(tt.sql); got != tt.want {
				t.Errorf("NormalizeSQL(%q) = %q, want %q", tt.sql, got, tt.want)
			}
		})
	}
}

func TestNormalizeColumnRef(t *testing.T) {
	c := testChecker()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"table alias prefix", "c.region", "region"},
		{"aggregate with alias", "AVG(o.profit) as avg_profit", "avg(profit)"},
		{"schema-qualified table", "spend_data.orders o", "orders"},
		{"plain column", "region", "region"},
		{"column alias", "region AS r", "region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.normalizeColumnRef(tt.ref); got != tt.want {
				t.Errorf("normalizeColumnRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestExtractComponents(t *testing.T) {
	c := testChecker()

	comp := c.ExtractComponents(
		"SELECT c.region, AVG(o.profit) AS avg_profit FROM customers c " +
			"JOIN orders o ON o.customer_id = c.id WHERE c.region = 'west' " +
			"GROUP BY c.region ORDER BY avg_profit LIMIT 10")

	if len(comp.Select) != 2 {
		t.Errorf("expected 2 select items, got %v", comp.Select)
	}
	if len(comp.From) != 1 || comp.From[0] != "customers" {
		t.Errorf("unexpected from clause: %v", comp.From)
	}
	if len(comp.Joins) != 1 || comp.Joins[0] != "orders" {
		t.Errorf("unexpected joins: %v", comp.Joins)
	}
	if len(comp.GroupBy) != 1 {
		t.Errorf("unexpected group by: %v", comp.GroupBy)
	}
	if comp.Limit != "10" {
		t.Errorf("unexpected limit: %q", comp.Limit)
	}
}

func TestCalculateSimilarityExactMatch(t *testing.T) {
	c := testChecker()

	score, components := c.CalculateSimilarity(
		"SELECT  id FROM customers;",
		"select id\nfrom customers")

	if score != 1.0 {
		t.Errorf("normalized-identical statements must score 1.0, got %f", score)
	}
	if _, ok := components["exact"]; !ok {
		t.Errorf("expected the exact-match shortcut, got %v", components)
	}
}

func TestCalculateSimilarityAliasInsensitive(t *testing.T) {
	c := testChecker()

	score, components := c.CalculateSimilarity(
		"SELECT c.region FROM customers c WHERE c.region = 'west'",
		"SELECT region FROM customers WHERE c.region = 'west'")

	if components["select"] != 1.0 {
		t.Errorf("'c.region' and 'region' must match after normalization, got %f", components["select"])
	}
	if components["from"] != 1.0 {
		t.Errorf("aliased and bare table must match, got %f", components["from"])
	}
	if score < 0.6 {
		t.Errorf("expected equivalence-grade similarity, got %f", score)
	}
}

func TestCalculateSimilarityDisjointStatements(t *testing.T) {
	c := testChecker()

	score, components := c.CalculateSimilarity(
		"SELECT region FROM customers",
		"SELECT profit FROM orders")

	if components["select"] != 0.0 || components["from"] != 0.0 {
		t.Errorf("disjoint select and from must score 0, got %v", components)
	}
	/* Absent clauses agree on both sides: where, group_by, order_by, joins */
	want := weightWhere + weightGroupBy + weightOrderBy + weightJoins
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %f, want %f", score, want)
	}
}

func TestCheckEquivalenceThresholds(t *testing.T) {
	c := testChecker()

	eq := c.CheckEquivalence(
		"SELECT c.region, AVG(o.profit) AS avg_profit FROM customers c JOIN orders o ON o.customer_id = c.id GROUP BY c.region",
		"SELECT region, AVG(profit) FROM customers JOIN orders ON orders.customer_id = customers.id GROUP BY region")

	if !eq.IsEquivalent {
		t.Errorf("alias-only differences should be equivalent, score %f components %v",
			eq.SimilarityScore, eq.ComponentScores)
	}
	if eq.GeneratedNormalized == "" || eq.GroundTruthNormalized == "" {
		t.Error("normalized forms must be populated")
	}
}

func TestListSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"both empty", nil, nil, 1.0},
		{"one empty", []string{"x"}, nil, 0.0},
		{"identical", []string{"a", "b"}, []string{"b", "a"}, 1.0},
		{"overlap coefficient uses min size", []string{"a"}, []string{"a", "b", "c"}, 1.0},
		{"partial overlap", []string{"a", "b"}, []string{"b", "c"}, 0.5},
		{"disjoint", []string{"a"}, []string{"b"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("listSimilarity(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
