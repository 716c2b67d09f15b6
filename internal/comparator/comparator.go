/*-------------------------------------------------------------------------
 *
 * comparator.go
 *    Result set comparison with ordering normalization
 *
 * Compares two execution results structurally (column names), by
 * cardinality, and by content. Row order is canonicalized unless the
 * source SQL carries a top-level ORDER BY.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/comparator/comparator.go
 *
 *-------------------------------------------------------------------------
 */

package comparator

import (
	"sort"
	"strings"

	"github.com/neurondb/NeuronEval/internal/executor"
)

/* ComparisonResult describes how two result sets relate */
type ComparisonResult struct {
	SchemaMatch     bool
	RowCountMatch   bool
	OrderingMatters bool
	Truncated       bool

	/* Fraction of rows fully equal under the chosen ordering policy.
	 * Nil when either execution failed. */
	ContentMatchRate *float64

	Details map[string]interface{}
}

/* Compare compares two execution results. sourceSQL drives ordering
 * sensitivity: without a top-level ORDER BY both row sets are
 * canonically sorted before comparison. */
func Compare(execA, execB *executor.ExecutionResult, sourceSQL string) ComparisonResult {
	details := make(map[string]interface{})
	result := ComparisonResult{Details: details}

	if execA == nil || execB == nil || !execA.Success || !execB.Success {
		details["note"] = "content comparison skipped: one or both executions failed"
		return result
	}

	if execA.Truncated || execB.Truncated {
		result.Truncated = true
		details["truncation_note"] = "one or both result sets were truncated at the row cap; match rate reflects fetched rows only"
	}

	result.SchemaMatch = schemasMatch(execA.Columns, execB.Columns)
	details["columns_a"] = execA.Columns
	details["columns_b"] = execB.Columns

	result.RowCountMatch = execA.RowCount == execB.RowCount
	details["row_count_a"] = execA.RowCount
	details["row_count_b"] = execB.RowCount

	result.OrderingMatters = hasTopLevelOrderBy(sourceSQL)
	details["ordering_matters"] = result.OrderingMatters

	rate := contentMatchRate(execA.Rows, execB.Rows, result.OrderingMatters)
	result.ContentMatchRate = &rate
	details["content_match_rate"] = rate

	if !result.SchemaMatch {
		details["note"] = "column name sets differ"
	}

	return result
}

/* schemasMatch compares column-name sets case- and order-insensitively */
func schemasMatch(colsA, colsB []string) bool {
	setA := normalizeColumnSet(colsA)
	setB := normalizeColumnSet(colsB)

	if len(setA) != len(setB) {
		return false
	}
	for name := range setA {
		if _, ok := setB[name]; !ok {
			return false
		}
	}
	return true
}

func normalizeColumnSet(cols []string) map[string]struct{} {
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		set[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return set
}

/* hasTopLevelOrderBy detects an ORDER BY outside subqueries. The
 * heuristic checks for ORDER BY after the last closing paren, which
 * covers ORDER BY inside a subquery without a full parse. */
func hasTopLevelOrderBy(sql string) bool {
	if sql == "" {
		return false
	}
	upper := strings.ToUpper(sql)
	lastParen := strings.LastIndex(upper, ")")
	if lastParen == -1 {
		return strings.Contains(upper, "ORDER BY")
	}
	return strings.Contains(upper[lastParen:], "ORDER BY")
}

/* contentMatchRate counts rows fully equal under the ordering policy.
 * Mismatched cardinalities are penalized through the denominator:
 * matched / max(rowsA, rowsB, 1). */
func contentMatchRate(rowsA, rowsB [][]interface{}, ordered bool) float64 {
	denom := len(rowsA)
	if len(rowsB) > denom {
		denom = len(rowsB)
	}
	if denom == 0 {
		/* Two empty result sets agree completely */
		return 1.0
	}

	a := rowsA
	b := rowsB
	if !ordered {
		a = canonicalSort(rowsA)
		b = canonicalSort(rowsB)
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	matched := 0
	for i := 0; i < n; i++ {
		if rowsEqual(a[i], b[i]) {
			matched++
		}
	}

	return float64(matched) / float64(denom)
}

/* canonicalSort returns rows sorted by full-tuple order with a stable
 * NULL-first ordering; the input slice is not mutated */
func canonicalSort(rows [][]interface{}) [][]interface{} {
	sorted := make([][]interface{}, len(rows))
	copy(sorted, rows)

	keys := make([]string, len(sorted))
	for i, row := range sorted {
		keys[i] = sortKey(row)
	}

	idx := make([]int, len(sorted))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return keys[idx[i]] < keys[idx[j]]
	})

	out := make([][]interface{}, len(sorted))
	for i, j := range idx {
		out[i] = sorted[j]
	}
	return out
}
