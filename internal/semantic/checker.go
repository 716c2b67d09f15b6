/*-------------------------------------------------------------------------
 *
 * checker.go
 *    Schema-aware semantic comparison of SQL statements
 *
 * Decomposes two statements into clause components, normalizes table
 * and column aliases against schema metadata, and scores component
 * agreement with a weighted overlap coefficient. Never executes SQL.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/semantic/checker.go
 *
 *-------------------------------------------------------------------------
 */

package semantic

import (
	"regexp"
	"strings"
)

/* Clause weights. SELECT dominates: projecting the wrong columns is
 * the most common and most damaging generation failure. */
const (
	weightSelect  = 0.40
	weightFrom    = 0.15
	weightWhere   = 0.20
	weightGroupBy = 0.10
	weightOrderBy = 0.10
	weightJoins   = 0.05
)

/* Components is the clause decomposition of one statement */
type Components struct {
	Select  []string
	From    []string
	Where   []string
	GroupBy []string
	OrderBy []string
	Limit   string
	Joins   []string
}

/* Equivalence is the outcome of a semantic comparison */
type Equivalence struct {
	SimilarityScore      float64
	IsEquivalent         bool
	ComponentsMatch      bool
	GeneratedNormalized  string
	GroundTruthNormalized string
	ComponentScores      map[string]float64
}

type Checker struct {
	columns map[string]struct{}
	tables  map[string]struct{}
}

/* NewChecker builds a checker from schema metadata (tables→columns).
 * A nil schema disables column-aware alias resolution but keeps the
 * syntactic normalization. */
func NewChecker(schema map[string]map[string]string) *Checker {
	c := &Checker{
		columns: make(map[string]struct{}),
		tables:  make(map[string]struct{}),
	}
	for table, cols := range schema {
		c.tables[strings.ToLower(table)] = struct{}{}
		for col := range cols {
			c.columns[strings.ToLower(col)] = struct{}{}
		}
	}
	return c
}

var (
	whitespacePattern  = regexp.MustCompile(`\s+`)
	columnAliasPattern = regexp.MustCompile(`\s+as\s+\w+`)
	tableAliasPattern  = regexp.MustCompile(`^([\w\.]+)\s+\w+$`)
	schemaPrefixPattern = regexp.MustCompile(`^\w+\.(\w+)$`)
	funcCallPattern    = regexp.MustCompile(`(\w+)\(([^)]+)\)`)
	funcArgAliasPattern = regexp.MustCompile(`\w+\.(\w+)`)

	selectClausePattern  = regexp.MustCompile(`select\s+(.*?)\s+from`)
	fromClausePattern    = regexp.MustCompile(`from\s+([\w\.]+)`)
	whereClausePattern   = regexp.MustCompile(`where\s+(.*?)(?:\s+group\s+by|\s+order\s+by|\s+limit|$)`)
	groupByClausePattern = regexp.MustCompile(`group\s+by\s+(.*?)(?:\s+having|\s+order\s+by|\s+limit|$)`)
	orderByClausePattern = regexp.MustCompile(`order\s+by\s+(.*?)(?:\s+limit|$)`)
	limitClausePattern   = regexp.MustCompile(`limit\s+(\d+)`)
	joinClausePattern    = regexp.MustCompile(`(?:inner|left|right|full)?\s*join\s+([\w\.]+)`)
)

/* NormalizeSQL collapses whitespace, lowercases, and strips the
 * trailing semicolon */
func NormalizeSQL(sql string) string {
	s := whitespacePattern.ReplaceAllString(sql, " ")
	s = strings.ToLower(s)
	s = strings.TrimRight(s, ";")
	return strings.TrimSpace(s)
}

/* normalizeColumnRef strips aliases and table prefixes from a single
 * reference:
 *   'c.region'                    → 'region'
 *   'avg(o.profit) as avg_profit' → 'avg(profit)'
 *   'spend_data.orders o'         → 'orders'
 */
func (c *Checker) normalizeColumnRef(item string) string {
	s := strings.ToLower(strings.TrimSpace(item))

	s = columnAliasPattern.ReplaceAllString(s, "")
	s = tableAliasPattern.ReplaceAllString(s, "$1")
	s = schemaPrefixPattern.ReplaceAllString(s, "$1")

	s = funcCallPattern.ReplaceAllStringFunc(s, func(call string) string {
		m := funcCallPattern.FindStringSubmatch(call)
		inner := funcArgAliasPattern.ReplaceAllString(m[2], "$1")
		return m[1] + "(" + inner + ")"
	})

	/* Remaining table alias prefix on plain columns ('o.profit' →
	 * 'profit'), only when the suffix is a known column or no schema
	 * metadata was supplied */
	if strings.Contains(s, ".") && !strings.Contains(s, "(") {
		parts := strings.SplitN(s, ".", 2)
		if len(parts) == 2 && !strings.Contains(parts[1], ".") {
			candidate := strings.TrimSpace(parts[1])
			if _, ok := c.columns[candidate]; ok || len(c.columns) == 0 {
				s = candidate
			}
		}
	}

	return strings.TrimSpace(s)
}

func (c *Checker) normalizeRefs(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = c.normalizeColumnRef(item)
	}
	return out
}

/* ExtractComponents decomposes a statement into its clause parts */
func (c *Checker) ExtractComponents(sql string) Components {
	var comp Components
	s := NormalizeSQL(sql)

	if m := selectClausePattern.FindStringSubmatch(s); m != nil {
		comp.Select = splitTrimmed(m[1])
	}
	if m := fromClausePattern.FindStringSubmatch(s); m != nil {
		comp.From = []string{m[1]}
	}
	if m := whereClausePattern.FindStringSubmatch(s); m != nil {
		comp.Where = []string{strings.TrimSpace(m[1])}
	}
	if m := groupByClausePattern.FindStringSubmatch(s); m != nil {
		comp.GroupBy = splitTrimmed(m[1])
	}
	if m := orderByClausePattern.FindStringSubmatch(s); m != nil {
		comp.OrderBy = splitTrimmed(m[1])
	}
	if m := limitClausePattern.FindStringSubmatch(s); m != nil {
		comp.Limit = m[1]
	}
	for _, m := range joinClausePattern.FindAllStringSubmatch(s, -1) {
		comp.Joins = append(comp.Joins, m[1])
	}

	return comp
}

func splitTrimmed(clause string) []string {
	parts := strings.Split(clause, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

/* CalculateSimilarity scores two statements. Exact match after
 * normalization short-circuits to 1.0. */
func (c *Checker) CalculateSimilarity(sqlA, sqlB string) (float64, map[string]float64) {
	normA := NormalizeSQL(sqlA)
	normB := NormalizeSQL(sqlB)

	if normA == normB {
		return 1.0, map[string]float64{"exact": 1.0}
	}

	compA := c.ExtractComponents(sqlA)
	compB := c.ExtractComponents(sqlB)

	scores := map[string]float64{
		"select":   listSimilarity(c.normalizeRefs(compA.Select), c.normalizeRefs(compB.Select)),
		"from":     listSimilarity(c.normalizeRefs(compA.From), c.normalizeRefs(compB.From)),
		/* WHERE compares raw: conditions are compound expressions and
		 * alias stripping can change their meaning */
		"where":    listSimilarity(compA.Where, compB.Where),
		"group_by": listSimilarity(c.normalizeRefs(compA.GroupBy), c.normalizeRefs(compB.GroupBy)),
		"order_by": listSimilarity(c.normalizeRefs(compA.OrderBy), c.normalizeRefs(compB.OrderBy)),
		"joins":    listSimilarity(c.normalizeRefs(compA.Joins), c.normalizeRefs(compB.Joins)),
	}

	total := scores["select"]*weightSelect +
		scores["from"]*weightFrom +
		scores["where"]*weightWhere +
		scores["group_by"]*weightGroupBy +
		scores["order_by"]*weightOrderBy +
		scores["joins"]*weightJoins

	return total, scores
}

/* CheckEquivalence runs the full comparison with threshold flags */
func (c *Checker) CheckEquivalence(generatedSQL, groundTruthSQL string) Equivalence {
	score, componentScores := c.CalculateSimilarity(generatedSQL, groundTruthSQL)

	return Equivalence{
		SimilarityScore:       score,
		IsEquivalent:          score >= 0.6,
		ComponentsMatch:       score >= 0.7,
		GeneratedNormalized:   NormalizeSQL(generatedSQL),
		GroundTruthNormalized: NormalizeSQL(groundTruthSQL),
		ComponentScores:       componentScores,
	}
}

/* listSimilarity is the overlap coefficient: |A∩B| / min(|A|,|B|).
 * Two empty lists agree completely; one empty list scores zero. */
func listSimilarity(listA, listB []string) float64 {
	if len(listA) == 0 && len(listB) == 0 {
		return 1.0
	}
	if len(listA) == 0 || len(listB) == 0 {
		return 0.0
	}

	setA := toSet(listA)
	setB := toSet(listB)

	intersection := 0
	for item := range setA {
		if _, ok := setB[item]; ok {
			intersection++
		}
	}

	minLen := len(setA)
	if len(setB) < minLen {
		minLen = len(setB)
	}
	if minLen == 0 {
		return 0.0
	}

	return float64(intersection) / float64(minLen)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = struct{}{}
	}
	return set
}
