/*-------------------------------------------------------------------------
 *
 * structural.go
 *    Non-executing structural validation of generated SQL
 *
 * Checks syntax plausibility and schema compatibility (known tables and
 * columns) without touching a database. The score is graded and
 * monotonic in severity: broken syntax scores below a parseable
 * statement that references one unknown column.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/validator/structural.go
 *
 *-------------------------------------------------------------------------
 */

package validator

import (
	"fmt"
	"regexp"
	"strings"
)

/* SchemaDescriptor maps table names to their column sets */
type SchemaDescriptor map[string]map[string]string

/* StructuralResult is the graded outcome of structural validation */
type StructuralResult struct {
	Passed      bool
	Score       float64
	SyntaxValid bool
	SchemaValid bool
	Reasons     []string
}

/* Severity-graded scores. Syntax failure is worse than an unknown
 * table, which is worse than an unknown column on a known table. */
const (
	scoreSyntaxInvalid  = 0.0
	scoreUnknownTable   = 0.3
	scoreUnknownColumn  = 0.5
	scoreClean          = 1.0
)

type StructuralValidator struct {
	schema SchemaDescriptor

	tables  map[string]struct{}
	columns map[string]map[string]struct{}
}

func NewStructuralValidator(schema SchemaDescriptor) *StructuralValidator {
	v := &StructuralValidator{
		schema:  schema,
		tables:  make(map[string]struct{}),
		columns: make(map[string]map[string]struct{}),
	}
	for table, cols := range schema {
		t := strings.ToLower(table)
		v.tables[t] = struct{}{}
		v.columns[t] = make(map[string]struct{}, len(cols))
		for col := range cols {
			v.columns[t][strings.ToLower(col)] = struct{}{}
		}
	}
	return v
}

var (
	tableRefPattern  = regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-z_][\w]*(?:\.[a-z_][\w]*)?)`)
	columnRefPattern = regexp.MustCompile(`(?i)\b([a-z_][\w]*)\.([a-z_][\w]*)\b`)
	ctePattern       = regexp.MustCompile(`(?i)(?:\bwith\s+|,\s*)([a-z_][\w]*)\s+as\s*\(`)
)

/* Validate runs the syntax check then the schema compatibility check */
func (v *StructuralValidator) Validate(sqlText string) StructuralResult {
	result := StructuralResult{Reasons: []string{}}

	if reason := checkSyntax(sqlText); reason != "" {
		result.Score = scoreSyntaxInvalid
		result.Reasons = append(result.Reasons, fmt.Sprintf("syntax error: %s", reason))
		return result
	}
	result.SyntaxValid = true

	unknownTables, unknownColumns := v.checkSchema(sqlText)
	switch {
	case len(unknownTables) > 0:
		result.Score = scoreUnknownTable
		for _, t := range unknownTables {
			result.Reasons = append(result.Reasons, fmt.Sprintf("table '%s' does not exist", t))
		}
		for _, c := range unknownColumns {
			result.Reasons = append(result.Reasons, fmt.Sprintf("column '%s' does not exist", c))
		}
	case len(unknownColumns) > 0:
		result.Score = scoreUnknownColumn
		for _, c := range unknownColumns {
			result.Reasons = append(result.Reasons, fmt.Sprintf("column '%s' does not exist", c))
		}
	default:
		result.SchemaValid = true
		result.Passed = true
		result.Score = scoreClean
	}

	return result
}

/* checkSyntax is a lightweight plausibility check: statement shape,
 * balanced parens and quotes, no dangling clauses. It is deliberately
 * permissive; deep validation belongs to the executing layers. */
func checkSyntax(sqlText string) string {
	s := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(sqlText), ";"))
	if s == "" {
		return "empty statement"
	}

	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "statement must begin with SELECT or WITH"
	}

	depth := 0
	inSingle := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inSingle = !inSingle
		case '(':
			if !inSingle {
				depth++
			}
		case ')':
			if !inSingle {
				depth--
				if depth < 0 {
					return "unbalanced closing parenthesis"
				}
			}
		}
	}
	if depth != 0 {
		return "unbalanced parentheses"
	}
	if inSingle {
		return "unterminated string literal"
	}

	/* SELECT with an empty projection or a FROM with nothing after it */
	if regexp.MustCompile(`(?i)\bselect\s+from\b`).MatchString(s) {
		return "empty select list"
	}
	if regexp.MustCompile(`(?i)\bfrom\s*(where|group\s+by|order\s+by|limit|$)`).MatchString(upper) {
		return "FROM clause has no table reference"
	}

	/* Dangling trailing keyword or operator */
	if regexp.MustCompile(`(?i)(\b(where|and|or|by|on|join|from|select)|[=<>+\-*/,])$`).MatchString(upper) {
		return "statement ends with a dangling clause"
	}

	return ""
}

/* checkSchema extracts table and qualified column references and
 * reports the ones absent from the schema descriptor */
func (v *StructuralValidator) checkSchema(sqlText string) (unknownTables, unknownColumns []string) {
	if len(v.tables) == 0 {
		/* No schema descriptor supplied; nothing to check against */
		return nil, nil
	}

	aliases := make(map[string]string)

	/* CTE names act as tables within the statement */
	ctes := make(map[string]struct{})
	for _, m := range ctePattern.FindAllStringSubmatch(sqlText, -1) {
		ctes[strings.ToLower(m[1])] = struct{}{}
	}

	for _, m := range tableRefPattern.FindAllStringSubmatch(sqlText, -1) {
		ref := strings.ToLower(m[1])
		/* Drop schema qualification */
		if idx := strings.LastIndex(ref, "."); idx >= 0 {
			ref = ref[idx+1:]
		}
		if _, ok := ctes[ref]; ok {
			continue
		}
		if _, ok := v.tables[ref]; !ok {
			unknownTables = append(unknownTables, ref)
		} else {
			aliases[ref] = ref
		}
	}

	/* Resolve alias definitions like "FROM orders o" */
	aliasPattern := regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-z_][\w]*(?:\.[a-z_][\w]*)?)\s+(?:as\s+)?([a-z_][\w]*)\b`)
	for _, m := range aliasPattern.FindAllStringSubmatch(sqlText, -1) {
		table := strings.ToLower(m[1])
		if idx := strings.LastIndex(table, "."); idx >= 0 {
			table = table[idx+1:]
		}
		alias := strings.ToLower(m[2])
		if isClauseKeyword(alias) {
			continue
		}
		if _, ok := v.tables[table]; ok {
			aliases[alias] = table
		}
	}

	seen := make(map[string]struct{})
	for _, m := range columnRefPattern.FindAllStringSubmatch(sqlText, -1) {
		qualifier := strings.ToLower(m[1])
		column := strings.ToLower(m[2])

		table, ok := aliases[qualifier]
		if !ok {
			/* Qualifier is a schema name or unresolved alias; skip */
			continue
		}
		cols, ok := v.columns[table]
		if !ok {
			continue
		}
		if _, ok := cols[column]; !ok {
			key := table + "." + column
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				unknownColumns = append(unknownColumns, key)
			}
		}
	}

	return unknownTables, unknownColumns
}

func isClauseKeyword(word string) bool {
	switch word {
	case "where", "on", "inner", "left", "right", "full", "cross",
		"join", "group", "order", "limit", "having", "union", "using", "as":
		return true
	}
	return false
}
