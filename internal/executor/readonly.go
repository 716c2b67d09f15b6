/*-------------------------------------------------------------------------
 *
 * readonly.go
 *    Read-only statement enforcement for the query executor
 *
 * Rejects any statement whose effective top-level verb is not SELECT or
 * WITH...SELECT before it reaches a database. The textual check strips
 * comments and rejects multi-statement payloads so the common bypass
 * routes (leading comments, stacked statements) are closed; a
 * parser-level statement-type check on backends that expose one remains
 * an open hardening gap.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/executor/readonly.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"fmt"
	"regexp"
	"strings"
)

var dangerousKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER",
	"TRUNCATE", "REPLACE", "MERGE", "GRANT", "REVOKE",
	"COPY", "EXEC", "EXECUTE", "CALL", "INTO",
}

var keywordPatterns = buildKeywordPatterns()

func buildKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(dangerousKeywords))
	for _, kw := range dangerousKeywords {
		patterns[kw] = regexp.MustCompile(`\b` + kw + `\b`)
	}
	return patterns
}

/* stripComments removes SQL line and block comments */
func stripComments(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))

	inLine := false
	inBlock := false
	inSingle := false
	inDouble := false

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		if inLine {
			if c == '\n' {
				inLine = false
				b.WriteByte(c)
			}
			continue
		}
		if inBlock {
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				inBlock = false
				i++
			}
			continue
		}
		if inSingle {
			b.WriteByte(c)
			if c == '\'' {
				inSingle = false
			}
			continue
		}
		if inDouble {
			b.WriteByte(c)
			if c == '"' {
				inDouble = false
			}
			continue
		}

		switch {
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			inLine = true
			i++
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			inBlock = true
			i++
		case c == '\'':
			inSingle = true
			b.WriteByte(c)
		case c == '"':
			inDouble = true
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

/* CheckReadOnly verifies that the statement is a single read-only
 * SELECT or WITH...SELECT. Returns a policy violation error otherwise. */
func CheckReadOnly(sqlText string) error {
	stripped := strings.TrimSpace(stripComments(sqlText))
	if stripped == "" {
		return fmt.Errorf("empty statement after comment stripping")
	}

	/* Reject stacked statements; a single trailing semicolon is fine */
	body := strings.TrimRight(stripped, "; \t\n\r")
	if containsStatementSeparator(body) {
		return fmt.Errorf("multi-statement payloads are not allowed")
	}

	upper := strings.ToUpper(body)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		verb := upper
		if idx := strings.IndexAny(verb, " \t\n"); idx > 0 {
			verb = verb[:idx]
		}
		return fmt.Errorf("top-level verb '%s' is not read-only (only SELECT and WITH...SELECT allowed)", verb)
	}

	for _, kw := range dangerousKeywords {
		if keywordPatterns[kw].MatchString(upper) {
			return fmt.Errorf("statement contains forbidden keyword '%s'", kw)
		}
	}

	return nil
}

/* containsStatementSeparator reports a semicolon outside string literals */
func containsStatementSeparator(sql string) bool {
	inSingle := false
	inDouble := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				return true
			}
		}
	}
	return false
}
