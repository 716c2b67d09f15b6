/*-------------------------------------------------------------------------
 *
 * values.go
 *    Cell value normalization and equality for result comparison
 *
 * Tolerates cross-backend representational differences: exact-decimal
 * strings vs floats, timestamp strings vs native time values, padded
 * strings, and NULLs.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/comparator/values.go
 *
 *-------------------------------------------------------------------------
 */

package comparator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

/* Epsilon is the tolerance for numeric cell comparison */
const Epsilon = 1e-4

var temporalLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

/* numericValue coerces ints, floats, and numeric strings to float64 */
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		/* Exact-decimal backends return NUMERIC as text */
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

/* temporalValue coerces time.Time and recognizable date/timestamp
 * strings into a single canonical representation */
func temporalValue(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range temporalLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

/* valuesEqual compares two cells with type normalization */
func valuesEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if fa, ok := numericValue(a); ok {
		if fb, ok := numericValue(b); ok {
			return math.Abs(fa-fb) < Epsilon
		}
	}

	if ta, ok := temporalValue(a); ok {
		if tb, ok := temporalValue(b); ok {
			return ta.Equal(tb)
		}
	}

	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ba == bb
		}
	}

	return strings.TrimSpace(stringify(a)) == strings.TrimSpace(stringify(b))
}

/* rowsEqual compares two rows cell by cell */
func rowsEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

/* sortKey builds a total-order key for a row: each cell maps to a type
 * rank plus a canonical string, so mixed-type columns still sort
 * deterministically with NULLs first */
func sortKey(row []interface{}) string {
	var b strings.Builder
	for _, v := range row {
		if v == nil {
			b.WriteString("0|")
			continue
		}
		if f, ok := numericValue(v); ok {
			/* Fixed-width so lexicographic order matches numeric order */
			b.WriteString(fmt.Sprintf("1|%020.6f", f+1e12))
			b.WriteByte('|')
			continue
		}
		if t, ok := temporalValue(v); ok {
			b.WriteString("2|")
			b.WriteString(t.Format(time.RFC3339Nano))
			b.WriteByte('|')
			continue
		}
		b.WriteString("3|")
		b.WriteString(strings.TrimSpace(stringify(v)))
		b.WriteByte('|')
	}
	return b.String()
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}
