/*-------------------------------------------------------------------------
 *
 * errors.go
 *    Backend error classification for the query executor
 *
 * Maps driver-specific failures onto the closed error taxonomy
 * {SyntaxError, ConnectionError, PermissionError, Timeout, Unknown}.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/executor/errors.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

/* classifyBackendError maps a driver error onto the closed taxonomy */
func classifyBackendError(scheme string, ctx context.Context, err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindTimeout
	}

	switch scheme {
	case "postgres":
		return classifyPostgresError(err)
	case "mysql":
		return classifyMySQLError(err)
	case "sqlite":
		return classifySQLiteError(err)
	}
	return KindUnknown
}

/* classifyPostgresError uses SQLSTATE classes from lib/pq */
func classifyPostgresError(err error) ErrorKind {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case strings.HasPrefix(code, "42501"):
			return KindPermissionError
		case strings.HasPrefix(code, "42"):
			/* Class 42: syntax error or access rule violation. Unknown
			 * relations and columns (42P01, 42703) land here too; for the
			 * executor they all mean the statement cannot run. */
			return KindSyntaxError
		case strings.HasPrefix(code, "28"):
			return KindPermissionError
		case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "3D"), strings.HasPrefix(code, "57P"):
			return KindConnectionError
		case code == "57014":
			/* statement_timeout / query cancelled */
			return KindTimeout
		}
		return KindUnknown
	}
	return classifyByMessage(err)
}

/* classifyMySQLError uses server error numbers from go-sql-driver */
func classifyMySQLError(err error) ErrorKind {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1064, 1054, 1146: /* parse error, unknown column, unknown table */
			return KindSyntaxError
		case 1044, 1045, 1142, 1143: /* access denied variants */
			return KindPermissionError
		case 1040, 1042, 1043, 2002, 2003, 2006, 2013:
			return KindConnectionError
		case 1205, 3024: /* lock wait / max execution time */
			return KindTimeout
		}
		return KindUnknown
	}
	return classifyByMessage(err)
}

/* classifySQLiteError falls back to message matching; the sqlite3
 * driver error codes do not separate syntax from schema failures */
func classifySQLiteError(err error) ErrorKind {
	return classifyByMessage(err)
}

func classifyByMessage(err error) ErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "syntax error"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"),
		strings.Contains(msg, "does not exist"):
		return KindSyntaxError
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "readonly database"),
		strings.Contains(msg, "attempt to write"):
		return KindPermissionError
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "unable to open database"),
		strings.Contains(msg, "bad connection"),
		strings.Contains(msg, "no such host"):
		return KindConnectionError
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "canceling statement"):
		return KindTimeout
	}
	return KindUnknown
}
