/*-------------------------------------------------------------------------
 *
 * executor.go
 *    Sandboxed, timeout-bounded, read-only SQL execution
 *
 * Executes a single SQL statement against a backend selected by the
 * connection descriptor scheme, with a wall-clock timeout, a row cap,
 * and a closed error taxonomy. Supports PostgreSQL, MySQL, and SQLite
 * behind one interface.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/executor/executor.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/neurondb/NeuronEval/internal/metrics"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxRows = 10000
)

/* ErrorKind is the closed set of execution failure categories */
type ErrorKind string

const (
	KindPolicyViolation ErrorKind = "policy_violation"
	KindTimeout         ErrorKind = "timeout"
	KindSyntaxError     ErrorKind = "syntax_error"
	KindConnectionError ErrorKind = "connection_error"
	KindPermissionError ErrorKind = "permission_error"
	KindUnknown         ErrorKind = "unknown"
)

/* ExecError is a structured execution failure */
type ExecError struct {
	Kind    ErrorKind
	Message string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

/* ExecutionResult is the normalized outcome of one statement */
type ExecutionResult struct {
	Success         bool
	Columns         []string
	Rows            [][]interface{}
	RowCount        int
	Truncated       bool
	ExecutionTimeMS float64
	Error           *ExecError
}

/* Descriptor identifies a target database */
type Descriptor struct {
	Scheme string
	Driver string
	DSN    string
}

/* ParseDescriptor maps a connection URL onto a driver and DSN.
 * Accepted schemes: postgres, postgresql, mysql, sqlite. */
func ParseDescriptor(rawURL string) (*Descriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid connection descriptor: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		/* lib/pq accepts the URL form directly */
		return &Descriptor{Scheme: "postgres", Driver: "postgres", DSN: rawURL}, nil
	case "mysql":
		return &Descriptor{Scheme: "mysql", Driver: "mysql", DSN: mysqlDSN(u)}, nil
	case "sqlite", "sqlite3":
		path := u.Path
		if u.Opaque != "" {
			path = u.Opaque
		}
		if path == "" {
			return nil, fmt.Errorf("sqlite descriptor is missing a file path")
		}
		return &Descriptor{Scheme: "sqlite", Driver: "sqlite3", DSN: path}, nil
	default:
		return nil, fmt.Errorf("unsupported database scheme: '%s'", scheme)
	}
}

/* mysqlDSN converts a mysql:// URL to the go-sql-driver DSN form */
func mysqlDSN(u *url.URL) string {
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	cred := ""
	if u.User != nil {
		cred = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			cred += ":" + pass
		}
		cred += "@"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	dsn := fmt.Sprintf("%stcp(%s:%s)/%s?parseTime=true", cred, host, port, dbName)
	if u.RawQuery != "" {
		dsn += "&" + u.RawQuery
	}
	return dsn
}

/* Executor runs read-only statements with timeout and row cap */
type Executor struct {
	timeout time.Duration
	maxRows int

	/* One lazily opened pool per descriptor */
	mu    sync.Mutex
	pools map[string]*sql.DB
}

func NewExecutor(timeout time.Duration, maxRows int) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Executor{
		timeout: timeout,
		maxRows: maxRows,
		pools:   make(map[string]*sql.DB),
	}
}

/* Execute runs a single read-only statement against the descriptor's
 * backend. All failures come back as a structured ExecutionResult; this
 * function never panics across the interface boundary. */
func (e *Executor) Execute(ctx context.Context, sqlText, connectionDescriptor string) ExecutionResult {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorWithContext(ctx, "Query executor recovered from panic", nil, map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
		}
	}()

	if err := CheckReadOnly(sqlText); err != nil {
		return failure(KindPolicyViolation, err.Error(), start)
	}

	desc, err := ParseDescriptor(connectionDescriptor)
	if err != nil {
		return failure(KindConnectionError, err.Error(), start)
	}

	pool, err := e.pool(desc)
	if err != nil {
		metrics.RecordExecutorQuery(desc.Scheme, "connection_error", time.Since(start))
		return failure(KindConnectionError, err.Error(), start)
	}

	/* The context deadline bounds wall-clock time. On expiry lib/pq and
	 * go-sql-driver/mysql issue a server-side cancel for the in-flight
	 * statement, so long-running queries are killed at the session
	 * level rather than abandoned. */
	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := pool.QueryContext(execCtx, sqlText)
	if err != nil {
		kind := classifyBackendError(desc.Scheme, execCtx, err)
		metrics.RecordExecutorQuery(desc.Scheme, string(kind), time.Since(start))
		return failure(kind, err.Error(), start)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		metrics.RecordExecutorQuery(desc.Scheme, "unknown", time.Since(start))
		return failure(KindUnknown, err.Error(), start)
	}

	result := ExecutionResult{
		Success: true,
		Columns: columns,
		Rows:    make([][]interface{}, 0, 64),
	}

	/* Fetch one row past the cap so truncation is detected without
	 * materializing the full result */
	for rows.Next() {
		if result.RowCount >= e.maxRows {
			result.Truncated = true
			break
		}

		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			metrics.RecordExecutorQuery(desc.Scheme, "unknown", time.Since(start))
			return failure(KindUnknown, fmt.Sprintf("row scan failed at row %d: %v", result.RowCount, err), start)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Rows = append(result.Rows, values)
		result.RowCount++
	}

	if err := rows.Err(); err != nil {
		kind := classifyBackendError(desc.Scheme, execCtx, err)
		metrics.RecordExecutorQuery(desc.Scheme, string(kind), time.Since(start))
		return failure(kind, err.Error(), start)
	}

	result.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000.0
	metrics.RecordExecutorQuery(desc.Scheme, "success", time.Since(start))
	return result
}

/* pool returns (or opens) the connection pool for a descriptor */
func (e *Executor) pool(desc *Descriptor) (*sql.DB, error) {
	key := desc.Driver + "|" + desc.DSN

	e.mu.Lock()
	defer e.mu.Unlock()

	if db, ok := e.pools[key]; ok {
		return db, nil
	}

	db, err := sql.Open(desc.Driver, desc.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", desc.Scheme, err)
	}

	/* Evaluation traffic is bursty but small; keep pools tight */
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	e.pools[key] = db
	return db, nil
}

/* Close releases all cached connection pools */
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for key, db := range e.pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.pools, key)
	}
	return firstErr
}

func failure(kind ErrorKind, message string, start time.Time) ExecutionResult {
	return ExecutionResult{
		Success:         false,
		ExecutionTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Error:           &ExecError{Kind: kind, Message: message},
	}
}
