/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Log context helpers for structured logging
 *
 * Provides helpers for consistent structured logging with request_id,
 * query_id, and agent_type fields across all components.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	queryIDKey   contextKey = "query_id"
	agentTypeKey contextKey = "agent_type"
)

/* WithRequestIDLogContext adds request ID to log context */
func WithRequestIDLogContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

/* WithQueryIDLogContext adds query ID to log context */
func WithQueryIDLogContext(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryIDKey, queryID)
}

/* WithAgentTypeLogContext adds agent type to log context */
func WithAgentTypeLogContext(ctx context.Context, agentType string) context.Context {
	return context.WithValue(ctx, agentTypeKey, agentType)
}

/* GetRequestIDFromContext gets request ID from context */
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

/* GetQueryIDFromContext gets query ID from context */
func GetQueryIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(queryIDKey).(string); ok {
		return id
	}
	return ""
}

/* GetAgentTypeFromContext gets agent type from context */
func GetAgentTypeFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(agentTypeKey).(string); ok {
		return t
	}
	return ""
}

/* LoggerFromContext creates a zerolog logger with fields from context */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	logger := log.Logger

	if requestID := GetRequestIDFromContext(ctx); requestID != "" {
		logger = logger.With().Str("request_id", requestID).Logger()
	}
	if queryID := GetQueryIDFromContext(ctx); queryID != "" {
		logger = logger.With().Str("query_id", queryID).Logger()
	}
	if agentType := GetAgentTypeFromContext(ctx); agentType != "" {
		logger = logger.With().Str("agent_type", agentType).Logger()
	}

	return logger
}

/* LogWithContext logs a message with context fields */
func LogWithContext(ctx context.Context, level zerolog.Level, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.WithLevel(level)

	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(message)
}

/* DebugWithContext logs a debug message with context */
func DebugWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.DebugLevel, message, fields)
}

/* InfoWithContext logs an info message with context */
func InfoWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.InfoLevel, message, fields)
}

/* WarnWithContext logs a warning message with context */
func WarnWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.WarnLevel, message, fields)
}

/* ErrorWithContext logs an error message with context */
func ErrorWithContext(ctx context.Context, message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogWithContext(ctx, zerolog.ErrorLevel, message, fields)
}
