/*-------------------------------------------------------------------------
 *
 * errors.go
 *    API error types and helpers
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/api/errors.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"
)

/* APIError is an HTTP-mapped error */
type APIError struct {
	Code      int
	Message   string
	Err       error
	RequestID string
}

func (e *APIError) Error() string {
	return e.Message
}

/* ErrorResponse is the JSON error body */
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

var (
	ErrNotFound     = NewError(http.StatusNotFound, "resource not found", nil)
	ErrBadRequest   = NewError(http.StatusBadRequest, "invalid request", nil)
)

/* NewError creates an API error */
func NewError(code int, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

/* WrapError attaches a request ID to an API error */
func WrapError(err *APIError, requestID string) *APIError {
	return &APIError{
		Code:      err.Code,
		Message:   err.Message,
		Err:       err.Err,
		RequestID: requestID,
	}
}
