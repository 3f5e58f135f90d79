// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// Package api provides the HTTP surface of the ingest service.
//
// Wire format: success payloads are written at the top level, failures as
// {"error": message, "code": CODE, "details": {...}, "request_id": id}.
// Capture boxes in the field parse these shapes; they are frozen.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/gravanois/clipgate/internal/ingest"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/validation"
)

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodePreconditionFailed = "PRECONDITION_FAILED"
	ErrCodeIntegrityError     = "INTEGRITY_ERROR"
	ErrCodeUpstreamError      = "UPSTREAM_ERROR"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// errorBody is the frozen failure shape.
type errorBody struct {
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ResponseWriter writes responses in the service's wire format.
type ResponseWriter struct {
	w http.ResponseWriter
	r *http.Request
}

// NewResponseWriter creates a response writer bound to one request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r}
}

// OK writes a 200 with the payload at the top level.
func (rw *ResponseWriter) OK(payload interface{}) {
	rw.writeJSON(http.StatusOK, payload)
}

// Created writes a 201 with the payload at the top level.
func (rw *ResponseWriter) Created(payload interface{}) {
	rw.writeJSON(http.StatusCreated, payload)
}

// Error writes an error response with the given status and code.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	rw.ErrorWithDetails(statusCode, code, message, nil)
}

// ErrorWithDetails writes an error response with additional details.
func (rw *ResponseWriter) ErrorWithDetails(statusCode int, code, message string, details interface{}) {
	rw.writeJSON(statusCode, errorBody{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: logging.RequestIDFromContext(rw.r.Context()),
	})
}

// BadRequest writes a 400 Bad Request error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound writes a 404 Not Found error.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError writes a 500 Internal Server Error.
func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceError maps the ingest error taxonomy to HTTP statuses.
//
// Signing failure during registration is a 500 (the registration as a whole
// failed and was rolled back); storage trouble during verification is a 502
// (the clip is fine, the backend was unreachable).
func (rw *ResponseWriter) ServiceError(err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	var nfe *ingest.NotFoundError
	if errors.As(err, &nfe) {
		rw.ErrorWithDetails(http.StatusNotFound, ErrCodeNotFound, nfe.Error(), map[string]interface{}{
			"kind": nfe.Kind,
		})
		return
	}

	var ce *ingest.ConflictError
	if errors.As(err, &ce) {
		rw.Error(http.StatusConflict, ErrCodeConflict, ce.Error())
		return
	}

	var pe *ingest.PreconditionError
	if errors.As(err, &pe) {
		rw.Error(http.StatusUnprocessableEntity, ErrCodePreconditionFailed, pe.Error())
		return
	}

	var ie *ingest.IntegrityError
	if errors.As(err, &ie) {
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeIntegrityError, ie.Error(), map[string]interface{}{
			"reason":   ie.Reason,
			"expected": ie.Expected,
			"got":      ie.Got,
		})
		return
	}

	var ue *ingest.UpstreamError
	if errors.As(err, &ue) {
		logging.CtxError(rw.r.Context()).Err(err).Str("op", ue.Op).Msg("Storage backend failure")
		status := http.StatusBadGateway
		if ue.Op == "sign_upload" {
			status = http.StatusInternalServerError
		}
		rw.Error(status, ErrCodeUpstreamError, "storage backend unavailable")
		return
	}

	logging.CtxError(rw.r.Context()).Err(err).Msg("Unhandled service error")
	rw.InternalError("An internal error occurred")
}

// writeJSON writes a JSON response with proper headers.
func (rw *ResponseWriter) writeJSON(statusCode int, data interface{}) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
