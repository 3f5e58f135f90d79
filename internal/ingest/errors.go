// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// errors.go - Typed failure modes of the ingest workflow.
//
// Handlers map these to HTTP statuses; the service never retries and never
// wraps one typed error inside another.
package ingest

import "fmt"

// NotFoundError reports a missing referenced entity. Kind names what was
// missing: "client", "venue_or_contract", or "clip".
type NotFoundError struct {
	Kind string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Kind)
}

// ConflictError reports a state collision: a duplicate clip ID at
// registration, or a confirm against an already-finalized clip.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// PreconditionError reports a clip row that is not in a confirmable shape.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// IntegrityError reports a mismatch between what the capture box declared
// and what is actually in storage. Reason is "size_mismatch" or
// "etag_mismatch"; Expected and Got carry both sides for the response body.
type IntegrityError struct {
	Reason   string
	Expected string
	Got      string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("upload verification failed: %s (expected %s, got %s)", e.Reason, e.Expected, e.Got)
}

// UpstreamError reports a storage backend failure. Op names the operation
// that failed ("sign_upload", "sign_download", "stat").
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
