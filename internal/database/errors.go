// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package database

import (
	"errors"
	"io"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gravanois/clipgate/internal/logging"
)

// Sentinel errors returned by registry operations. Callers translate these
// into their own error taxonomy; nothing above this package inspects
// Postgres error codes.
var (
	// ErrClipNotFound means no clip row exists for the given ID.
	ErrClipNotFound = errors.New("clip not found")

	// ErrDuplicateClip means a clip with the same ID already exists.
	// The existing row is left untouched.
	ErrDuplicateClip = errors.New("clip already exists")

	// ErrClipAlreadyFinalized means the clip exists but left the queued
	// state earlier; lifecycle transitions are forward-only.
	ErrClipAlreadyFinalized = errors.New("clip already finalized")

	// ErrClientNotFound means no client row exists for the given ID.
	ErrClientNotFound = errors.New("client not found")

	// ErrVenueNotFound means no venue installation exists for the given
	// client and venue pair.
	ErrVenueNotFound = errors.New("venue installation not found")

	// ErrVenueContractNotFound means the venue exists but carries no
	// contract method. Such venues cannot ingest clips.
	ErrVenueContractNotFound = errors.New("venue has no contract method")

	// ErrInvalidPageToken means a pagination token could not be decoded.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// closeWithLog closes a resource and logs any error.
// Use this for cleanup operations where errors should be acknowledged but
// not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup operations in error paths where Close() errors are
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // cleanup is best-effort
	}
}
