// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// clips.go - Clip registry operations.
//
// The clips table is the single source of truth for clip lifecycle.
// Writes follow two rules:
//   - inserts are rejected on duplicate IDs, never merged
//   - the only UPDATE is the conditional finalize, guarded on status='queued'
package database

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/gravanois/clipgate/internal/models"
)

// CreateClip inserts a clip in the queued state. A duplicate clip ID maps
// to ErrDuplicateClip and leaves the existing row untouched.
func (db *DB) CreateClip(ctx context.Context, clip *models.Clip) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	var metaJSON interface{}
	if clip.Meta != nil {
		b, err := json.Marshal(clip.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal clip meta: %w", err)
		}
		metaJSON = string(b)
	}

	query := `
		INSERT INTO clips (
			clip_id, client_id, venue_id, contract_type,
			bucket, storage_path, captured_at, status,
			duration_sec, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := db.conn.ExecContext(ctx, query,
		clip.ClipID, clip.ClientID, clip.VenueID, clip.ContractType,
		clip.Bucket, clip.StoragePath, clip.CapturedAt, models.StatusQueued,
		clip.DurationSec, metaJSON,
	)
	db.recordQuery("insert", "clips", start, err)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateClip
		}
		return fmt.Errorf("failed to insert clip: %w", err)
	}

	return nil
}

const clipColumns = `
	clip_id, client_id, venue_id, contract_type,
	bucket, storage_path, captured_at, status,
	sha256, size_bytes, duration_sec, meta,
	created_at, updated_at
`

// GetClipByID retrieves a clip by its ID.
func (db *DB) GetClipByID(ctx context.Context, clipID string) (*models.Clip, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+clipColumns+` FROM clips WHERE clip_id = $1`, clipID)

	clip, err := scanClip(row)
	db.recordQuery("select", "clips", start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClipNotFound
		}
		return nil, fmt.Errorf("failed to query clip: %w", err)
	}
	return clip, nil
}

// FinalizeClip moves a queued clip to its terminal status and persists the
// verified sha256 and size. The UPDATE is conditional on status='queued';
// when zero rows change, the clip is either missing or already finalized.
func (db *DB) FinalizeClip(ctx context.Context, clipID string, status models.ClipStatus, sha256 string, sizeBytes int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if !status.Final() {
		return fmt.Errorf("cannot finalize to non-terminal status %q", status)
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE clips
		SET status = $1, sha256 = $2, size_bytes = $3, updated_at = CURRENT_TIMESTAMP
		WHERE clip_id = $4 AND status = $5
	`, status, sha256, sizeBytes, clipID, models.StatusQueued)
	db.recordQuery("update", "clips", start, err)
	if err != nil {
		return fmt.Errorf("failed to finalize clip: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already-finalized
		if _, err := db.GetClipByID(ctx, clipID); err != nil {
			return err
		}
		return ErrClipAlreadyFinalized
	}

	return nil
}

// DeleteClip removes a clip row. This exists only to compensate a failed
// registration (the queued insert is rolled back when the signed upload URL
// cannot be issued); verified clips are never deleted here.
func (db *DB) DeleteClip(ctx context.Context, clipID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM clips WHERE clip_id = $1`, clipID)
	db.recordQuery("delete", "clips", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete clip: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrClipNotFound
	}
	return nil
}

// ClipPage is one page of clips in venue listing order.
type ClipPage struct {
	Clips     []models.Clip
	HasMore   bool
	NextToken string
}

// ListClipsByVenue returns clips for a venue ordered by captured_at
// descending, using keyset pagination. An unknown venue yields an empty
// page, not an error.
func (db *DB) ListClipsByVenue(ctx context.Context, venueID string, limit int, pageToken string) (*ClipPage, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit < 1 {
		limit = 1
	}

	query := `SELECT ` + clipColumns + ` FROM clips WHERE venue_id = $1`
	args := []interface{}{venueID}

	if pageToken != "" {
		capturedAt, clipID, err := decodePageToken(pageToken)
		if err != nil {
			return nil, err
		}
		query += ` AND (captured_at, clip_id) < ($2, $3)`
		args = append(args, capturedAt, clipID)
	}

	// Fetch one extra row to detect whether another page exists
	query += fmt.Sprintf(` ORDER BY captured_at DESC, clip_id DESC LIMIT %d`, limit+1)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	db.recordQuery("select", "clips", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer closeWithLog(rows, "clip rows")

	clips := make([]models.Clip, 0, limit)
	for rows.Next() {
		clip, err := scanClipRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, *clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clips: %w", err)
	}

	page := &ClipPage{Clips: clips}
	if len(clips) > limit {
		page.Clips = clips[:limit]
		page.HasMore = true
		last := page.Clips[limit-1]
		page.NextToken = encodePageToken(last.CapturedAt, last.ClipID)
	}

	return page, nil
}

// encodePageToken builds an opaque keyset cursor from the last row of a page.
func encodePageToken(capturedAt time.Time, clipID string) string {
	raw := capturedAt.UTC().Format(time.RFC3339Nano) + "|" + clipID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodePageToken reverses encodePageToken. Any malformed token maps to
// ErrInvalidPageToken; the raw decode error carries no useful detail.
func decodePageToken(token string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", ErrInvalidPageToken
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", ErrInvalidPageToken
	}

	capturedAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", ErrInvalidPageToken
	}

	return capturedAt, parts[1], nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClip(row rowScanner) (*models.Clip, error) {
	var (
		clip     models.Clip
		sha256   sql.NullString
		sizeB    sql.NullInt64
		duration sql.NullInt32
		metaJSON sql.NullString
	)

	err := row.Scan(
		&clip.ClipID, &clip.ClientID, &clip.VenueID, &clip.ContractType,
		&clip.Bucket, &clip.StoragePath, &clip.CapturedAt, &clip.Status,
		&sha256, &sizeB, &duration, &metaJSON,
		&clip.CreatedAt, &clip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sha256.Valid {
		// CHAR(64) comes back space-padded from some drivers
		v := strings.TrimSpace(sha256.String)
		clip.SHA256 = &v
	}
	if sizeB.Valid {
		clip.SizeBytes = &sizeB.Int64
	}
	if duration.Valid {
		v := int(duration.Int32)
		clip.DurationSec = &v
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &clip.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal clip meta: %w", err)
		}
	}

	return &clip, nil
}

func scanClipRows(rows *sql.Rows) (*models.Clip, error) {
	return scanClip(rows)
}
