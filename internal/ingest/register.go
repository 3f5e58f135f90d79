// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gravanois/clipgate/internal/database"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/metrics"
	"github.com/gravanois/clipgate/internal/models"
	"github.com/gravanois/clipgate/internal/validation"
)

// RegisterClipRequest is the decoded registration body plus the client and
// venue identifiers from the URL path.
type RegisterClipRequest struct {
	ClientID string `json:"-" validate:"required"`
	VenueID  string `json:"-" validate:"required"`

	// CapturedAt is the capture timestamp as sent by the box, RFC3339.
	CapturedAt string `json:"captured_at" validate:"required"`

	// SHA256 is the declared content digest. It is validated for shape at
	// registration and persisted only once verification confirms it.
	SHA256 string `json:"sha256" validate:"required,sha256"`

	DurationSec *int `json:"duration_sec,omitempty" validate:"omitempty,min=0"`

	// Meta holds optional capture details such as codec, fps, width and
	// height. Values are mixed string and numeric, so it stays untyped all
	// the way to the JSONB column.
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// RegisterClipResult is returned to the capture box. ExpiresHintHours is
// advisory; the signed URL carries its own authoritative expiry.
type RegisterClipResult struct {
	ClipID           string              `json:"clip_id"`
	ContractType     models.ContractType `json:"contract_type"`
	StoragePath      string              `json:"storage_path"`
	UploadURL        string              `json:"upload_url"`
	ExpiresHintHours int                 `json:"expires_hint_hours"`
}

// RegisterClip creates a queued registry row and issues a signed upload URL.
//
// The insert and the URL issuance form one logical transaction: when signing
// fails the queued row is deleted again, so a failed registration leaves no
// trace and the box simply retries.
func (s *Service) RegisterClip(ctx context.Context, req *RegisterClipRequest) (*RegisterClipResult, error) {
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}
	capturedAt, err := time.Parse(time.RFC3339, req.CapturedAt)
	if err != nil {
		return nil, validation.NewFieldError("captured_at", "captured_at must be a valid RFC3339 timestamp")
	}

	if _, err := s.store.GetClientByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, database.ErrClientNotFound) {
			return nil, &NotFoundError{Kind: "client"}
		}
		return nil, fmt.Errorf("client lookup failed: %w", err)
	}

	// A venue without a contract method cannot ingest; both the missing
	// venue and the missing contract surface as the same escalation case.
	contractType, err := s.store.GetVenueContract(ctx, req.ClientID, req.VenueID)
	if err != nil {
		if errors.Is(err, database.ErrVenueNotFound) || errors.Is(err, database.ErrVenueContractNotFound) {
			return nil, &NotFoundError{Kind: "venue_or_contract"}
		}
		return nil, fmt.Errorf("venue contract lookup failed: %w", err)
	}

	clipID := uuid.New().String()
	bucket, storagePath := s.resolver.Resolve(contractType, req.ClientID, req.VenueID, clipID, capturedAt)

	clip := &models.Clip{
		ClipID:       clipID,
		ClientID:     req.ClientID,
		VenueID:      req.VenueID,
		ContractType: contractType,
		Bucket:       bucket,
		StoragePath:  storagePath,
		CapturedAt:   capturedAt,
		Status:       models.StatusQueued,
		DurationSec:  req.DurationSec,
		Meta:         req.Meta,
	}
	if err := s.store.CreateClip(ctx, clip); err != nil {
		if errors.Is(err, database.ErrDuplicateClip) {
			return nil, &ConflictError{Message: fmt.Sprintf("clip %s already exists", clipID)}
		}
		return nil, fmt.Errorf("clip insert failed: %w", err)
	}

	uploadURL, err := s.objects.CreateSignedUploadURL(ctx, bucket, storagePath)
	if err != nil {
		s.compensateRegistration(ctx, clipID)
		return nil, &UpstreamError{Op: "sign_upload", Err: err}
	}

	metrics.RecordClipRegistered(string(contractType))
	logging.CtxInfo(ctx).
		Str("clip_id", clipID).
		Str("venue_id", req.VenueID).
		Str("contract_type", string(contractType)).
		Str("storage_path", storagePath).
		Msg("Clip registered")

	return &RegisterClipResult{
		ClipID:           clipID,
		ContractType:     contractType,
		StoragePath:      storagePath,
		UploadURL:        uploadURL,
		ExpiresHintHours: s.expiresHintHours,
	}, nil
}

// compensateRegistration rolls back the queued row after signing failed.
// A failed delete leaves an orphaned queued row; it is logged loudly because
// cleanup then needs an operator.
func (s *Service) compensateRegistration(ctx context.Context, clipID string) {
	metrics.ClipRegistrationCompensations.Inc()
	if err := s.store.DeleteClip(ctx, clipID); err != nil {
		logging.CtxError(ctx).Err(err).
			Str("clip_id", clipID).
			Msg("Failed to delete queued clip after signing failure, row is orphaned")
		return
	}
	logging.CtxWarn(ctx).
		Str("clip_id", clipID).
		Msg("Deleted queued clip after signed upload URL issuance failed")
}
