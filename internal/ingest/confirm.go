// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gravanois/clipgate/internal/database"
	"github.com/gravanois/clipgate/internal/events"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/metrics"
	"github.com/gravanois/clipgate/internal/models"
	"github.com/gravanois/clipgate/internal/storage"
	"github.com/gravanois/clipgate/internal/validation"
)

// ConfirmUploadRequest is the declared outcome of the upload. SizeBytes is a
// pointer so a missing field is distinguishable from an explicit zero.
type ConfirmUploadRequest struct {
	SizeBytes *int64 `json:"size_bytes" validate:"required,min=0"`
	SHA256    string `json:"sha256" validate:"required,sha256"`
	ETag      string `json:"etag,omitempty"`
}

// ConfirmUploadResult reports the terminal state of a verified clip.
type ConfirmUploadResult struct {
	ClipID       string              `json:"clip_id"`
	ContractType models.ContractType `json:"contract_type"`
	StoragePath  string              `json:"storage_path"`
	Status       models.ClipStatus   `json:"status"`
}

// ConfirmUpload verifies that the object a capture box claims to have
// uploaded actually exists in storage with the declared size, then moves the
// clip to its terminal status.
//
// Verification is metadata-only: a short-lived signed read URL plus a HEAD
// request. The object body is never transferred. Size is the authoritative
// check; the ETag is compared only when the box supplied one and storage
// reports one.
func (s *Service) ConfirmUpload(ctx context.Context, clipID string, req *ConfirmUploadRequest) (*ConfirmUploadResult, error) {
	if clipID == "" {
		return nil, validation.NewFieldError("clip_id", "clip_id is required")
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	clip, err := s.store.GetClipByID(ctx, clipID)
	if err != nil {
		if errors.Is(err, database.ErrClipNotFound) {
			return nil, &NotFoundError{Kind: "clip"}
		}
		return nil, fmt.Errorf("clip lookup failed: %w", err)
	}

	if clip.Status.Final() {
		return nil, &ConflictError{Message: fmt.Sprintf("clip %s is already %s", clipID, clip.Status)}
	}
	if clip.StoragePath == "" || clip.Bucket == "" {
		return nil, &PreconditionError{Message: fmt.Sprintf("clip %s has no storage location", clipID)}
	}

	stat, err := s.statUploadedObject(ctx, clip)
	if err != nil {
		return nil, err
	}

	if stat.SizeBytes != *req.SizeBytes {
		metrics.RecordVerificationFailure("size_mismatch")
		return nil, &IntegrityError{
			Reason:   "size_mismatch",
			Expected: strconv.FormatInt(*req.SizeBytes, 10),
			Got:      strconv.FormatInt(stat.SizeBytes, 10),
		}
	}

	if req.ETag != "" && stat.ETag != "" {
		declared := strings.Trim(req.ETag, `"`)
		if declared != stat.ETag {
			metrics.RecordVerificationFailure("etag_mismatch")
			return nil, &IntegrityError{
				Reason:   "etag_mismatch",
				Expected: declared,
				Got:      stat.ETag,
			}
		}
	}

	status := models.FinalStatus(clip.ContractType)
	if err := s.store.FinalizeClip(ctx, clipID, status, req.SHA256, *req.SizeBytes); err != nil {
		switch {
		case errors.Is(err, database.ErrClipAlreadyFinalized):
			return nil, &ConflictError{Message: fmt.Sprintf("clip %s is already finalized", clipID)}
		case errors.Is(err, database.ErrClipNotFound):
			return nil, &NotFoundError{Kind: "clip"}
		default:
			return nil, fmt.Errorf("clip finalize failed: %w", err)
		}
	}

	metrics.RecordClipVerified(string(status))
	logging.CtxInfo(ctx).
		Str("clip_id", clipID).
		Str("status", string(status)).
		Int64("size_bytes", *req.SizeBytes).
		Msg("Clip upload verified")

	clip.Status = status
	clip.SHA256 = &req.SHA256
	clip.SizeBytes = req.SizeBytes
	s.publishClipCreated(clip)

	return &ConfirmUploadResult{
		ClipID:       clipID,
		ContractType: clip.ContractType,
		StoragePath:  clip.StoragePath,
		Status:       status,
	}, nil
}

// statUploadedObject mints a short-lived signed read URL and HEADs it. Any
// failure here is an upstream problem, not an integrity verdict: the object
// may exist even when storage cannot be asked about it.
func (s *Service) statUploadedObject(ctx context.Context, clip *models.Clip) (*storage.ObjectStat, error) {
	ttl := int(s.verifySignTTL.Seconds())
	if ttl <= 0 {
		ttl = 60
	}

	signedURL, err := s.objects.CreateSignedURL(ctx, clip.Bucket, clip.StoragePath, ttl)
	if err != nil {
		metrics.RecordVerificationFailure("sign_failed")
		return nil, &UpstreamError{Op: "sign_download", Err: err}
	}

	stat, err := s.objects.StatObject(ctx, signedURL)
	if err != nil {
		metrics.RecordVerificationFailure("stat_failed")
		return nil, &UpstreamError{Op: "stat", Err: err}
	}

	return stat, nil
}

// publishClipCreated fires the clip.created event in the background. The
// request context may be gone by the time NATS acks, so the publish gets its
// own timeout. Failures are logged and dropped.
func (s *Service) publishClipCreated(clip *models.Clip) {
	if s.publisher == nil {
		return
	}

	event := events.NewClipEvent(clip)
	timeout := s.publishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.publisher.PublishClipCreated(ctx, event); err != nil {
			logging.Warn().Err(err).
				Str("clip_id", event.ClipID).
				Msg("Failed to publish clip event, registry remains authoritative")
		}
	}()
}
