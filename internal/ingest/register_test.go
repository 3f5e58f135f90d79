// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gravanois/clipgate/internal/models"
	"github.com/gravanois/clipgate/internal/validation"
)

func validRegisterRequest() *RegisterClipRequest {
	return &RegisterClipRequest{
		ClientID:   "c1",
		VenueID:    "v1",
		CapturedAt: "2025-08-14T12:00:00Z",
		SHA256:     strings.Repeat("a", 64),
	}
}

func TestRegisterClipPerVideo(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedVenue(store, "c1", "v1", models.ContractPerVideo)
	svc := newTestService(store, &fakeObjects{}, nil)

	result, err := svc.RegisterClip(context.Background(), validRegisterRequest())
	if err != nil {
		t.Fatalf("RegisterClip() error = %v", err)
	}

	if result.ClipID == "" {
		t.Error("expected generated clip_id")
	}
	if result.ContractType != models.ContractPerVideo {
		t.Errorf("contract_type = %q, want per_video", result.ContractType)
	}
	wantPath := "temp/c1/v1/" + result.ClipID + ".mp4"
	if result.StoragePath != wantPath {
		t.Errorf("storage_path = %q, want %q", result.StoragePath, wantPath)
	}
	if result.ExpiresHintHours != 12 {
		t.Errorf("expires_hint_hours = %d, want 12", result.ExpiresHintHours)
	}
	if result.UploadURL == "" {
		t.Error("expected signed upload URL")
	}

	clip, ok := store.clips[result.ClipID]
	if !ok {
		t.Fatal("clip row was not inserted")
	}
	if clip.Status != models.StatusQueued {
		t.Errorf("status = %q, want queued", clip.Status)
	}
	if clip.SHA256 != nil {
		t.Error("sha256 must stay unset until verification")
	}
	if clip.Bucket != "temp" {
		t.Errorf("bucket = %q, want temp", clip.Bucket)
	}
}

func TestRegisterClipMonthlyPath(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedVenue(store, "c1", "v1", models.ContractMonthly)
	svc := newTestService(store, &fakeObjects{}, nil)

	req := validRegisterRequest()
	req.CapturedAt = "2026-01-05T10:00:00Z"

	result, err := svc.RegisterClip(context.Background(), req)
	if err != nil {
		t.Fatalf("RegisterClip() error = %v", err)
	}

	wantPath := "main/clients/c1/venues/v1/1/5/" + result.ClipID + ".mp4"
	if result.StoragePath != wantPath {
		t.Errorf("storage_path = %q, want %q", result.StoragePath, wantPath)
	}
	if store.clips[result.ClipID].Bucket != "main" {
		t.Errorf("bucket = %q, want main", store.clips[result.ClipID].Bucket)
	}
}

func TestRegisterClipValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*RegisterClipRequest)
	}{
		{"missing captured_at", func(r *RegisterClipRequest) { r.CapturedAt = "" }},
		{"garbage captured_at", func(r *RegisterClipRequest) { r.CapturedAt = "yesterday at noon" }},
		{"missing sha256", func(r *RegisterClipRequest) { r.SHA256 = "" }},
		{"short sha256", func(r *RegisterClipRequest) { r.SHA256 = "abc123" }},
		{"non-hex sha256", func(r *RegisterClipRequest) { r.SHA256 = strings.Repeat("z", 64) }},
		{"negative duration", func(r *RegisterClipRequest) { d := -1; r.DurationSec = &d }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			seedVenue(store, "c1", "v1", models.ContractPerVideo)
			svc := newTestService(store, &fakeObjects{}, nil)

			req := validRegisterRequest()
			tt.mutate(req)

			_, err := svc.RegisterClip(context.Background(), req)
			var verr *validation.RequestValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error = %v, want RequestValidationError", err)
			}
			if len(store.clips) != 0 {
				t.Error("invalid request must not insert a row")
			}
		})
	}
}

func TestRegisterClipUnknownClient(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeStore(), &fakeObjects{}, nil)

	_, err := svc.RegisterClip(context.Background(), validRegisterRequest())
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if nfe.Kind != "client" {
		t.Errorf("kind = %q, want client", nfe.Kind)
	}
}

func TestRegisterClipVenueWithoutContract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		seed func(*fakeStore)
	}{
		{
			name: "venue missing entirely",
			seed: func(s *fakeStore) {
				s.clients["c1"] = &models.Client{ID: "c1"}
			},
		},
		{
			name: "venue present, contract null",
			seed: func(s *fakeStore) {
				s.clients["c1"] = &models.Client{ID: "c1"}
				s.contracts["c1/v1"] = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			tt.seed(store)
			svc := newTestService(store, &fakeObjects{}, nil)

			_, err := svc.RegisterClip(context.Background(), validRegisterRequest())
			var nfe *NotFoundError
			if !errors.As(err, &nfe) {
				t.Fatalf("error = %v, want NotFoundError", err)
			}
			if nfe.Kind != "venue_or_contract" {
				t.Errorf("kind = %q, want venue_or_contract", nfe.Kind)
			}
		})
	}
}

func TestRegisterClipCompensatesOnSigningFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedVenue(store, "c1", "v1", models.ContractPerVideo)
	svc := newTestService(store, &fakeObjects{signUploadErr: errStorageDown}, nil)

	_, err := svc.RegisterClip(context.Background(), validRegisterRequest())
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if ue.Op != "sign_upload" {
		t.Errorf("op = %q, want sign_upload", ue.Op)
	}
	if !errors.Is(err, errStorageDown) {
		t.Error("UpstreamError should wrap the storage error")
	}

	if len(store.clips) != 0 {
		t.Error("queued row must be deleted when signing fails")
	}
	if len(store.deleted) != 1 {
		t.Errorf("got %d compensating deletes, want 1", len(store.deleted))
	}
}
