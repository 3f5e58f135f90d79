// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/gravanois/clipgate/internal/models"
	"github.com/gravanois/clipgate/internal/validation"
)

func TestListClips(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedClip(store, "clip-1", models.ContractPerVideo)
	seedClip(store, "clip-2", models.ContractPerVideo)
	svc := newTestService(store, &fakeObjects{}, nil)

	result, err := svc.ListClips(context.Background(), &ListClipsRequest{VenueID: "v1"})
	if err != nil {
		t.Fatalf("ListClips() error = %v", err)
	}

	if result.Count != 2 {
		t.Errorf("count = %d, want 2", result.Count)
	}
	for _, item := range result.Items {
		if item.SignedURL != "" {
			t.Error("signed URL present without includeSignedUrl")
		}
	}
}

func TestListClipsEmptyVenue(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeStore(), &fakeObjects{}, nil)

	result, err := svc.ListClips(context.Background(), &ListClipsRequest{VenueID: "ghost"})
	if err != nil {
		t.Fatalf("ListClips() error = %v", err)
	}
	if result.Count != 0 || result.HasMore {
		t.Errorf("unknown venue should return an empty page, got count=%d has_more=%v", result.Count, result.HasMore)
	}
	if result.Items == nil {
		t.Error("items should be an empty slice, not nil")
	}
}

func TestListClipsValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeStore(), &fakeObjects{}, nil)

	tests := []struct {
		name string
		req  *ListClipsRequest
	}{
		{"missing venue", &ListClipsRequest{}},
		{"limit too large", &ListClipsRequest{VenueID: "v1", Limit: 500}},
		{"bad token", &ListClipsRequest{VenueID: "v1", PageToken: "bad-token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.ListClips(context.Background(), tt.req)
			var verr *validation.RequestValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error = %v, want RequestValidationError", err)
			}
		})
	}
}

func TestListClipsSignedURLs(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedClip(store, "clip-1", models.ContractPerVideo)
	gone := seedClip(store, "clip-2", models.ContractPerVideo)
	objects := &fakeObjects{unsignable: map[string]bool{gone.StoragePath: true}}
	svc := newTestService(store, objects, nil)

	result, err := svc.ListClips(context.Background(), &ListClipsRequest{
		VenueID:          "v1",
		IncludeSignedURL: true,
		TTL:              300,
	})
	if err != nil {
		t.Fatalf("ListClips() error = %v", err)
	}

	var signed, missing int
	for _, item := range result.Items {
		switch {
		case item.SignedURL != "":
			signed++
		case item.Missing:
			missing++
		}
	}
	if signed != 1 {
		t.Errorf("signed items = %d, want 1", signed)
	}
	if missing != 1 {
		t.Errorf("missing items = %d, want 1", missing)
	}
}

func TestListClipsBatchSigningFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedClip(store, "clip-1", models.ContractPerVideo)
	svc := newTestService(store, &fakeObjects{batchErr: errStorageDown}, nil)

	result, err := svc.ListClips(context.Background(), &ListClipsRequest{
		VenueID:          "v1",
		IncludeSignedURL: true,
	})
	if err != nil {
		t.Fatalf("batch signing failure must not fail the listing, got %v", err)
	}
	if !result.Items[0].Missing {
		t.Error("items should be marked missing when batch signing fails")
	}
}
