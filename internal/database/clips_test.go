// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package database

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/gravanois/clipgate/internal/models"
)

func TestPageTokenRoundTrip(t *testing.T) {
	t.Parallel()

	capturedAt := time.Date(2026, 6, 15, 21, 30, 45, 123456789, time.UTC)
	clipID := "b7e23ec2-9f1a-4c3d-8e5f-1a2b3c4d5e6f"

	token := encodePageToken(capturedAt, clipID)
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	gotTime, gotID, err := decodePageToken(token)
	if err != nil {
		t.Fatalf("decodePageToken() error = %v", err)
	}
	if !gotTime.Equal(capturedAt) {
		t.Errorf("captured_at = %v, want %v", gotTime, capturedAt)
	}
	if gotID != clipID {
		t.Errorf("clip_id = %q, want %q", gotID, clipID)
	}
}

func TestPageTokenNormalizesToUTC(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	local := time.Date(2026, 6, 15, 18, 30, 0, 0, loc)
	token := encodePageToken(local, "clip-1")

	gotTime, _, err := decodePageToken(token)
	if err != nil {
		t.Fatalf("decodePageToken() error = %v", err)
	}
	if !gotTime.Equal(local) {
		t.Errorf("decoded time %v does not equal original %v", gotTime, local)
	}
}

func TestDecodePageTokenInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "not base64",
			token: "!!not-base64!!",
		},
		{
			name:  "no separator",
			token: base64.RawURLEncoding.EncodeToString([]byte("2026-06-15T21:30:45Z")),
		},
		{
			name:  "empty clip id",
			token: base64.RawURLEncoding.EncodeToString([]byte("2026-06-15T21:30:45Z|")),
		},
		{
			name:  "bad timestamp",
			token: base64.RawURLEncoding.EncodeToString([]byte("yesterday|clip-1")),
		},
		{
			name:  "empty token after decode",
			token: base64.RawURLEncoding.EncodeToString([]byte("")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := decodePageToken(tt.token)
			if !errors.Is(err, ErrInvalidPageToken) {
				t.Errorf("decodePageToken(%q) error = %v, want ErrInvalidPageToken", tt.token, err)
			}
		})
	}
}

func TestFinalizeClipRejectsNonTerminalStatus(t *testing.T) {
	t.Parallel()

	db := &DB{}
	err := db.FinalizeClip(context.Background(), "clip-1", models.StatusQueued, "", 0)
	if err == nil {
		t.Fatal("expected error finalizing to queued status")
	}
}
