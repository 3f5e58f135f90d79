// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package storagepath

import (
	"testing"
	"time"

	"github.com/gravanois/clipgate/internal/models"
)

func TestResolveMonthly(t *testing.T) {
	t.Parallel()

	r := New("main", "temp", time.UTC)
	capturedAt := time.Date(2026, time.March, 7, 14, 30, 0, 0, time.UTC)

	bucket, path := r.Resolve(models.ContractMonthly, "client-1", "venue-9", "clip-abc", capturedAt)

	if bucket != "main" {
		t.Errorf("bucket = %q, want main", bucket)
	}
	want := "main/clients/client-1/venues/venue-9/3/7/clip-abc.mp4"
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestResolvePerVideo(t *testing.T) {
	t.Parallel()

	r := New("main", "temp", time.UTC)

	bucket, path := r.Resolve(models.ContractPerVideo, "client-1", "venue-9", "clip-abc", time.Now())

	if bucket != "temp" {
		t.Errorf("bucket = %q, want temp", bucket)
	}
	want := "temp/client-1/venue-9/clip-abc.mp4"
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestResolveUnpaddedComponents(t *testing.T) {
	t.Parallel()

	r := New("main", "temp", time.UTC)
	capturedAt := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	_, path := r.Resolve(models.ContractMonthly, "c", "v", "x", capturedAt)

	want := "main/clients/c/venues/v/1/5/x.mp4"
	if path != want {
		t.Errorf("path = %q, want %q (components must be unpadded)", path, want)
	}
}

func TestResolveTimezoneBoundary(t *testing.T) {
	t.Parallel()

	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	r := New("main", "temp", sp)

	// 01:00 UTC on June 1st is still May 31st in Sao Paulo (UTC-3).
	capturedAt := time.Date(2026, time.June, 1, 1, 0, 0, 0, time.UTC)

	_, path := r.Resolve(models.ContractMonthly, "c", "v", "x", capturedAt)

	want := "main/clients/c/venues/v/5/31/x.mp4"
	if path != want {
		t.Errorf("path = %q, want %q (calendar taken in business timezone)", path, want)
	}
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	r := New("main", "temp", time.UTC)
	capturedAt := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)

	_, first := r.Resolve(models.ContractMonthly, "c", "v", "x", capturedAt)
	_, second := r.Resolve(models.ContractMonthly, "c", "v", "x", capturedAt)

	if first != second {
		t.Errorf("resolver not deterministic: %q vs %q", first, second)
	}
}

func TestResolveUnknownContractFallsBackToTemp(t *testing.T) {
	t.Parallel()

	r := New("main", "temp", time.UTC)

	bucket, path := r.Resolve(models.ContractType("mystery"), "c", "v", "x", time.Now())

	if bucket != "temp" {
		t.Errorf("bucket = %q, want temp", bucket)
	}
	if path != "temp/c/v/x.mp4" {
		t.Errorf("path = %q, want temp layout", path)
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	r := New("", "", nil)

	if r.MainBucket() != DefaultMainBucket {
		t.Errorf("MainBucket() = %q, want %q", r.MainBucket(), DefaultMainBucket)
	}
	if r.TempBucket() != DefaultTempBucket {
		t.Errorf("TempBucket() = %q, want %q", r.TempBucket(), DefaultTempBucket)
	}

	// nil location must not panic and falls back to UTC.
	_, path := r.Resolve(models.ContractMonthly, "c", "v", "x",
		time.Date(2026, time.February, 2, 12, 0, 0, 0, time.UTC))
	if path != "main/clients/c/venues/v/2/2/x.mp4" {
		t.Errorf("path = %q, want UTC calendar", path)
	}
}
