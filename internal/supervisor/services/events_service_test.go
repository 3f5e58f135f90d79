// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockStream struct {
	ensureErr error
	healthy   atomic.Bool
	ensures   atomic.Int32
}

func (m *mockStream) EnsureStream(ctx context.Context) error {
	m.ensures.Add(1)
	return m.ensureErr
}

func (m *mockStream) IsHealthy(ctx context.Context) bool {
	return m.healthy.Load()
}

func TestEventStreamServiceProvisionFailure(t *testing.T) {
	t.Parallel()

	stream := &mockStream{ensureErr: errors.New("no jetstream")}
	svc := NewEventStreamService(stream, time.Minute)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, stream.ensureErr) {
		t.Errorf("Serve() = %v, want wrapped provision error", err)
	}
}

func TestEventStreamServiceStopsOnCancel(t *testing.T) {
	t.Parallel()

	stream := &mockStream{}
	stream.healthy.Store(true)
	svc := NewEventStreamService(stream, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Let a few health checks pass before canceling.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if got := stream.ensures.Load(); got != 1 {
		t.Errorf("EnsureStream calls = %d, want 1", got)
	}
}

func TestEventStreamServiceFailsWhenUnhealthy(t *testing.T) {
	t.Parallel()

	stream := &mockStream{}
	svc := NewEventStreamService(stream, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Serve() = nil, want unhealthy error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return on unhealthy stream")
	}
}

func TestEventStreamServiceDefaults(t *testing.T) {
	t.Parallel()

	svc := NewEventStreamService(&mockStream{}, 0)
	if svc.checkInterval != 30*time.Second {
		t.Errorf("checkInterval = %v, want 30s", svc.checkInterval)
	}
	if svc.String() != "event-stream" {
		t.Errorf("String() = %q, want event-stream", svc.String())
	}
}
