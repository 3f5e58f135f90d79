// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
)

type mockJetStream struct {
	streamErr error
	createErr error
	updateErr error

	creates int
	updates int
	lastCfg jetstream.StreamConfig
}

func (m *mockJetStream) Stream(ctx context.Context, name string) (jetstream.Stream, error) {
	return nil, m.streamErr
}

func (m *mockJetStream) CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.creates++
	m.lastCfg = cfg
	return nil, m.createErr
}

func (m *mockJetStream) UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.updates++
	m.lastCfg = cfg
	return nil, m.updateErr
}

func TestNewStreamInitializer(t *testing.T) {
	t.Parallel()

	if _, err := NewStreamInitializer(nil, 7); err == nil {
		t.Error("nil JetStream context should be rejected")
	}

	si, err := NewStreamInitializer(&mockJetStream{}, 0)
	if err != nil {
		t.Fatalf("NewStreamInitializer() error = %v", err)
	}
	if si.retentionDays != 7 {
		t.Errorf("retentionDays = %d, want default 7", si.retentionDays)
	}
}

func TestEnsureStreamCreatesWhenMissing(t *testing.T) {
	t.Parallel()

	js := &mockJetStream{streamErr: jetstream.ErrStreamNotFound}
	si, _ := NewStreamInitializer(js, 14)

	if err := si.EnsureStream(context.Background()); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if js.creates != 1 || js.updates != 0 {
		t.Errorf("creates = %d, updates = %d, want 1/0", js.creates, js.updates)
	}
	if js.lastCfg.Name != StreamName {
		t.Errorf("stream name = %q, want %s", js.lastCfg.Name, StreamName)
	}
	if js.lastCfg.Duplicates != duplicateWindow {
		t.Errorf("duplicate window = %v, want %v", js.lastCfg.Duplicates, duplicateWindow)
	}
	if got := js.lastCfg.MaxAge.Hours(); got != 14*24 {
		t.Errorf("max age = %v hours, want 336", got)
	}
}

func TestEnsureStreamUpdatesExisting(t *testing.T) {
	t.Parallel()

	js := &mockJetStream{}
	si, _ := NewStreamInitializer(js, 7)

	if err := si.EnsureStream(context.Background()); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if js.creates != 0 || js.updates != 1 {
		t.Errorf("creates = %d, updates = %d, want 0/1", js.creates, js.updates)
	}
}

func TestEnsureStreamPropagatesErrors(t *testing.T) {
	t.Parallel()

	checkErr := errors.New("connection refused")
	js := &mockJetStream{streamErr: checkErr}
	si, _ := NewStreamInitializer(js, 7)

	if err := si.EnsureStream(context.Background()); !errors.Is(err, checkErr) {
		t.Errorf("EnsureStream() = %v, want wrapped check error", err)
	}

	js = &mockJetStream{streamErr: jetstream.ErrStreamNotFound, createErr: errors.New("denied")}
	si, _ = NewStreamInitializer(js, 7)
	if err := si.EnsureStream(context.Background()); err == nil {
		t.Error("EnsureStream() should fail when create fails")
	}
}

func TestIsHealthy(t *testing.T) {
	t.Parallel()

	si, _ := NewStreamInitializer(&mockJetStream{}, 7)
	if !si.IsHealthy(context.Background()) {
		t.Error("IsHealthy() = false for reachable stream")
	}

	si, _ = NewStreamInitializer(&mockJetStream{streamErr: jetstream.ErrStreamNotFound}, 7)
	if si.IsHealthy(context.Background()) {
		t.Error("IsHealthy() = true for missing stream")
	}
}
