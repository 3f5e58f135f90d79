// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream holding all clip events.
const StreamName = "CLIPS"

// streamSubjects captures every clip lifecycle subject.
var streamSubjects = []string{"clips.>"}

// duplicateWindow bounds JetStream's Nats-Msg-Id deduplication. A confirm
// retried after this window can produce a duplicate event; consumers key on
// clip_id regardless.
const duplicateWindow = 2 * time.Minute

// JetStreamContext is the subset of jetstream.JetStream used by
// StreamInitializer. Narrowed for testing with mock implementations.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamInitializer ensures the CLIPS stream exists with the correct
// configuration before the publisher starts.
type StreamInitializer struct {
	js            JetStreamContext
	retentionDays int
}

// NewStreamInitializer creates a stream initializer.
func NewStreamInitializer(js JetStreamContext, retentionDays int) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &StreamInitializer{js: js, retentionDays: retentionDays}, nil
}

// EnsureStream creates or updates the stream. Idempotent.
func (s *StreamInitializer) EnsureStream(ctx context.Context) error {
	streamCfg := jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    streamSubjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      time.Duration(s.retentionDays) * 24 * time.Hour,
		Duplicates:  duplicateWindow,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	_, err := s.js.Stream(ctx, StreamName)
	if err == nil {
		if _, err := s.js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", StreamName, err)
		}
		return nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := s.js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", StreamName, err)
		}
		return nil
	}

	return fmt.Errorf("check stream %s: %w", StreamName, err)
}

// IsHealthy reports whether the stream exists and is reachable.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	_, err := s.js.Stream(ctx, StreamName)
	return err == nil
}
