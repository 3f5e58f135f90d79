// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package services

import (
	"context"
	"fmt"
	"time"
)

// EventStream matches the JetStream stream initializer's provisioning
// and health methods.
type EventStream interface {
	EnsureStream(ctx context.Context) error
	IsHealthy(ctx context.Context) bool
}

// EventStreamService supervises the clip event stream. It provisions the
// stream on start and then watches its health; when the stream becomes
// unreachable it returns an error so suture restarts the service, which
// re-runs provisioning once the connection recovers.
type EventStreamService struct {
	stream        EventStream
	checkInterval time.Duration
	name          string
}

// NewEventStreamService creates a supervised stream watchdog.
func NewEventStreamService(stream EventStream, checkInterval time.Duration) *EventStreamService {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	return &EventStreamService{
		stream:        stream,
		checkInterval: checkInterval,
		name:          "event-stream",
	}
}

// Serve implements suture.Service.
func (s *EventStreamService) Serve(ctx context.Context) error {
	if err := s.stream.EnsureStream(ctx); err != nil {
		return fmt.Errorf("stream provisioning failed: %w", err)
	}

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !s.stream.IsHealthy(ctx) {
				return fmt.Errorf("event stream unhealthy")
			}
		}
	}
}

// String implements fmt.Stringer; suture uses it in restart logs.
func (s *EventStreamService) String() string {
	return s.name
}
