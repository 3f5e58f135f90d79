// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/gravanois/clipgate/internal/models"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to ClipEvent.
const SchemaVersion = 1

// TopicPrefix is the subject prefix for clip lifecycle events. The full
// subject is TopicPrefix plus the contract type, so downstream billing and
// purchase flows can subscribe per contract.
const TopicPrefix = "clips.created."

// EventClipCreated is the event name carried in every payload so consumers
// on a shared subject can dispatch without parsing the subject itself.
const EventClipCreated = "clip.created"

// ClipEvent announces a verified clip. It is published after the registry
// row reaches a terminal status; consumers must tolerate missing events
// because publication is best-effort.
type ClipEvent struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	// Event is always EventClipCreated for now; kept explicit so future
	// lifecycle events share the envelope.
	Event string `json:"event"`

	// ClipID doubles as the Nats-Msg-Id for JetStream deduplication.
	ClipID   string `json:"clip_id"`
	ClientID string `json:"client_id"`
	VenueID  string `json:"venue_id"`

	ContractType models.ContractType `json:"contract_type"`
	Status       models.ClipStatus   `json:"status"`

	Bucket      string `json:"bucket"`
	StoragePath string `json:"storage_path"`

	CapturedAt  time.Time              `json:"captured_at"`
	SizeBytes   int64                  `json:"size_bytes"`
	SHA256      string                 `json:"sha256,omitempty"`
	DurationSec *int                   `json:"duration_sec,omitempty"`
	Meta        map[string]interface{} `json:"meta,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewClipEvent builds an event for a finalized clip.
func NewClipEvent(clip *models.Clip) *ClipEvent {
	ev := &ClipEvent{
		SchemaVersion: SchemaVersion,
		Event:         EventClipCreated,
		ClipID:        clip.ClipID,
		ClientID:      clip.ClientID,
		VenueID:       clip.VenueID,
		ContractType:  clip.ContractType,
		Status:        clip.Status,
		Bucket:        clip.Bucket,
		StoragePath:   clip.StoragePath,
		CapturedAt:    clip.CapturedAt,
		DurationSec:   clip.DurationSec,
		Meta:          clip.Meta,
		OccurredAt:    time.Now().UTC(),
	}
	if clip.SizeBytes != nil {
		ev.SizeBytes = *clip.SizeBytes
	}
	if clip.SHA256 != nil {
		ev.SHA256 = *clip.SHA256
	}
	return ev
}

// Topic returns the JetStream subject for this event.
func (e *ClipEvent) Topic() string {
	return TopicPrefix + string(e.ContractType)
}

// Validate checks required fields before publication.
func (e *ClipEvent) Validate() error {
	if e.ClipID == "" {
		return fmt.Errorf("clip event missing clip_id")
	}
	if e.ClientID == "" || e.VenueID == "" {
		return fmt.Errorf("clip event %s missing client or venue", e.ClipID)
	}
	if !e.ContractType.Valid() {
		return fmt.Errorf("clip event %s has invalid contract type %q", e.ClipID, e.ContractType)
	}
	if !e.Status.Final() {
		return fmt.Errorf("clip event %s has non-terminal status %q", e.ClipID, e.Status)
	}
	if e.StoragePath == "" || e.Bucket == "" {
		return fmt.Errorf("clip event %s missing storage location", e.ClipID)
	}
	return nil
}

// SerializeEvent validates and marshals an event to JSON.
func SerializeEvent(event *ClipEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DeserializeEvent unmarshals JSON to an event.
func DeserializeEvent(data []byte) (*ClipEvent, error) {
	var event ClipEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.SchemaVersion == 0 {
		event.SchemaVersion = SchemaVersion
	}
	return &event, nil
}
