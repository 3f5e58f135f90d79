// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

/*
service.go - Ingest service wiring

The Service owns the two-phase upload workflow:

	RegisterClip   metadata in, queued row + signed upload URL out
	ConfirmUpload  declared size/checksum in, verified terminal status out
	ListClips      venue-scoped page of clips, optionally with signed URLs

Dependencies are narrow interfaces so handlers and tests substitute fakes.
The registry row is the source of truth throughout; storage and NATS are
advisory collaborators.
*/
package ingest

import (
	"context"
	"time"

	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/database"
	"github.com/gravanois/clipgate/internal/events"
	"github.com/gravanois/clipgate/internal/models"
	"github.com/gravanois/clipgate/internal/storage"
	"github.com/gravanois/clipgate/internal/storagepath"
)

// ClipStore is the registry surface the ingest workflow needs.
// Implemented by *database.DB.
type ClipStore interface {
	CreateClip(ctx context.Context, clip *models.Clip) error
	GetClipByID(ctx context.Context, clipID string) (*models.Clip, error)
	DeleteClip(ctx context.Context, clipID string) error
	FinalizeClip(ctx context.Context, clipID string, status models.ClipStatus, sha256 string, sizeBytes int64) error
	ListClipsByVenue(ctx context.Context, venueID string, limit int, pageToken string) (*database.ClipPage, error)
	GetClientByID(ctx context.Context, clientID string) (*models.Client, error)
	GetVenueContract(ctx context.Context, clientID, venueID string) (models.ContractType, error)
}

// EventPublisher emits clip lifecycle events. Implemented by the NATS
// publisher and by the noop publisher when events are disabled.
type EventPublisher interface {
	PublishClipCreated(ctx context.Context, event *events.ClipEvent) error
}

// Service implements the ingest workflow.
type Service struct {
	store     ClipStore
	objects   storage.ObjectStore
	publisher EventPublisher
	resolver  *storagepath.Resolver

	expiresHintHours int
	verifySignTTL    time.Duration
	publishTimeout   time.Duration

	defaultPageSize int
	maxPageSize     int
	listTTLMin      int
	listTTLMax      int
}

// NewService builds the ingest service from configuration and collaborators.
func NewService(cfg *config.Config, store ClipStore, objects storage.ObjectStore, publisher EventPublisher, resolver *storagepath.Resolver) *Service {
	return &Service{
		store:            store,
		objects:          objects,
		publisher:        publisher,
		resolver:         resolver,
		expiresHintHours: cfg.Storage.UploadURLExpiryHours,
		verifySignTTL:    cfg.Storage.VerifySignTTL,
		publishTimeout:   cfg.NATS.PublishTimeout,
		defaultPageSize:  cfg.API.DefaultPageSize,
		maxPageSize:      cfg.API.MaxPageSize,
		listTTLMin:       cfg.API.ListSignedURLMinTTL,
		listTTLMax:       cfg.API.ListSignedURLMaxTTL,
	}
}
