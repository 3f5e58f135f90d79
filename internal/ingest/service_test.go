// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/database"
	"github.com/gravanois/clipgate/internal/events"
	"github.com/gravanois/clipgate/internal/models"
	"github.com/gravanois/clipgate/internal/storage"
	"github.com/gravanois/clipgate/internal/storagepath"
)

// fakeStore is an in-memory ClipStore.
type fakeStore struct {
	mu        sync.Mutex
	clips     map[string]*models.Clip
	clients   map[string]*models.Client
	contracts map[string]models.ContractType // key: clientID/venueID

	createErr error
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clips:     make(map[string]*models.Clip),
		clients:   make(map[string]*models.Client),
		contracts: make(map[string]models.ContractType),
	}
}

func (f *fakeStore) CreateClip(ctx context.Context, clip *models.Clip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.clips[clip.ClipID]; exists {
		return database.ErrDuplicateClip
	}
	cp := *clip
	f.clips[clip.ClipID] = &cp
	return nil
}

func (f *fakeStore) GetClipByID(ctx context.Context, clipID string) (*models.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clip, ok := f.clips[clipID]
	if !ok {
		return nil, database.ErrClipNotFound
	}
	cp := *clip
	return &cp, nil
}

func (f *fakeStore) DeleteClip(ctx context.Context, clipID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clips[clipID]; !ok {
		return database.ErrClipNotFound
	}
	delete(f.clips, clipID)
	f.deleted = append(f.deleted, clipID)
	return nil
}

func (f *fakeStore) FinalizeClip(ctx context.Context, clipID string, status models.ClipStatus, sha256 string, sizeBytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clip, ok := f.clips[clipID]
	if !ok {
		return database.ErrClipNotFound
	}
	if clip.Status != models.StatusQueued {
		return database.ErrClipAlreadyFinalized
	}
	clip.Status = status
	clip.SHA256 = &sha256
	clip.SizeBytes = &sizeBytes
	return nil
}

func (f *fakeStore) ListClipsByVenue(ctx context.Context, venueID string, limit int, pageToken string) (*database.ClipPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pageToken == "bad-token" {
		return nil, database.ErrInvalidPageToken
	}
	page := &database.ClipPage{}
	for _, clip := range f.clips {
		if clip.VenueID == venueID && len(page.Clips) < limit {
			page.Clips = append(page.Clips, *clip)
		}
	}
	return page, nil
}

func (f *fakeStore) GetClientByID(ctx context.Context, clientID string) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	client, ok := f.clients[clientID]
	if !ok {
		return nil, database.ErrClientNotFound
	}
	return client, nil
}

func (f *fakeStore) GetVenueContract(ctx context.Context, clientID, venueID string) (models.ContractType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ct, ok := f.contracts[clientID+"/"+venueID]
	if !ok {
		return "", database.ErrVenueNotFound
	}
	if ct == "" {
		return "", database.ErrVenueContractNotFound
	}
	return ct, nil
}

// fakeObjects is an ObjectStore with per-operation error injection.
type fakeObjects struct {
	signUploadErr   error
	signDownloadErr error
	statErr         error
	batchErr        error

	statResult *storage.ObjectStat
	unsignable map[string]bool
}

func (f *fakeObjects) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	if f.signUploadErr != nil {
		return "", f.signUploadErr
	}
	return fmt.Sprintf("https://storage.test/upload/%s/%s?token=t", bucket, path), nil
}

func (f *fakeObjects) CreateSignedURL(ctx context.Context, bucket, path string, expiresIn int) (string, error) {
	if f.signDownloadErr != nil {
		return "", f.signDownloadErr
	}
	return fmt.Sprintf("https://storage.test/read/%s/%s?token=t&exp=%d", bucket, path, expiresIn), nil
}

func (f *fakeObjects) CreateSignedURLs(ctx context.Context, bucket string, paths []string, expiresIn int) (map[string]string, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	urls := make(map[string]string, len(paths))
	for _, p := range paths {
		if f.unsignable[p] {
			continue
		}
		urls[p] = fmt.Sprintf("https://storage.test/read/%s/%s?token=t", bucket, p)
	}
	return urls, nil
}

func (f *fakeObjects) StatObject(ctx context.Context, signedURL string) (*storage.ObjectStat, error) {
	if f.statErr != nil {
		return nil, f.statErr
	}
	if f.statResult != nil {
		return f.statResult, nil
	}
	return &storage.ObjectStat{SizeBytes: 1024, ETag: "etag-1"}, nil
}

// fakePublisher captures published events on a channel so tests can wait for
// the async publish.
type fakePublisher struct {
	published chan *events.ClipEvent
	err       error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(chan *events.ClipEvent, 8)}
}

func (f *fakePublisher) PublishClipCreated(ctx context.Context, event *events.ClipEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published <- event
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Storage.UploadURLExpiryHours = 12
	cfg.Storage.VerifySignTTL = 60 * time.Second
	cfg.NATS.PublishTimeout = time.Second
	cfg.API.DefaultPageSize = 20
	cfg.API.MaxPageSize = 100
	cfg.API.ListSignedURLMinTTL = 60
	cfg.API.ListSignedURLMaxTTL = 3600
	return cfg
}

func newTestService(store *fakeStore, objects *fakeObjects, pub *fakePublisher) *Service {
	resolver := storagepath.New("main", "temp", time.UTC)
	var publisher EventPublisher
	if pub != nil {
		publisher = pub
	}
	return NewService(testConfig(), store, objects, publisher, resolver)
}

// seedVenue registers a client and venue contract in the fake store.
func seedVenue(store *fakeStore, clientID, venueID string, ct models.ContractType) {
	store.clients[clientID] = &models.Client{ID: clientID, LegalName: "Test Client"}
	store.contracts[clientID+"/"+venueID] = ct
}

// seedClip inserts a queued clip and returns it.
func seedClip(store *fakeStore, clipID string, ct models.ContractType) *models.Clip {
	bucket := "temp"
	path := fmt.Sprintf("temp/c1/v1/%s.mp4", clipID)
	if ct == models.ContractMonthly {
		bucket = "main"
		path = fmt.Sprintf("main/clients/c1/venues/v1/6/15/%s.mp4", clipID)
	}
	clip := &models.Clip{
		ClipID:       clipID,
		ClientID:     "c1",
		VenueID:      "v1",
		ContractType: ct,
		Bucket:       bucket,
		StoragePath:  path,
		CapturedAt:   time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
		Status:       models.StatusQueued,
	}
	store.clips[clipID] = clip
	return clip
}

var errStorageDown = errors.New("storage unavailable")
