// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/gravanois/clipgate/internal/database"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/models"
	"github.com/gravanois/clipgate/internal/validation"
)

// ListClipsRequest describes a venue-scoped listing query.
type ListClipsRequest struct {
	VenueID   string `validate:"required"`
	Limit     int    `validate:"omitempty,min=1,max=100"`
	PageToken string

	// IncludeSignedURL asks for a signed download URL per clip. TTL is in
	// seconds and clamped to the configured bounds.
	IncludeSignedURL bool
	TTL              int
}

// ListedClip is one row of the listing response. SignedURL is present only
// when requested; Missing marks clips whose path could not be signed, which
// usually means the object was removed from storage out of band.
type ListedClip struct {
	models.Clip
	SignedURL string `json:"signed_url,omitempty"`
	Missing   bool   `json:"missing,omitempty"`
}

// ListClipsResult is one page of clips.
type ListClipsResult struct {
	Items     []ListedClip `json:"items"`
	Count     int          `json:"count"`
	HasMore   bool         `json:"has_more"`
	NextToken string       `json:"next_token,omitempty"`
}

// ListClips returns a page of a venue's clips, newest first. Signed URLs are
// minted in a single batch request per bucket.
func (s *Service) ListClips(ctx context.Context, req *ListClipsRequest) (*ListClipsResult, error) {
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	page, err := s.store.ListClipsByVenue(ctx, req.VenueID, limit, req.PageToken)
	if err != nil {
		if errors.Is(err, database.ErrInvalidPageToken) {
			return nil, validation.NewFieldError("token", "token is not a valid pagination token")
		}
		return nil, fmt.Errorf("clip listing failed: %w", err)
	}

	items := make([]ListedClip, len(page.Clips))
	for i, clip := range page.Clips {
		items[i] = ListedClip{Clip: clip}
	}

	if req.IncludeSignedURL {
		s.attachSignedURLs(ctx, items, req.TTL)
	}

	return &ListClipsResult{
		Items:     items,
		Count:     len(items),
		HasMore:   page.HasMore,
		NextToken: page.NextToken,
	}, nil
}

// attachSignedURLs batch-signs download URLs for the listed clips, one batch
// per bucket. Signing failures degrade to Missing markers, never to a failed
// listing.
func (s *Service) attachSignedURLs(ctx context.Context, items []ListedClip, ttl int) {
	if ttl < s.listTTLMin {
		ttl = s.listTTLMin
	}
	if ttl > s.listTTLMax {
		ttl = s.listTTLMax
	}

	pathsByBucket := make(map[string][]string)
	for _, item := range items {
		pathsByBucket[item.Bucket] = append(pathsByBucket[item.Bucket], item.StoragePath)
	}

	urlsByBucket := make(map[string]map[string]string, len(pathsByBucket))
	for bucket, paths := range pathsByBucket {
		urls, err := s.objects.CreateSignedURLs(ctx, bucket, paths, ttl)
		if err != nil {
			logging.CtxWarn(ctx).Err(err).
				Str("bucket", bucket).
				Int("paths", len(paths)).
				Msg("Batch signing failed, listing clips without URLs")
			urls = map[string]string{}
		}
		urlsByBucket[bucket] = urls
	}

	for i := range items {
		url, ok := urlsByBucket[items[i].Bucket][items[i].StoragePath]
		if !ok {
			items[i].Missing = true
			continue
		}
		items[i].SignedURL = url
	}
}
