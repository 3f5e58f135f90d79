// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/gravanois/clipgate/internal/ingest"
)

// maxBodySize bounds request bodies. Registration and confirmation bodies
// are small JSON documents; anything larger is a misbehaving client.
const maxBodySize = 1 << 20 // 1MB

// IngestService is the ingest surface the handlers call. Implemented by
// *ingest.Service; narrowed for handler tests.
type IngestService interface {
	RegisterClip(ctx context.Context, req *ingest.RegisterClipRequest) (*ingest.RegisterClipResult, error)
	ConfirmUpload(ctx context.Context, clipID string, req *ingest.ConfirmUploadRequest) (*ingest.ConfirmUploadResult, error)
	ListClips(ctx context.Context, req *ingest.ListClipsRequest) (*ingest.ListClipsResult, error)
}

// Handler holds the HTTP handlers for the clip endpoints.
type Handler struct {
	service IngestService
	health  *HealthState
}

// NewHandler creates the handler set.
func NewHandler(service IngestService, health *HealthState) *Handler {
	if health == nil {
		health = &HealthState{}
	}
	return &Handler{service: service, health: health}
}

// RegisterClip handles POST /api/videos/metadados/client/{clientId}/venue/{venueId}.
func (h *Handler) RegisterClip(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := &ingest.RegisterClipRequest{
		ClientID: chi.URLParam(r, "clientId"),
		VenueID:  chi.URLParam(r, "venueId"),
	}
	if !decodeBody(rw, r, req) {
		return
	}

	result, err := h.service.RegisterClip(r.Context(), req)
	if err != nil {
		rw.ServiceError(err)
		return
	}

	rw.Created(result)
}

// ConfirmUpload handles POST /api/videos/{videoId}/uploaded.
func (h *Handler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := &ingest.ConfirmUploadRequest{}
	if !decodeBody(rw, r, req) {
		return
	}

	result, err := h.service.ConfirmUpload(r.Context(), chi.URLParam(r, "videoId"), req)
	if err != nil {
		rw.ServiceError(err)
		return
	}

	rw.OK(result)
}

// ListClips handles GET /api/videos/list.
func (h *Handler) ListClips(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	req := &ingest.ListClipsRequest{
		VenueID:          q.Get("venueId"),
		PageToken:        q.Get("token"),
		IncludeSignedURL: q.Get("includeSignedUrl") == "true",
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if raw := q.Get("ttl"); raw != "" {
		ttl, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("ttl must be an integer number of seconds")
			return
		}
		req.TTL = ttl
	}

	result, err := h.service.ListClips(r.Context(), req)
	if err != nil {
		rw.ServiceError(err)
		return
	}

	rw.OK(result)
}

// decodeBody reads and decodes a JSON body into dst. Writes the error
// response and returns false when the body is unusable.
func decodeBody(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		rw.BadRequest("request body must be valid JSON")
		return false
	}
	return true
}
