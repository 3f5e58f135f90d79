// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthState carries the probes the health endpoints report on. Zero-value
// fields degrade to "not configured" rather than failing.
type HealthState struct {
	// ReadyCheck gates readiness, typically a database ping.
	ReadyCheck func(ctx context.Context) error

	// StorageState reports the storage circuit breaker state.
	StorageState func() string

	// EventsEnabled reports whether the NATS publisher is active.
	EventsEnabled bool

	// Version is the build version string.
	Version string
}

type healthBody struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Storage string `json:"storage_circuit,omitempty"`
	Events  string `json:"events"`
}

// Health handles GET /api/v1/health. Always 200 when the process is up;
// degraded collaborators show in the body, not the status code.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	body := healthBody{
		Status:    "ok",
		Version:   h.health.Version,
		Timestamp: time.Now().UTC(),
		Events:    "disabled",
	}
	if h.health.StorageState != nil {
		body.Storage = h.health.StorageState()
	}
	if h.health.EventsEnabled {
		body.Events = "enabled"
	}

	NewResponseWriter(w, r).OK(body)
}

// Live handles GET /api/v1/health/live. Process-up liveness only.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).OK(map[string]string{"status": "alive"})
}

// Ready handles GET /api/v1/health/ready. Readiness requires the registry
// to answer; a service that cannot reach Postgres must not receive traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.health.ReadyCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.health.ReadyCheck(ctx); err != nil {
			rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "database not reachable")
			return
		}
	}

	rw.OK(map[string]string{"status": "ready"})
}
