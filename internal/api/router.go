// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router from configuration and the handler set.
func NewRouter(cfg *config.Config, handler *Handler) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// chiMiddlewareFunc adapts http.HandlerFunc middleware to Chi's r.Use().
func chiMiddlewareFunc(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup builds the chi handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, order matters: request IDs first so every later
	// log line carries one, CORS before routing for OPTIONS preflight.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())

		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.Live)
		r.Get("/ready", router.handler.Ready)
	})

	r.Route("/api/videos", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(chiMiddlewareFunc(middleware.PrometheusMetrics))

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))

			r.Post("/metadados/client/{clientId}/venue/{venueId}", router.handler.RegisterClip)
			r.Post("/{videoId}/uploaded", router.handler.ConfirmUpload)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitList))

			r.Get("/list", router.handler.ListClips)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
