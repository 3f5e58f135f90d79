// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// Package main is the entry point for the Clipgate ingest server.
//
// Clipgate registers video clips captured at partner venues, issues signed
// upload URLs into Supabase Storage, verifies completed uploads, and
// publishes clip.created events over NATS JetStream for downstream
// processors.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file, env vars)
//  2. Database: Postgres clip registry, with optional startup migrations
//  3. Storage: Supabase Storage client behind a circuit breaker
//  4. Events (optional): NATS JetStream publisher and stream watchdog
//  5. Ingest service: registration, verification, and listing logic
//  6. HTTP Server: chi router under a suture supervision tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (CLIPGATE_ prefix)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Required settings:
//   - DATABASE_URL: postgres:// DSN for the clip registry
//   - STORAGE_URL: Supabase project base URL
//   - STORAGE_SERVICE_KEY: service-role key for signing
//
// Event publication is off by default; enable with NATS_ENABLED=true and
// NATS_URL.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the event publisher and database pool
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/gravanois/clipgate/internal/api"
	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/database"
	"github.com/gravanois/clipgate/internal/events"
	"github.com/gravanois/clipgate/internal/ingest"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/storage"
	"github.com/gravanois/clipgate/internal/storagepath"
	"github.com/gravanois/clipgate/internal/supervisor"
	"github.com/gravanois/clipgate/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Bool("events_enabled", cfg.NATS.Enabled).
		Msg("Starting Clipgate")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	objects := storage.NewCircuitBreakerClient(&cfg.Storage)
	logging.Info().
		Str("main_bucket", cfg.Storage.MainBucket).
		Str("temp_bucket", cfg.Storage.TempBucket).
		Msg("Storage client initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog needs slog; the adapter bridges to zerolog.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	publisher, streamInit, natsConn := initEvents(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event publisher")
		}
		if natsConn != nil {
			natsConn.Close()
		}
	}()

	loc, err := time.LoadLocation(cfg.Storage.PathTimezone)
	if err != nil {
		logging.Fatal().Err(err).Str("timezone", cfg.Storage.PathTimezone).Msg("Invalid path timezone")
	}
	resolver := storagepath.New(cfg.Storage.MainBucket, cfg.Storage.TempBucket, loc)

	service := ingest.NewService(cfg, db, objects, publisher, resolver)

	handler := api.NewHandler(service, &api.HealthState{
		ReadyCheck:    db.Ping,
		StorageState:  objects.State,
		EventsEnabled: cfg.NATS.Enabled,
		Version:       version,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, handler).Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	if streamInit != nil {
		tree.AddEventsService(services.NewEventStreamService(streamInit, 30*time.Second))
		logging.Info().Msg("Event stream watchdog added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor finishes.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// initEvents wires the NATS JetStream publisher and stream initializer when
// event publication is enabled. With events disabled the service runs with a
// no-op publisher; registration and verification are unaffected.
func initEvents(cfg *config.Config) (events.Publisher, *events.StreamInitializer, *natsgo.Conn) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Event publication disabled (NATS_ENABLED=false)")
		return events.NewNoopPublisher(), nil, nil
	}

	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger())

	publisher, err := events.NewNATSPublisher(&cfg.NATS, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create NATS publisher")
	}

	// Separate connection for stream management; the publisher owns its own.
	conn, err := natsgo.Connect(cfg.NATS.URL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create JetStream context")
	}

	streamInit, err := events.NewStreamInitializer(js, cfg.NATS.StreamRetentionDays)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream initializer")
	}

	logging.Info().
		Str("url", cfg.NATS.URL).
		Int("retention_days", cfg.NATS.StreamRetentionDays).
		Msg("Event publication enabled")

	return publisher, streamInit, conn
}
