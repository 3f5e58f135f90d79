// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// Package logging provides centralized zerolog-based structured logging for Clipgate.
//
// A single global logger backs every component. JSON output is the production
// default; console output is available for development. Request IDs set by the
// HTTP middleware propagate through context so every log line emitted while
// serving a request carries the same request_id field.
//
// # Quick Start
//
//	import "github.com/gravanois/clipgate/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("clip_id", id).Msg("Clip registered")
//	logging.Error().Err(err).Msg("Request failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Msg("Processing request")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # slog Adapter
//
// Libraries that require *slog.Logger (the suture supervisor's sutureslog
// hook) get one backed by zerolog:
//
//	slogLogger := logging.NewSlogLogger()
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
package logging
