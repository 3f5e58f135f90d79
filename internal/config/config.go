// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// Package config loads and validates Clipgate configuration.
//
// Configuration is layered with koanf v2: built-in defaults, then an
// optional YAML config file, then environment variables. Environment
// variables win.
package config

import "time"

// Config is the root configuration for the Clipgate service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Storage  StorageConfig  `koanf:"storage"`
	NATS     NATSConfig     `koanf:"nats"` // Optional: clip event publication over NATS JetStream
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`     // read/write timeout for the HTTP server
	Environment string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds Postgres connection settings.
// The datastore is the platform's Supabase Postgres instance.
type DatabaseConfig struct {
	URL             string        `koanf:"url"` // postgres:// DSN
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

// StorageConfig holds Supabase Storage settings.
type StorageConfig struct {
	URL        string `koanf:"url"`         // Supabase project base URL
	ServiceKey string `koanf:"service_key"` // service-role key, never exposed to clients

	MainBucket string `koanf:"main_bucket"` // permanent clips (monthly contracts)
	TempBucket string `koanf:"temp_bucket"` // holding area (per-video contracts)

	// UploadURLExpiryHours is advisory only; it is echoed to capture boxes
	// as expires_hint_hours so they can schedule retries.
	UploadURLExpiryHours int `koanf:"upload_url_expiry_hours"`

	// VerifySignTTL bounds the life of the signed read URL minted for
	// upload verification. Verification completes in seconds.
	VerifySignTTL time.Duration `koanf:"verify_sign_ttl"`

	Timeout time.Duration `koanf:"timeout"` // per-request HTTP timeout

	// PathTimezone is the IANA zone used to derive the month/day path
	// components for monthly contract clips.
	PathTimezone string `koanf:"path_timezone"`
}

// NATSConfig holds clip event publication settings.
type NATSConfig struct {
	Enabled             bool          `koanf:"enabled"`
	URL                 string        `koanf:"url"`
	StreamRetentionDays int           `koanf:"stream_retention_days"`
	PublishTimeout      time.Duration `koanf:"publish_timeout"`
}

// APIConfig holds pagination and listing settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// Signed download URL TTL bounds for the listing endpoint (seconds).
	ListSignedURLMinTTL int `koanf:"list_signed_url_min_ttl"`
	ListSignedURLMaxTTL int `koanf:"list_signed_url_max_ttl"`
}

// SecurityConfig holds transport-level protections. Authentication itself
// is handled at the platform edge and deliberately absent here.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
