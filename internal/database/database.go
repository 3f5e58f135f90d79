// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// Package database provides the clip registry on Postgres.
//
// The datastore is the platform's Supabase Postgres instance, accessed
// through database/sql with the pgx stdlib driver. The package owns the
// clips table and reads the clients and venue_installations reference
// tables; everything else in that database belongs to other services.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/metrics"
)

// defaultQueryTimeout bounds queries whose caller context has no deadline.
const defaultQueryTimeout = 30 * time.Second

// DB wraps the Postgres connection pool and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New creates a new database connection pool and, when configured, applies
// pending schema migrations.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{conn: conn, cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := db.runVersionedMigrations(ctx); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Bool("migrate_on_start", cfg.MigrateOnStart).
		Msg("Database connection established")

	return db, nil
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying SQL database connection. Used by test
// infrastructure and health checks that need direct access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// ensureContext attaches the default query timeout when the caller's
// context carries no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// recordQuery updates query metrics and the in-use connection gauge.
func (db *DB) recordQuery(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	metrics.DBConnectionsInUse.Set(float64(db.conn.Stats().InUse))
}
