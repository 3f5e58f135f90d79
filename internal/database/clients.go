// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gravanois/clipgate/internal/models"
)

// GetClientByID retrieves a client account. Clients are read-only from
// Clipgate's perspective.
func (db *DB) GetClientByID(ctx context.Context, clientID string) (*models.Client, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var client models.Client
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, legal_name, email, created_at
		FROM clients WHERE id = $1
	`, clientID).Scan(&client.ID, &client.LegalName, &client.Email, &client.CreatedAt)
	db.recordQuery("select", "clients", start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to query client: %w", err)
	}
	return &client, nil
}

// GetVenueContract loads the venue installation for a client and returns its
// contract method. A venue row with a NULL contract_method exists but cannot
// ingest; that case maps to ErrVenueContractNotFound so callers can report it
// distinctly from a missing venue.
func (db *DB) GetVenueContract(ctx context.Context, clientID, venueID string) (models.ContractType, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var method sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT contract_method
		FROM venue_installations
		WHERE id = $1 AND client_id = $2
	`, venueID, clientID).Scan(&method)
	db.recordQuery("select", "venue_installations", start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrVenueNotFound
		}
		return "", fmt.Errorf("failed to query venue installation: %w", err)
	}

	if !method.Valid || method.String == "" {
		return "", ErrVenueContractNotFound
	}

	ct := models.ContractType(method.String)
	if !ct.Valid() {
		return "", fmt.Errorf("venue %s has unknown contract method %q", venueID, method.String)
	}
	return ct, nil
}
