// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package models

import "time"

// Client is a billing account owning one or more venue installations.
// Clipgate only reads clients; account management lives elsewhere.
type Client struct {
	ID        string    `json:"id" db:"id"`
	LegalName string    `json:"legal_name" db:"legal_name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// VenueInstallation is a capture box installed at a venue. ContractMethod
// is nullable in the datastore; a venue without one cannot ingest clips.
type VenueInstallation struct {
	ID             string        `json:"id" db:"id"`
	ClientID       string        `json:"client_id" db:"client_id"`
	ContractMethod *ContractType `json:"contract_method,omitempty" db:"contract_method"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}
