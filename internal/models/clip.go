// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// Package models defines the domain types shared across Clipgate:
// clips and their lifecycle, contract types, and the reference entities
// (clients, venue installations) ingestion reads but never writes.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ContractType is the billing arrangement of the venue a clip was captured at.
// It decides both the storage layout and the post-upload lifecycle of a clip.
type ContractType string

const (
	// ContractMonthly is a flat monthly subscription. Clips are stored in
	// the permanent bucket under a calendar-partitioned layout.
	ContractMonthly ContractType = "monthly_subscription"

	// ContractPerVideo bills per purchased clip. Clips land in the temp
	// bucket and await a purchase decision.
	ContractPerVideo ContractType = "per_video"
)

// Valid reports whether ct is a known contract type.
func (ct ContractType) Valid() bool {
	return ct == ContractMonthly || ct == ContractPerVideo
}

// Value implements driver.Valuer.
func (ct ContractType) Value() (driver.Value, error) {
	return string(ct), nil
}

// Scan implements sql.Scanner.
func (ct *ContractType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*ct = ContractType(v)
	case []byte:
		*ct = ContractType(v)
	default:
		return fmt.Errorf("cannot scan %T into ContractType", src)
	}
	return nil
}

// ClipStatus is the lifecycle state of a clip. Transitions are forward-only:
// queued is the initial state, uploaded_temp and uploaded are terminal.
type ClipStatus string

const (
	// StatusQueued means metadata is registered and an upload URL was
	// issued, but no object has been verified in storage yet.
	StatusQueued ClipStatus = "queued"

	// StatusUploadedTemp means the object was verified in the temp bucket
	// (per_video contract). A later purchase flow promotes it.
	StatusUploadedTemp ClipStatus = "uploaded_temp"

	// StatusUploaded means the object was verified in the permanent bucket
	// (monthly_subscription contract).
	StatusUploaded ClipStatus = "uploaded"
)

// Valid reports whether s is a known clip status.
func (s ClipStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusUploadedTemp, StatusUploaded:
		return true
	}
	return false
}

// Final reports whether s is a terminal status. Final clips never change.
func (s ClipStatus) Final() bool {
	return s == StatusUploadedTemp || s == StatusUploaded
}

// Clip is a registered video clip. A row exists from the moment an upload
// session is issued; sha256 and size_bytes stay nil until verification
// confirms the object in storage.
type Clip struct {
	ClipID       string       `json:"clip_id" db:"clip_id"`
	ClientID     string       `json:"client_id" db:"client_id"`
	VenueID      string       `json:"venue_id" db:"venue_id"`
	ContractType ContractType `json:"contract_type" db:"contract_type"`

	// Bucket and StoragePath are resolved once at registration and stored.
	// Nothing downstream re-derives the bucket from the path prefix.
	Bucket      string `json:"bucket" db:"bucket"`
	StoragePath string `json:"storage_path" db:"storage_path"`

	CapturedAt time.Time  `json:"captured_at" db:"captured_at"`
	Status     ClipStatus `json:"status" db:"status"`

	// SHA256 and SizeBytes are populated by upload verification only.
	SHA256    *string `json:"sha256,omitempty" db:"sha256"`
	SizeBytes *int64  `json:"size_bytes,omitempty" db:"size_bytes"`

	DurationSec *int              `json:"duration_sec,omitempty" db:"duration_sec"`
	Meta        map[string]interface{} `json:"meta,omitempty" db:"meta"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FinalStatus returns the terminal status a verified clip of the given
// contract type moves to.
func FinalStatus(ct ContractType) ClipStatus {
	if ct == ContractMonthly {
		return StatusUploaded
	}
	return StatusUploadedTemp
}
