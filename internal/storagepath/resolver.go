// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

// Package storagepath maps a clip to its storage bucket and object key.
//
// Layout by contract type:
//
//	monthly_subscription:
//	    bucket "main"
//	    main/clients/{clientID}/venues/{venueID}/{month}/{day}/{clipID}.mp4
//	per_video:
//	    bucket "temp"
//	    temp/{clientID}/{venueID}/{clipID}.mp4
//
// Month and day come from the clip's capture time rendered in a fixed
// business timezone, so the same clip resolves to the same path on every
// server regardless of host locale. Components are unpadded decimal
// (January 5th is 1/5, not 01/05); existing objects in storage use that
// form and listing code depends on it.
package storagepath

import (
	"fmt"
	"time"

	"github.com/gravanois/clipgate/internal/models"
)

// Default bucket names. Configurable through Resolver, fixed in practice.
const (
	DefaultMainBucket = "main"
	DefaultTempBucket = "temp"
)

// Resolver computes storage locations for clips. The zero value is not
// usable; construct with New.
type Resolver struct {
	mainBucket string
	tempBucket string
	loc        *time.Location
}

// New returns a Resolver that renders calendar components in loc.
// A nil loc falls back to UTC.
func New(mainBucket, tempBucket string, loc *time.Location) *Resolver {
	if mainBucket == "" {
		mainBucket = DefaultMainBucket
	}
	if tempBucket == "" {
		tempBucket = DefaultTempBucket
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		mainBucket: mainBucket,
		tempBucket: tempBucket,
		loc:        loc,
	}
}

// Resolve returns the bucket and object path for a clip. The result is
// deterministic: same inputs, same location. Unknown contract types get
// the temp layout; callers validate the contract before resolving.
func (r *Resolver) Resolve(ct models.ContractType, clientID, venueID, clipID string, capturedAt time.Time) (bucket, path string) {
	if ct == models.ContractMonthly {
		local := capturedAt.In(r.loc)
		path = fmt.Sprintf("%s/clients/%s/venues/%s/%d/%d/%s.mp4",
			r.mainBucket, clientID, venueID, int(local.Month()), local.Day(), clipID)
		return r.mainBucket, path
	}

	path = fmt.Sprintf("%s/%s/%s/%s.mp4", r.tempBucket, clientID, venueID, clipID)
	return r.tempBucket, path
}

// MainBucket returns the permanent bucket name.
func (r *Resolver) MainBucket() string { return r.mainBucket }

// TempBucket returns the holding bucket name.
func (r *Resolver) TempBucket() string { return r.tempBucket }
