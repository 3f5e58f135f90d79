// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package validation

import (
	"strings"
	"testing"
)

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	type req struct {
		SHA256 string `validate:"required,sha256"`
		Limit  int    `validate:"min=1,max=100"`
	}

	err := ValidateStruct(&req{
		SHA256: strings.Repeat("ab", 32),
		Limit:  50,
	})
	if err != nil {
		t.Fatalf("expected valid struct, got: %v", err)
	}
}

func TestSHA256Validator(t *testing.T) {
	t.Parallel()

	type req struct {
		SHA256 string `validate:"required,sha256"`
	}

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid lowercase", strings.Repeat("a1", 32), false},
		{"valid uppercase", strings.Repeat("A1", 32), false},
		{"too short", strings.Repeat("a", 63), true},
		{"too long", strings.Repeat("a", 65), true},
		{"non-hex characters", strings.Repeat("g", 64), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&req{SHA256: tt.value})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStructSingleErrorDetails(t *testing.T) {
	t.Parallel()

	type req struct {
		Limit int `validate:"min=1,max=100"`
	}

	err := ValidateStruct(&req{Limit: 500})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("details.field = %v, want Limit", apiErr.Details["field"])
	}
	if !strings.Contains(apiErr.Message, "at most 100") {
		t.Errorf("message %q should mention the bound", apiErr.Message)
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	t.Parallel()

	type req struct {
		ClientID string `validate:"required,uuid4"`
		SHA256   string `validate:"required,sha256"`
	}

	err := ValidateStruct(&req{})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("details.fields has unexpected type %T", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("expected 2 field entries, got %d", len(fields))
	}
}

func TestUUIDValidation(t *testing.T) {
	t.Parallel()

	type req struct {
		ID string `validate:"required,uuid4"`
	}

	if err := ValidateStruct(&req{ID: "0e6bd9a4-6d22-4f5f-9a53-fd6df9da3d72"}); err != nil {
		t.Errorf("expected valid UUIDv4, got: %v", err)
	}
	if err := ValidateStruct(&req{ID: "not-a-uuid"}); err == nil {
		t.Error("expected error for invalid UUID")
	}
}

func TestDatetimeValidation(t *testing.T) {
	t.Parallel()

	type req struct {
		CapturedAt string `validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	}

	if err := ValidateStruct(&req{CapturedAt: "2026-08-20T14:00:00Z"}); err != nil {
		t.Errorf("expected valid RFC3339 timestamp, got: %v", err)
	}
	if err := ValidateStruct(&req{CapturedAt: "20/08/2026"}); err == nil {
		t.Error("expected error for non-RFC3339 timestamp")
	}
}
