// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("expected empty request ID from bare context, got %q", got)
	}

	ctx = ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("expected 'req-123', got %q", got)
	}
}

func TestContextWithNewRequestID(t *testing.T) {
	t.Parallel()

	ctx := ContextWithNewRequestID(context.Background())
	if RequestIDFromContext(ctx) == "" {
		t.Error("expected generated request ID, got empty string")
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	t.Parallel()

	a := GenerateRequestID()
	b := GenerateRequestID()
	if a == b {
		t.Errorf("expected unique request IDs, both were %q", a)
	}
}

func TestCtxIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "info", Format: "json", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "abc-def")
	Ctx(ctx).Info().Msg("with request id")

	output := buf.String()
	if !strings.Contains(output, `"request_id":"abc-def"`) {
		t.Errorf("expected request_id field, got: %s", output)
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "info", Format: "json", Output: &buf})

	logger := LoggerFromContext(context.Background())
	logger.Info().Msg("fallback")

	if !strings.Contains(buf.String(), "fallback") {
		t.Errorf("expected fallback to global logger, got: %s", buf.String())
	}
}

func TestContextWithLogger(t *testing.T) {
	var buf bytes.Buffer

	stored := NewTestLogger(&buf)
	ctx := ContextWithLogger(context.Background(), stored)

	Ctx(ctx).Info().Msg("stored logger")

	if !strings.Contains(buf.String(), "stored logger") {
		t.Errorf("expected output from stored logger, got: %s", buf.String())
	}
}
