// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

/*
client.go - Supabase Storage API client

This file provides the core Client struct and HTTP communication layer for
the Supabase Storage REST API. Clipgate never proxies object bytes; the only
storage operations it performs are URL signing and metadata reads.

Client Features:
  - HTTP client with configurable timeout
  - Service-role key authentication
  - Automatic HTTP 429 rate limit handling with exponential backoff
  - Context support for cancellation and timeouts

Resilience Mechanisms:
  - Rate Limiting: Exponential backoff (1s, 2s, 4s, 8s, 16s) on HTTP 429
  - Retries: Max 5 attempts for rate-limited requests
  - Circuit breaker protection lives in breaker.go

Related Files:
  - breaker.go: CircuitBreakerClient wrapping this client
*/
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/metrics"
)

// maxErrorBodySize limits the maximum amount of response body read for error
// reporting. Prevents unbounded memory allocation on large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB).
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// ObjectStat holds the metadata Clipgate reads about a stored object.
// Size is authoritative for verification; the ETag is recorded opportunistically.
type ObjectStat struct {
	SizeBytes int64
	ETag      string
}

// ObjectStore defines the storage operations the ingest flow depends on.
//
// Implemented by Client for production use and by fakes in tests. All methods
// are safe for concurrent use.
type ObjectStore interface {
	// CreateSignedUploadURL mints a one-time signed PUT URL for an object
	// that does not exist yet.
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)

	// CreateSignedURL mints a time-limited signed GET URL for an existing
	// object. expiresIn is in seconds.
	CreateSignedURL(ctx context.Context, bucket, path string, expiresIn int) (string, error)

	// CreateSignedURLs mints signed GET URLs for several objects in one
	// round trip. Paths that fail to sign are absent from the result.
	CreateSignedURLs(ctx context.Context, bucket string, paths []string, expiresIn int) (map[string]string, error)

	// StatObject issues a HEAD request against a signed URL and returns the
	// object's size and ETag without transferring the body.
	StatObject(ctx context.Context, signedURL string) (*ObjectStat, error)
}

// Client handles communication with the Supabase Storage HTTP API.
//
// Authentication uses the service-role key on every request; signed URLs
// returned to callers carry their own embedded tokens and require no further
// credentials.
//
// Thread Safety: Safe for concurrent use. Each request creates its own
// HTTP request.
type Client struct {
	baseURL        string
	serviceKey     string
	client         *http.Client
	maxRetries     int           // Maximum retries for rate limiting
	retryBaseDelay time.Duration // Base delay for exponential backoff
}

// NewClient creates a Supabase Storage client from the storage configuration.
func NewClient(cfg *config.StorageConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		client: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
	}
}

// doRequestWithRateLimit performs an HTTP request with automatic rate limit
// handling. Implements exponential backoff for HTTP 429 responses (1s, 2s,
// 4s, 8s, 16s) and honors Retry-After when present. The body is re-created
// per attempt from payload.
func (c *Client) doRequestWithRateLimit(ctx context.Context, method, reqURL string, payload []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var body io.Reader = http.NoBody
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
		req.Header.Set("apikey", c.serviceKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))

		// Retry-After header (RFC 6585) overrides the computed backoff
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// objectURL builds a storage API URL for a bucket-scoped object operation.
// Path segments are escaped individually so object keys with slashes survive.
func (c *Client) objectURL(operation, bucket, path string) string {
	escaped := make([]string, 0, 8)
	for _, seg := range strings.Split(path, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	return fmt.Sprintf("%s/storage/v1/object/%s/%s/%s",
		c.baseURL, operation, url.PathEscape(bucket), strings.Join(escaped, "/"))
}

// postJSON performs a POST with a JSON payload and decodes a JSON response.
func (c *Client) postJSON(ctx context.Context, operation, reqURL string, payload, result interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", operation, err)
		}
	}

	resp, err := c.doRequestWithRateLimit(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to make %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", operation, resp.StatusCode, string(errBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", operation, err)
		}
	}
	return nil
}

// CreateSignedUploadURL mints a signed upload URL for bucket/path. The
// returned URL is absolute and carries an embedded single-use token.
func (c *Client) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	start := time.Now()

	var result struct {
		URL string `json:"url"`
	}
	err := c.postJSON(ctx, "sign_upload", c.objectURL("upload/sign", bucket, path), nil, &result)
	metrics.RecordStorageRequest("sign_upload", time.Since(start), err)
	if err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", fmt.Errorf("sign_upload response missing url for %s/%s", bucket, path)
	}

	return c.absoluteURL(result.URL), nil
}

// CreateSignedURL mints a signed read URL for an existing object.
func (c *Client) CreateSignedURL(ctx context.Context, bucket, path string, expiresIn int) (string, error) {
	start := time.Now()

	payload := map[string]interface{}{"expiresIn": expiresIn}
	var result struct {
		SignedURL string `json:"signedURL"`
	}
	err := c.postJSON(ctx, "sign_download", c.objectURL("sign", bucket, path), payload, &result)
	metrics.RecordStorageRequest("sign_download", time.Since(start), err)
	if err != nil {
		return "", err
	}
	if result.SignedURL == "" {
		return "", fmt.Errorf("sign_download response missing signedURL for %s/%s", bucket, path)
	}

	return c.absoluteURL(result.SignedURL), nil
}

// CreateSignedURLs mints signed read URLs for a batch of objects. A path the
// storage API refuses to sign is skipped rather than failing the whole batch;
// callers treat a missing entry as no-URL-available.
func (c *Client) CreateSignedURLs(ctx context.Context, bucket string, paths []string, expiresIn int) (map[string]string, error) {
	if len(paths) == 0 {
		return map[string]string{}, nil
	}

	start := time.Now()

	payload := map[string]interface{}{
		"expiresIn": expiresIn,
		"paths":     paths,
	}
	var results []struct {
		Path      string  `json:"path"`
		SignedURL string  `json:"signedURL"`
		Error     *string `json:"error"`
	}
	reqURL := fmt.Sprintf("%s/storage/v1/object/sign/%s", c.baseURL, url.PathEscape(bucket))
	err := c.postJSON(ctx, "sign_batch", reqURL, payload, &results)
	metrics.RecordStorageRequest("sign_batch", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(results))
	for _, r := range results {
		if r.Error != nil || r.SignedURL == "" {
			continue
		}
		urls[r.Path] = c.absoluteURL(r.SignedURL)
	}
	return urls, nil
}

// StatObject issues a HEAD request against a signed URL and reports the
// object's size and ETag. No credentials are attached; the URL's embedded
// token authorizes the read.
func (c *Client) StatObject(ctx context.Context, signedURL string) (*ObjectStat, error) {
	start := time.Now()
	stat, err := c.statObject(ctx, signedURL)
	metrics.RecordStorageRequest("stat", time.Since(start), err)
	return stat, err
}

func (c *Client) statObject(ctx context.Context, signedURL string) (*ObjectStat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, signedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create stat request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stat request failed with status %d", resp.StatusCode)
	}

	sizeHeader := resp.Header.Get("Content-Length")
	size, err := strconv.ParseInt(sizeHeader, 10, 64)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("stat response has invalid Content-Length %q", sizeHeader)
	}

	// ETags arrive quoted per RFC 9110; store the bare value
	etag := strings.Trim(resp.Header.Get("ETag"), `"`)

	return &ObjectStat{SizeBytes: size, ETag: etag}, nil
}

// absoluteURL resolves the relative URLs the storage API returns against the
// project base URL. Already-absolute URLs pass through unchanged.
func (c *Client) absoluteURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return c.baseURL + "/storage/v1" + ensureLeadingSlash(u)
}

func ensureLeadingSlash(u string) string {
	if strings.HasPrefix(u, "/") {
		return u
	}
	return "/" + u
}
