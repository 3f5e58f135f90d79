// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/metrics"
)

// CircuitBreakerClient wraps Client with the circuit breaker pattern so a
// degraded storage backend fails fast instead of stacking up blocked uploads.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. The timing determines when to
// recover from failures, not data integrity. Unit tests should exercise the
// wrapped client directly.
type CircuitBreakerClient struct {
	client ObjectStore
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates a storage client with circuit breaker.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(cfg *config.StorageConfig) *CircuitBreakerClient {
	return wrapWithBreaker(NewClient(cfg))
}

func wrapWithBreaker(client ObjectStore) *CircuitBreakerClient {
	cbName := "supabase-storage"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a storage API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Storage request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()

			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)

	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// State reports the breaker state as "closed", "half-open", or "open".
// Surfaced through the health endpoint.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

// CreateSignedUploadURL mints a signed upload URL with circuit breaker protection.
func (cbc *CircuitBreakerClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	return castResult[string](cbc.execute(func() (interface{}, error) {
		return cbc.client.CreateSignedUploadURL(ctx, bucket, path)
	}))
}

// CreateSignedURL mints a signed read URL with circuit breaker protection.
func (cbc *CircuitBreakerClient) CreateSignedURL(ctx context.Context, bucket, path string, expiresIn int) (string, error) {
	return castResult[string](cbc.execute(func() (interface{}, error) {
		return cbc.client.CreateSignedURL(ctx, bucket, path, expiresIn)
	}))
}

// CreateSignedURLs mints a batch of signed read URLs with circuit breaker protection.
func (cbc *CircuitBreakerClient) CreateSignedURLs(ctx context.Context, bucket string, paths []string, expiresIn int) (map[string]string, error) {
	return castResult[map[string]string](cbc.execute(func() (interface{}, error) {
		return cbc.client.CreateSignedURLs(ctx, bucket, paths, expiresIn)
	}))
}

// StatObject reads object metadata with circuit breaker protection.
func (cbc *CircuitBreakerClient) StatObject(ctx context.Context, signedURL string) (*ObjectStat, error) {
	return castResult[*ObjectStat](cbc.execute(func() (interface{}, error) {
		return cbc.client.StatObject(ctx, signedURL)
	}))
}
