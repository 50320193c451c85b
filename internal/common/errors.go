// Package common defines shared constants and sentinel errors used across
// the aggregation engine and its transports. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Input errors. Not retryable without fixing the request.
	ErrValidation = errors.New("validation error")

	// Repository-level errors.
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")

	// The entry mutation was applied but the derived day summary was not
	// written. Retry through the recompute-only path.
	ErrSummaryStale = errors.New("summary stale")

	// The caller gave up while waiting for the aggregation slot.
	ErrCancelled = errors.New("cancelled")

	// Auth errors (missing, invalid or malformed token).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
