// Package cache provides a short-TTL result cache for computed
// analytics: dashboard compositions and completed A/B test results.
// Caching is best-effort; a miss or backend failure falls through to
// recomputation, never to an error for the caller.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// ResultCache stores JSON-encoded computation results under string keys.
type ResultCache interface {
	// Get retrieves a value. Returns ErrMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL. A zero TTL stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
