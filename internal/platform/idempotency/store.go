// Package idempotency tracks already-processed webhook deliveries so a
// provider-side retry of the same event does not trigger duplicate side
// effects. Records expire; across restarts delivery remains at-least-once.
package idempotency

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a processed key is remembered.
const DefaultTTL = 24 * time.Hour

// Record captures one processed delivery.
type Record struct {
	Key         string
	ProcessedAt time.Time
	ExpiresAt   time.Time
}

// Store is the contract for delivery deduplication.
type Store interface {
	// MarkProcessed records the key if it has not been seen within its TTL.
	// The boolean reports whether the key was newly recorded (true) or had
	// already been processed (false).
	MarkProcessed(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error)
}
