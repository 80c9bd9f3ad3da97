package idempotency

import (
	"context"
	"time"
)

// Store maps create-request fingerprints to idempotency keys.
// Implementations must be safe for concurrent use.
//
// The interface supports both in-memory and distributed backends (Redis,
// database) for different deployment scenarios.
type Store interface {
	// GetOrSet returns the key stored for fingerprint, or atomically stores
	// candidate under it for ttl and returns candidate when none exists.
	GetOrSet(ctx context.Context, fingerprint, candidate string, ttl time.Duration) (string, error)
}
