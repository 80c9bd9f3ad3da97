package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store suitable for single-process deployments
// where retries always originate from the same poller. For load-balanced or
// multi-process setups use NewRedisStore.
type MemoryStore struct {
	mu     sync.Mutex
	keys   map[string]string
	expiry map[string]time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:   make(map[string]string),
		expiry: make(map[string]time.Time),
	}
}

// GetOrSet implements Store.
func (s *MemoryStore) GetOrSet(_ context.Context, fingerprint, candidate string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if exp, ok := s.expiry[fingerprint]; ok && now.Before(exp) {
		return s.keys[fingerprint], nil
	}

	s.keys[fingerprint] = candidate
	s.expiry[fingerprint] = now.Add(ttl)

	// Lazy cleanup of expired entries.
	for fp, exp := range s.expiry {
		if now.After(exp) {
			delete(s.keys, fp)
			delete(s.expiry, fp)
		}
	}

	return candidate, nil
}
