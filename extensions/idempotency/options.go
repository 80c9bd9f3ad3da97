package idempotency

import (
	"time"

	"github.com/google/uuid"
)

// defaultTTL bounds how long a create fingerprint keeps resolving to the
// same key. It comfortably covers the poller's default five minute deadline.
const defaultTTL = 15 * time.Minute

// KeyGenerator mints new idempotency keys.
type KeyGenerator func() string

type config struct {
	ttl    time.Duration
	store  Store
	newKey KeyGenerator
}

func defaultConfig() config {
	return config{
		ttl:    defaultTTL,
		newKey: uuid.NewString,
	}
}

// Option configures Wrap.
type Option func(*config)

// WithTTL sets how long a fingerprint-to-key mapping is retained.
// Default: 15 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithStore sets a custom Store, e.g. NewRedisStore for deployments where
// retries may come from different processes. Default: an in-memory store.
func WithStore(store Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithKeyGenerator sets a custom key mint. Default: random UUIDs.
func WithKeyGenerator(gen KeyGenerator) Option {
	return func(c *config) {
		if gen != nil {
			c.newKey = gen
		}
	}
}
