package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	paykit "github.com/paykitio/paykit-go"
)

// issuer decorates a paykit.Issuer with idempotency keys for create-phase
// requests.
type issuer struct {
	next   paykit.Issuer
	store  Store
	config config
}

var _ paykit.Issuer = (*issuer)(nil)

// Wrap returns an issuer that attaches an idempotency key to every request
// that creates a payment (no reference key yet). Requests that already carry
// a reference key or an explicit key pass through untouched.
func Wrap(next paykit.Issuer, opts ...Option) paykit.Issuer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	store := cfg.store
	if store == nil {
		store = NewMemoryStore()
	}

	return &issuer{
		next:   next,
		store:  store,
		config: cfg,
	}
}

// RequestPayment implements paykit.Issuer.
func (i *issuer) RequestPayment(ctx context.Context, req paykit.PaymentRequest) (*paykit.PaymentState, error) {
	if req.PaymentReference != "" || req.IdempotencyKey != "" {
		return i.next.RequestPayment(ctx, req)
	}

	key, err := i.store.GetOrSet(ctx, Fingerprint(req), i.config.newKey(), i.config.ttl)
	if err != nil {
		// Fail open: availability over deduplication.
		return i.next.RequestPayment(ctx, req)
	}

	req.IdempotencyKey = key
	return i.next.RequestPayment(ctx, req)
}

// Fingerprint derives a stable identity for a create request from its
// canonical JSON body. The reference and idempotency keys are excluded so
// that retries of the same logical create collapse onto one fingerprint.
func Fingerprint(req paykit.PaymentRequest) string {
	req.PaymentReference = ""
	req.IdempotencyKey = ""

	body, err := json.Marshal(req)
	if err != nil {
		return ""
	}

	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
