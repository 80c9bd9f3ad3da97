// Package idempotency attaches stable idempotency keys to create-phase
// payment requests as an opt-in issuer decorator.
//
// # Overview
//
// The completion poller retries the issuer on transient failures. While a
// poll that carries a reference key is naturally idempotent, the very first
// request of a payment is not: if it fails transiently before the client
// observes the reference key, the retry would create a second payment. This
// package closes that window by fingerprinting the create request and
// sending the same Idempotency-Key header on every retry of it.
//
// # Usage
//
// Basic usage with the default in-memory store:
//
//	client := paykit.NewClient(baseURL, apiKey)
//	issuer := idempotency.Wrap(client)
//
//	result := paykit.NewPoller(issuer).WaitForCompletion(ctx, req)
//
// Distributed deployments can share keys through Redis:
//
//	store := idempotency.NewRedisStore(redisClient)
//	issuer := idempotency.Wrap(client, idempotency.WithStore(store))
//
// # Failure policy
//
// Store errors never block a payment: when the store is unreachable the
// request proceeds without a key, trading deduplication for availability.
package idempotency
