package service

import (
	"context"
	"time"
)

type IdempotencyState string

const (
	IdempotencyStateNew        IdempotencyState = "new"
	IdempotencyStateInProgress IdempotencyState = "in_progress"
	IdempotencyStateReplay     IdempotencyState = "replay"
)

// CachedCreateResult replays a finished creation attempt: the payment
// that was created and, for card payments, the client secret the caller
// still needs. The cache is TTL-bound; nothing here reaches the
// database.
type CachedCreateResult struct {
	PaymentID    uint   `json:"payment_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

type IdempotencyResult struct {
	State  IdempotencyState
	Cached *CachedCreateResult
}

// IdempotencyStore fences duplicate creation attempts keyed by a
// client-supplied (or generated) idempotency key. Begin claims the key;
// Complete records the outcome so a retried request replays it instead
// of creating a second payment and a second external intent.
type IdempotencyStore interface {
	Begin(ctx context.Context, scope, key string, ttl time.Duration) (IdempotencyResult, error)
	Complete(ctx context.Context, scope, key string, result CachedCreateResult, ttl time.Duration) error
}
