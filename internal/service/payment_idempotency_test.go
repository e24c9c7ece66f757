package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propfolio/propfolio/internal/domain"
)

func TestCreateCardPaymentReplaysOnDuplicateKey(t *testing.T) {
	env := newPaymentEnv(t)
	_, client := newRedisClientForTest(t)
	env.svc.idempotency = NewRedisIdempotencyStore(client, "idem_test")
	ctx := context.Background()

	in := validCreateInput()
	in.Method = domain.PaymentMethodCard
	in.IdempotencyKey = "retry-me"

	first, err := env.svc.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := env.svc.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("replayed create: %v", err)
	}

	if env.processor.createCalls != 1 {
		t.Fatalf("retry must not create a second external intent, got %d calls", env.processor.createCalls)
	}
	if second.Payment.ID != first.Payment.ID {
		t.Fatalf("retry must return the original payment: first=%d second=%d", first.Payment.ID, second.Payment.ID)
	}
	if second.ClientSecret != first.ClientSecret {
		t.Fatal("retry must replay the original client secret")
	}

	all, err := env.svc.List(ctx, 1, ListPaymentsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single payment row, got %d", len(all))
	}
}

func TestCreatePaymentInProgressKeyConflicts(t *testing.T) {
	env := newPaymentEnv(t)
	_, client := newRedisClientForTest(t)
	store := NewRedisIdempotencyStore(client, "idem_test")
	env.svc.idempotency = store
	ctx := context.Background()

	// Claim the key without completing, as a crashed first attempt would.
	if _, err := store.Begin(ctx, idempotencyScopePaymentCreate, "stuck", time.Minute); err != nil {
		t.Fatalf("claim key: %v", err)
	}

	in := validCreateInput()
	in.Method = domain.PaymentMethodCard
	in.IdempotencyKey = "stuck"
	if _, err := env.svc.Create(ctx, 1, in); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("expected ErrDuplicateAttempt, got %v", err)
	}
}
