package billing

import "context"

// IntentRequest asks the processor to open a charge attempt. Amounts
// are integer minor currency units (cents for USD). The idempotency key
// ties retries of one logical creation to a single external intent.
type IntentRequest struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// Intent is the processor's handle for an in-progress charge. The
// client secret is handed to the caller's payment-collection UI and is
// never persisted.
type Intent struct {
	ID           string
	ClientSecret string
}

type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
	Refund(ctx context.Context, intentID string) error
}
