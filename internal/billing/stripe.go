package billing

import (
	"context"
	"fmt"

	"github.com/propfolio/propfolio/internal/observability"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(apiKey string) *StripeProcessor {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProcessor{api: api}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(req.IdempotencyKey),
		},
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(req.Currency),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		observability.RecordProcessorCall(ctx, "create_intent", "error")
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	observability.RecordProcessorCall(ctx, "create_intent", "success")
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProcessor) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	}
	if _, err := p.api.PaymentIntents.Cancel(intentID, params); err != nil {
		observability.RecordProcessorCall(ctx, "cancel_intent", "error")
		return fmt.Errorf("cancel payment intent %s: %w", intentID, err)
	}
	observability.RecordProcessorCall(ctx, "cancel_intent", "success")
	return nil
}

func (p *StripeProcessor) Refund(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(intentID),
	}
	if _, err := p.api.Refunds.New(params); err != nil {
		observability.RecordProcessorCall(ctx, "refund", "error")
		return fmt.Errorf("refund payment intent %s: %w", intentID, err)
	}
	observability.RecordProcessorCall(ctx, "refund", "success")
	return nil
}
