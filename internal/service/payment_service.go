package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propfolio/propfolio/internal/billing"
	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/observability"
	"github.com/propfolio/propfolio/internal/repository"
)

const idempotencyScopePaymentCreate = "payments.create"

type CreatePaymentInput struct {
	TenantID       uint
	PropertyID     uint
	LeaseID        uint
	Amount         decimal.Decimal
	Type           domain.PaymentType
	Method         domain.PaymentMethod
	Status         domain.PaymentStatus
	PaidOn         time.Time
	Notes          string
	IdempotencyKey string
}

type UpdatePaymentInput struct {
	Amount *decimal.Decimal
	Type   *domain.PaymentType
	Method *domain.PaymentMethod
	Status *domain.PaymentStatus
	PaidOn *time.Time
	Notes  *string
}

type ListPaymentsInput struct {
	PropertyID uint
	TenantID   uint
	Status     string
	Type       string
}

// CreatePaymentResult pairs the stored record with the processor's
// client secret when one was issued. The secret is returned to the
// caller's payment-collection UI and never written to the database.
type CreatePaymentResult struct {
	Payment      *domain.Payment
	ClientSecret string
}

type PaymentService struct {
	payments       repository.PaymentRepository
	tenancy        *repository.TenancyRepository
	notifications  repository.NotificationRepository
	processor      billing.Processor
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	currency       string
	logger         *slog.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	tenancy *repository.TenancyRepository,
	notifications repository.NotificationRepository,
	processor billing.Processor,
	idempotency IdempotencyStore,
	idempotencyTTL time.Duration,
	currency string,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:       payments,
		tenancy:        tenancy,
		notifications:  notifications,
		processor:      processor,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		currency:       currency,
		logger:         logger,
	}
}

func (s *PaymentService) Create(ctx context.Context, ownerID uint, in CreatePaymentInput) (*CreatePaymentResult, error) {
	if err := s.validateCreate(in); err != nil {
		observability.RecordPaymentEvent(ctx, "create", "validation_error")
		return nil, err
	}

	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	if s.idempotency != nil {
		res, err := s.idempotency.Begin(ctx, idempotencyScopePaymentCreate, key, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		switch res.State {
		case IdempotencyStateInProgress:
			observability.RecordPaymentEvent(ctx, "create", "duplicate_attempt")
			return nil, ErrDuplicateAttempt
		case IdempotencyStateReplay:
			payment, err := s.payments.FindForOwner(ctx, ownerID, res.Cached.PaymentID)
			if err != nil {
				return nil, err
			}
			observability.RecordPaymentEvent(ctx, "create", "replay")
			return &CreatePaymentResult{Payment: payment, ClientSecret: res.Cached.ClientSecret}, nil
		}
	}

	if err := s.checkReferences(ctx, ownerID, in.PropertyID, in.TenantID, in.LeaseID); err != nil {
		observability.RecordPaymentEvent(ctx, "create", "not_found")
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.PaymentStatusPending
	}
	paidOn := in.PaidOn
	if paidOn.IsZero() {
		paidOn = time.Now()
	}
	payment := &domain.Payment{
		OwnerID:    ownerID,
		TenantID:   in.TenantID,
		PropertyID: in.PropertyID,
		LeaseID:    in.LeaseID,
		Amount:     in.Amount,
		Type:       in.Type,
		Method:     in.Method,
		Status:     status,
		PaidOn:     paidOn,
		Notes:      in.Notes,
	}

	var clientSecret string
	if in.Method == domain.PaymentMethodCard {
		if s.processor == nil {
			observability.RecordPaymentEvent(ctx, "create", "processor_unconfigured")
			return nil, Invalid("card payments are not enabled")
		}
		intent, err := s.processor.CreateIntent(ctx, billing.IntentRequest{
			AmountMinor:    payment.MinorUnits(),
			Currency:       s.currency,
			IdempotencyKey: key,
			Metadata: map[string]string{
				"tenant_id":   fmt.Sprint(in.TenantID),
				"property_id": fmt.Sprint(in.PropertyID),
				"lease_id":    fmt.Sprint(in.LeaseID),
				"type":        string(in.Type),
			},
		})
		if err != nil {
			observability.RecordPaymentEvent(ctx, "create", "processor_error")
			return nil, err
		}
		payment.PaymentIntentID = &intent.ID
		clientSecret = intent.ClientSecret
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		observability.RecordPaymentEvent(ctx, "create", "error")
		return nil, err
	}

	s.notify(ctx, ownerID, domain.NotificationKindPaymentCreated, payment.ID,
		"Payment recorded",
		fmt.Sprintf("%s payment of %s recorded for lease %d", payment.Type, payment.Amount.StringFixed(2), payment.LeaseID))

	if s.idempotency != nil {
		if err := s.idempotency.Complete(ctx, idempotencyScopePaymentCreate, key, CachedCreateResult{
			PaymentID:    payment.ID,
			ClientSecret: clientSecret,
		}, s.idempotencyTTL); err != nil {
			s.logger.WarnContext(ctx, "record idempotency completion", "error", err)
		}
	}

	observability.RecordPaymentEvent(ctx, "create", "success")
	return &CreatePaymentResult{Payment: payment, ClientSecret: clientSecret}, nil
}

func (s *PaymentService) Update(ctx context.Context, ownerID, id uint, in UpdatePaymentInput) (*domain.Payment, error) {
	payment, err := s.payments.FindForOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	fields, err := s.updateFields(in)
	if err != nil {
		observability.RecordPaymentEvent(ctx, "update", "validation_error")
		return nil, err
	}
	if len(fields) == 0 {
		return payment, nil
	}

	var next domain.PaymentStatus
	statusChanging := in.Status != nil && *in.Status != payment.Status
	if in.Status != nil {
		next = *in.Status
	}

	// Completed and refunded payments are frozen. The one admissible
	// mutation is the status-only transition into refunded.
	if payment.Status.Terminal() {
		refundOnly := statusChanging && next == domain.PaymentStatusRefunded && len(fields) == 1
		if !refundOnly || !payment.Status.Mutable(next) {
			observability.RecordPaymentEvent(ctx, "update", "state_conflict")
			return nil, ErrStateConflict
		}
	} else if in.Status != nil && !payment.Status.Mutable(next) {
		observability.RecordPaymentEvent(ctx, "update", "state_conflict")
		return nil, ErrStateConflict
	}

	if statusChanging && payment.PaymentIntentID != nil {
		switch next {
		case domain.PaymentStatusRefunded:
			if err := s.processor.Refund(ctx, *payment.PaymentIntentID); err != nil {
				observability.RecordPaymentEvent(ctx, "update", "processor_error")
				return nil, err
			}
		case domain.PaymentStatusCancelled:
			if err := s.processor.CancelIntent(ctx, *payment.PaymentIntentID); err != nil {
				observability.RecordPaymentEvent(ctx, "update", "processor_error")
				return nil, err
			}
		}
	}

	if err := s.payments.UpdateForOwner(ctx, ownerID, id, fields); err != nil {
		observability.RecordPaymentEvent(ctx, "update", "error")
		return nil, err
	}

	if statusChanging {
		s.notify(ctx, ownerID, domain.NotificationKindPaymentStatus, payment.ID,
			"Payment status changed",
			fmt.Sprintf("payment %d moved from %s to %s", payment.ID, payment.Status, next))
	}

	updated, err := s.payments.FindForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	observability.RecordPaymentEvent(ctx, "update", "success")
	return updated, nil
}

func (s *PaymentService) Delete(ctx context.Context, ownerID, id uint) error {
	payment, err := s.payments.FindForOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if payment.Status.Terminal() {
		observability.RecordPaymentEvent(ctx, "delete", "state_conflict")
		return ErrStateConflict
	}
	if payment.PaymentIntentID != nil {
		if err := s.processor.CancelIntent(ctx, *payment.PaymentIntentID); err != nil {
			observability.RecordPaymentEvent(ctx, "delete", "processor_error")
			return err
		}
	}
	if err := s.payments.DeleteForOwner(ctx, ownerID, id); err != nil {
		observability.RecordPaymentEvent(ctx, "delete", "error")
		return err
	}
	observability.RecordPaymentEvent(ctx, "delete", "success")
	return nil
}

func (s *PaymentService) Get(ctx context.Context, ownerID, id uint) (*domain.Payment, error) {
	payment, err := s.payments.FindForOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

// List applies the requested filters. An unrecognized type or status
// value is logged and dropped rather than rejected, so the result set
// matches an unfiltered listing.
func (s *PaymentService) List(ctx context.Context, ownerID uint, in ListPaymentsInput) ([]domain.Payment, error) {
	filter := repository.PaymentFilter{
		PropertyID: in.PropertyID,
		TenantID:   in.TenantID,
	}
	if in.Type != "" {
		if t := domain.PaymentType(in.Type); t.Valid() {
			filter.Type = t
		} else {
			s.logger.WarnContext(ctx, "ignoring invalid payment type filter", "type", in.Type)
		}
	}
	if in.Status != "" {
		if st := domain.PaymentStatus(in.Status); st.Valid() {
			filter.Status = st
		} else {
			s.logger.WarnContext(ctx, "ignoring invalid payment status filter", "status", in.Status)
		}
	}
	return s.payments.ListForOwner(ctx, ownerID, filter)
}

func (s *PaymentService) validateCreate(in CreatePaymentInput) error {
	if !in.Amount.IsPositive() {
		return Invalid("amount must be positive")
	}
	if !in.Type.Valid() {
		return Invalid(fmt.Sprintf("unknown payment type %q", in.Type))
	}
	if !in.Method.Valid() {
		return Invalid(fmt.Sprintf("unknown payment method %q", in.Method))
	}
	if in.Status != "" && !in.Status.Valid() {
		return Invalid(fmt.Sprintf("unknown payment status %q", in.Status))
	}
	return nil
}

// checkReferences verifies the three referenced entities exist and
// belong to the principal. Any miss fails the whole operation with the
// same answer, so a caller cannot probe for foreign ids.
func (s *PaymentService) checkReferences(ctx context.Context, ownerID, propertyID, tenantID, leaseID uint) error {
	ok, err := s.tenancy.Properties.ExistsForOwner(ctx, ownerID, propertyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	ok, err = s.tenancy.Tenants.ExistsForOwner(ctx, ownerID, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	ok, err = s.tenancy.Leases.ExistsForOwner(ctx, ownerID, leaseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *PaymentService) updateFields(in UpdatePaymentInput) (map[string]any, error) {
	fields := map[string]any{}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, Invalid("amount must be positive")
		}
		fields["amount"] = *in.Amount
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, Invalid(fmt.Sprintf("unknown payment type %q", *in.Type))
		}
		fields["type"] = *in.Type
	}
	if in.Method != nil {
		if !in.Method.Valid() {
			return nil, Invalid(fmt.Sprintf("unknown payment method %q", *in.Method))
		}
		fields["method"] = *in.Method
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, Invalid(fmt.Sprintf("unknown payment status %q", *in.Status))
		}
		fields["status"] = *in.Status
	}
	if in.PaidOn != nil {
		fields["paid_on"] = *in.PaidOn
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}
	return fields, nil
}

func (s *PaymentService) notify(ctx context.Context, userID uint, kind domain.NotificationKind, refID uint, title, body string) {
	n := &domain.Notification{
		UserID:      userID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		ReferenceID: refID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "write notification", "kind", kind, "error", err)
	}
}
