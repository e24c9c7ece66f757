package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propfolio/propfolio/internal/billing"
	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/repository"
)

type fakeProcessor struct {
	createCalls int
	cancelCalls int
	refundCalls int
	lastCreate  billing.IntentRequest
	lastCancel  string
	lastRefund  string
	createErr   error
}

func (f *fakeProcessor) CreateIntent(_ context.Context, req billing.IntentRequest) (*billing.Intent, error) {
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &billing.Intent{
		ID:           fmt.Sprintf("pi_test_%d", f.createCalls),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", f.createCalls),
	}, nil
}

func (f *fakeProcessor) CancelIntent(_ context.Context, id string) error {
	f.cancelCalls++
	f.lastCancel = id
	return nil
}

func (f *fakeProcessor) Refund(_ context.Context, id string) error {
	f.refundCalls++
	f.lastRefund = id
	return nil
}

type paymentEnv struct {
	svc           *PaymentService
	processor     *fakeProcessor
	db            *gorm.DB
	notifications repository.NotificationRepository
}

func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tenancy := repository.NewTenancyRepository(db)
	ctx := context.Background()
	if err := tenancy.Properties.Create(ctx, &domain.Property{OwnerID: 1, Name: "Oak House", Address: "12 Oak St"}); err != nil {
		t.Fatalf("seed property: %v", err)
	}
	if err := tenancy.Tenants.Create(ctx, &domain.Tenant{OwnerID: 1, PropertyID: 1, Name: "Priya Nair"}); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	if err := tenancy.Leases.Create(ctx, &domain.Lease{
		OwnerID: 1, PropertyID: 1, TenantID: 1,
		StartDate:   time.Now().AddDate(0, -6, 0),
		EndDate:     time.Now().AddDate(0, 6, 0),
		MonthlyRent: decimal.NewFromInt(1200),
	}); err != nil {
		t.Fatalf("seed lease: %v", err)
	}

	processor := &fakeProcessor{}
	notifications := repository.NewNotificationRepository(db)
	svc := NewPaymentService(
		repository.NewPaymentRepository(db),
		tenancy,
		notifications,
		processor,
		nil,
		time.Hour,
		"usd",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return &paymentEnv{svc: svc, processor: processor, db: db, notifications: notifications}
}

func validCreateInput() CreatePaymentInput {
	return CreatePaymentInput{
		TenantID:   1,
		PropertyID: 1,
		LeaseID:    1,
		Amount:     decimal.NewFromInt(500),
		Type:       domain.PaymentTypeRent,
		Method:     domain.PaymentMethodCash,
	}
}

func TestCreateCashPaymentDefaultsToPendingWithNotification(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	res, err := env.svc.Create(ctx, 1, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Payment.Status != domain.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", res.Payment.Status)
	}
	if res.Payment.PaymentIntentID != nil {
		t.Fatal("cash payment must not carry an intent id")
	}
	if res.ClientSecret != "" {
		t.Fatal("cash payment must not return a client secret")
	}
	if env.processor.createCalls != 0 {
		t.Fatalf("no processor call expected, got %d", env.processor.createCalls)
	}

	notes, err := env.notifications.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notes))
	}
	if notes[0].ReferenceID != res.Payment.ID {
		t.Fatalf("notification references %d, want %d", notes[0].ReferenceID, res.Payment.ID)
	}
}

func TestCreateCardPaymentRequestsIntentInMinorUnits(t *testing.T) {
	env := newPaymentEnv(t)

	in := validCreateInput()
	in.Amount = decimal.RequireFromString("1200.50")
	in.Method = domain.PaymentMethodCard

	res, err := env.svc.Create(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if env.processor.createCalls != 1 {
		t.Fatalf("expected 1 intent creation, got %d", env.processor.createCalls)
	}
	if env.processor.lastCreate.AmountMinor != 120050 {
		t.Fatalf("expected 120050 minor units, got %d", env.processor.lastCreate.AmountMinor)
	}
	if env.processor.lastCreate.IdempotencyKey == "" {
		t.Fatal("expected an idempotency key on intent creation")
	}
	if env.processor.lastCreate.Metadata["type"] != "rent" {
		t.Fatalf("expected type metadata, got %v", env.processor.lastCreate.Metadata)
	}
	if res.Payment.PaymentIntentID == nil || *res.Payment.PaymentIntentID == "" {
		t.Fatal("card payment must store the intent id")
	}
	if res.ClientSecret == "" {
		t.Fatal("card payment must return the client secret")
	}

	// The secret must not survive into storage.
	stored, err := env.svc.Get(context.Background(), 1, res.Payment.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if strings.Contains(stored.Notes, "secret") {
		t.Fatal("client secret leaked into the record")
	}
}

func TestCreateRejectsForeignReferences(t *testing.T) {
	env := newPaymentEnv(t)

	in := validCreateInput()
	in.LeaseID = 42
	if _, err := env.svc.Create(context.Background(), 1, in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing lease, got %v", err)
	}

	in = validCreateInput()
	if _, err := env.svc.Create(context.Background(), 2, in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner's references, got %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	in := validCreateInput()
	in.Amount = decimal.NewFromInt(-5)
	var verr *ValidationError
	if _, err := env.svc.Create(ctx, 1, in); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}

	in = validCreateInput()
	in.Type = "gift"
	if _, err := env.svc.Create(ctx, 1, in); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for bad type, got %v", err)
	}
}

func TestCreatePropagatesProcessorFailure(t *testing.T) {
	env := newPaymentEnv(t)
	env.processor.createErr = errors.New("stripe unavailable")

	in := validCreateInput()
	in.Method = domain.PaymentMethodCard
	if _, err := env.svc.Create(context.Background(), 1, in); err == nil {
		t.Fatal("expected processor failure to propagate")
	}

	// No half-created local row.
	payments, err := env.svc.List(context.Background(), 1, ListPaymentsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 0 {
		t.Fatalf("expected no rows after failed create, got %d", len(payments))
	}
}

func TestUpdateTerminalPaymentConflicts(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	in := validCreateInput()
	in.Status = domain.PaymentStatusCompleted
	res, err := env.svc.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	notes := "adjusted"
	if _, err := env.svc.Update(ctx, 1, res.Payment.ID, UpdatePaymentInput{Notes: &notes}); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected state conflict editing completed payment, got %v", err)
	}
	if err := env.svc.Delete(ctx, 1, res.Payment.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected state conflict deleting completed payment, got %v", err)
	}

	stored, err := env.svc.Get(ctx, 1, res.Payment.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Notes != "" || stored.Status != domain.PaymentStatusCompleted {
		t.Fatalf("record changed despite conflict: %+v", stored)
	}
}

func TestUpdateCompletedToRefundedIsTheOneAllowedTransition(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	in := validCreateInput()
	in.Method = domain.PaymentMethodCard
	res, err := env.svc.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	completed := domain.PaymentStatusCompleted
	if _, err := env.svc.Update(ctx, 1, res.Payment.ID, UpdatePaymentInput{Status: &completed}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	refunded := domain.PaymentStatusRefunded
	updated, err := env.svc.Update(ctx, 1, res.Payment.ID, UpdatePaymentInput{Status: &refunded})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if updated.Status != domain.PaymentStatusRefunded {
		t.Fatalf("expected refunded, got %s", updated.Status)
	}
	if env.processor.refundCalls != 1 {
		t.Fatalf("expected exactly one refund call, got %d", env.processor.refundCalls)
	}
	if env.processor.lastRefund != *res.Payment.PaymentIntentID {
		t.Fatalf("refunded wrong intent: %s", env.processor.lastRefund)
	}

	// Refunded is final.
	pending := domain.PaymentStatusPending
	if _, err := env.svc.Update(ctx, 1, res.Payment.ID, UpdatePaymentInput{Status: &pending}); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected refunded payment to be frozen, got %v", err)
	}
}

func TestUpdateToCancelledCancelsExternalIntent(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	in := validCreateInput()
	in.Method = domain.PaymentMethodCard
	res, err := env.svc.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled := domain.PaymentStatusCancelled
	if _, err := env.svc.Update(ctx, 1, res.Payment.ID, UpdatePaymentInput{Status: &cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if env.processor.cancelCalls != 1 {
		t.Fatalf("expected one cancellation call, got %d", env.processor.cancelCalls)
	}
}

func TestUpdateStatusChangeEmitsNotification(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	res, err := env.svc.Create(ctx, 1, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	completed := domain.PaymentStatusCompleted
	if _, err := env.svc.Update(ctx, 1, res.Payment.ID, UpdatePaymentInput{Status: &completed}); err != nil {
		t.Fatalf("update: %v", err)
	}

	notes, err := env.notifications.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected create + status notifications, got %d", len(notes))
	}
	var statusNote *domain.Notification
	for i := range notes {
		if notes[i].Kind == domain.NotificationKindPaymentStatus {
			statusNote = &notes[i]
		}
	}
	if statusNote == nil {
		t.Fatal("missing status-change notification")
	}
	if !strings.Contains(statusNote.Body, "pending") || !strings.Contains(statusNote.Body, "completed") {
		t.Fatalf("status notification should record old and new status: %q", statusNote.Body)
	}
}

func TestDeleteCancelsIntentExactlyOnce(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	in := validCreateInput()
	in.Method = domain.PaymentMethodCard
	res, err := env.svc.Create(ctx, 1, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.svc.Delete(ctx, 1, res.Payment.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.processor.cancelCalls != 1 {
		t.Fatalf("expected exactly one cancellation, got %d", env.processor.cancelCalls)
	}
	if _, err := env.svc.Get(ctx, 1, res.Payment.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted payment to be gone, got %v", err)
	}
}

func TestListIgnoresInvalidTypeFilter(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()

	for _, typ := range []domain.PaymentType{domain.PaymentTypeRent, domain.PaymentTypeDeposit} {
		in := validCreateInput()
		in.Type = typ
		if _, err := env.svc.Create(ctx, 1, in); err != nil {
			t.Fatalf("create %s: %v", typ, err)
		}
	}

	all, err := env.svc.List(ctx, 1, ListPaymentsInput{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	filtered, err := env.svc.List(ctx, 1, ListPaymentsInput{Type: "bribes"})
	if err != nil {
		t.Fatalf("list with bad type: %v", err)
	}
	if len(filtered) != len(all) {
		t.Fatalf("invalid type filter must be ignored: all=%d filtered=%d", len(all), len(filtered))
	}

	rentOnly, err := env.svc.List(ctx, 1, ListPaymentsInput{Type: "rent"})
	if err != nil {
		t.Fatalf("list rent: %v", err)
	}
	if len(rentOnly) != 1 {
		t.Fatalf("expected valid filter to apply, got %d", len(rentOnly))
	}
}
