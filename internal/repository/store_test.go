package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/propfolio/propfolio/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestStoreOwnerScoping(t *testing.T) {
	db := newDBForTest(t)
	store := NewStore[domain.Property](db, "property", "owner_id")
	ctx := context.Background()

	mine := &domain.Property{OwnerID: 1, Name: "Oak House", Address: "12 Oak St"}
	theirs := &domain.Property{OwnerID: 2, Name: "Elm House", Address: "9 Elm St"}
	if err := store.Create(ctx, mine); err != nil {
		t.Fatalf("create mine: %v", err)
	}
	if err := store.Create(ctx, theirs); err != nil {
		t.Fatalf("create theirs: %v", err)
	}

	if _, err := store.FindForOwner(ctx, 1, theirs.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign row, got %v", err)
	}
	got, err := store.FindForOwner(ctx, 1, mine.ID)
	if err != nil {
		t.Fatalf("find own: %v", err)
	}
	if got.Name != "Oak House" {
		t.Fatalf("unexpected row: %+v", got)
	}

	exists, err := store.ExistsForOwner(ctx, 2, theirs.ID)
	if err != nil || !exists {
		t.Fatalf("expected owned row to exist, exists=%v err=%v", exists, err)
	}
	exists, err = store.ExistsForOwner(ctx, 2, mine.ID)
	if err != nil || exists {
		t.Fatalf("expected foreign row to be invisible, exists=%v err=%v", exists, err)
	}

	if err := store.UpdateForOwner(ctx, 1, theirs.ID, map[string]any{"name": "Stolen"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected update of foreign row to fail, got %v", err)
	}
	if err := store.DeleteForOwner(ctx, 1, mine.ID); err != nil {
		t.Fatalf("delete own: %v", err)
	}
	if err := store.DeleteForOwner(ctx, 1, mine.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}
}

func TestPaymentRepositoryFilters(t *testing.T) {
	db := newDBForTest(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	base := domain.Payment{
		OwnerID:    1,
		TenantID:   10,
		PropertyID: 20,
		LeaseID:    30,
		Amount:     decimal.NewFromInt(500),
		Method:     domain.PaymentMethodCash,
		Status:     domain.PaymentStatusPending,
		PaidOn:     time.Now(),
	}

	rent := base
	rent.Type = domain.PaymentTypeRent
	deposit := base
	deposit.Type = domain.PaymentTypeDeposit
	deposit.Status = domain.PaymentStatusCompleted
	otherProp := base
	otherProp.Type = domain.PaymentTypeRent
	otherProp.PropertyID = 99

	for _, p := range []*domain.Payment{&rent, &deposit, &otherProp} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}

	got, err := repo.ListForOwner(ctx, 1, PaymentFilter{Type: domain.PaymentTypeRent})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rent payments, got %d", len(got))
	}

	got, err = repo.ListForOwner(ctx, 1, PaymentFilter{PropertyID: 20, Status: domain.PaymentStatusCompleted})
	if err != nil {
		t.Fatalf("list by property+status: %v", err)
	}
	if len(got) != 1 || got[0].Type != domain.PaymentTypeDeposit {
		t.Fatalf("unexpected filtered result: %+v", got)
	}

	got, err = repo.ListForOwner(ctx, 2, PaymentFilter{})
	if err != nil {
		t.Fatalf("list foreign owner: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows for other owner, got %d", len(got))
	}
}

func newDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
