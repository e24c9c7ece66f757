package repository

import (
	"context"

	"github.com/propfolio/propfolio/internal/domain"

	"gorm.io/gorm"
)

// PaymentFilter narrows a payment listing. Zero values mean "no
// constraint"; enum validity is the caller's concern (an unrecognized
// type never reaches the query).
type PaymentFilter struct {
	PropertyID uint
	TenantID   uint
	Status     domain.PaymentStatus
	Type       domain.PaymentType
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	FindForOwner(ctx context.Context, ownerID, id uint) (*domain.Payment, error)
	ListForOwner(ctx context.Context, ownerID uint, f PaymentFilter) ([]domain.Payment, error)
	UpdateForOwner(ctx context.Context, ownerID, id uint, fields map[string]any) error
	DeleteForOwner(ctx context.Context, ownerID, id uint) error
}

type GormPaymentRepository struct {
	*Store[domain.Payment]
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{Store: NewStore[domain.Payment](db, "payment", "owner_id")}
}

func (r *GormPaymentRepository) ListForOwner(ctx context.Context, ownerID uint, f PaymentFilter) ([]domain.Payment, error) {
	filters := map[string]any{}
	if f.PropertyID != 0 {
		filters["property_id"] = f.PropertyID
	}
	if f.TenantID != 0 {
		filters["tenant_id"] = f.TenantID
	}
	if f.Status != "" {
		filters["status"] = f.Status
	}
	if f.Type != "" {
		filters["type"] = f.Type
	}
	return r.Store.ListForOwner(ctx, ownerID, filters, "paid_on DESC, id DESC")
}
