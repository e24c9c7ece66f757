package repository

import (
	"github.com/propfolio/propfolio/internal/domain"

	"gorm.io/gorm"
)

// TenancyRepository groups the owner-scoped stores for the entities a
// payment references. The payment flow's existence checks and the plain
// CRUD endpoints both go through these.
type TenancyRepository struct {
	Properties *Store[domain.Property]
	Tenants    *Store[domain.Tenant]
	Leases     *Store[domain.Lease]
}

func NewTenancyRepository(db *gorm.DB) *TenancyRepository {
	return &TenancyRepository{
		Properties: NewStore[domain.Property](db, "property", "owner_id"),
		Tenants:    NewStore[domain.Tenant](db, "tenant", "owner_id"),
		Leases:     NewStore[domain.Lease](db, "lease", "owner_id"),
	}
}
