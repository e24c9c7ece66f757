package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusExpired    LeaseStatus = "expired"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

type Lease struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OwnerID     uint            `gorm:"index;not null" json:"owner_id"`
	PropertyID  uint            `gorm:"index;not null" json:"property_id"`
	TenantID    uint            `gorm:"index;not null" json:"tenant_id"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     time.Time       `gorm:"not null" json:"end_date"`
	MonthlyRent decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"monthly_rent"`
	Deposit     decimal.Decimal `gorm:"type:decimal(10,2)" json:"deposit"`
	Status      LeaseStatus     `gorm:"size:32;not null;default:active" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
