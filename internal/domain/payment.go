package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeRent        PaymentType = "rent"
	PaymentTypeDeposit     PaymentType = "deposit"
	PaymentTypeLateFee     PaymentType = "late_fee"
	PaymentTypeMaintenance PaymentType = "maintenance"
	PaymentTypeUtilities   PaymentType = "utilities"
	PaymentTypeOther       PaymentType = "other"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeRent, PaymentTypeDeposit, PaymentTypeLateFee,
		PaymentTypeMaintenance, PaymentTypeUtilities, PaymentTypeOther:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOther        PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCard,
		PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether a payment in this status may no longer be
// mutated or deleted. Refunding a completed payment is the one carve-out
// and is checked separately via Mutable.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusRefunded
}

// Mutable reports whether an update moving the payment to next is
// permitted from the current status. A completed payment admits exactly
// one further transition, into refunded; a refunded payment admits none.
func (s PaymentStatus) Mutable(next PaymentStatus) bool {
	switch s {
	case PaymentStatusRefunded:
		return false
	case PaymentStatusCompleted:
		return next == PaymentStatusRefunded
	default:
		return true
	}
}

type Payment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OwnerID         uint            `gorm:"index;not null" json:"owner_id"`
	TenantID        uint            `gorm:"index;not null" json:"tenant_id"`
	PropertyID      uint            `gorm:"index;not null" json:"property_id"`
	LeaseID         uint            `gorm:"index;not null" json:"lease_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Type            PaymentType     `gorm:"size:32;not null" json:"type"`
	Method          PaymentMethod   `gorm:"size:32;not null" json:"method"`
	Status          PaymentStatus   `gorm:"size:32;not null;default:pending" json:"status"`
	PaymentIntentID *string         `gorm:"size:128;index" json:"payment_intent_id,omitempty"`
	PaidOn          time.Time       `gorm:"not null" json:"paid_on"`
	Notes           string          `gorm:"size:1024" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MinorUnits converts the payment amount to the processor's integer
// minor-currency representation (amount * 100, rounded).
func (p *Payment) MinorUnits() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
