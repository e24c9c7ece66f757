package domain

import "time"

type NotificationKind string

const (
	NotificationKindPaymentCreated NotificationKind = "payment_created"
	NotificationKindPaymentStatus  NotificationKind = "payment_status"
)

type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"index;not null" json:"user_id"`
	Kind        NotificationKind `gorm:"size:64;not null" json:"kind"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Body        string           `gorm:"size:1024" json:"body"`
	ReferenceID uint             `gorm:"index" json:"reference_id"`
	Read        bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
