package domain

import "time"

type Property struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"index;not null" json:"owner_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   string    `gorm:"size:512;not null" json:"address"`
	City      string    `gorm:"size:128" json:"city"`
	State     string    `gorm:"size:64" json:"state"`
	Zip       string    `gorm:"size:16" json:"zip"`
	Units     int       `gorm:"not null;default:1" json:"units"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Tenant struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerID    uint      `gorm:"index;not null" json:"owner_id"`
	PropertyID uint      `gorm:"index;not null" json:"property_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255" json:"email"`
	Phone      string    `gorm:"size:32" json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
