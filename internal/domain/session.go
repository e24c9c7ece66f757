package domain

import "time"

// Session is a server-tracked proof of authentication. A session is
// valid exactly while now < ExpiresAt; revocation sets ExpiresAt to the
// revocation instant rather than deleting the row, so a revoked session
// is indistinguishable from an expired one to readers.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	TokenHash string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	IP        string    `gorm:"size:64" json:"ip"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
