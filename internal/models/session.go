package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is one signed-in device. The refresh token is rotated on every
// refresh; access tokens reference the session through their sid claim.
// A session ends either by revocation (sign-out, completed password reset)
// or by the refresh token expiring unused.
type Session struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RefreshToken string     `gorm:"uniqueIndex;not null" json:"-"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	ExpiresAt    time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt   time.Time  `json:"last_used_at"`
	CreatedAt    time.Time  `json:"created_at"`
	RevokedAt    *time.Time `json:"revoked_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Revoked reports whether the session was explicitly ended.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Active reports whether the session can still refresh.
func (s *Session) Active(now time.Time) bool {
	return !s.Revoked() && now.Before(s.ExpiresAt)
}
