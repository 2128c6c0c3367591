package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetRequest is one outstanding password-reset attempt.
//
// Rows are keyed by email rather than user id so that a request survives even
// if the account record is replaced, matching the lookup order of the flow:
// code and token are always resolved against the email they were issued for.
// Verified and Used only ever transition false to true; expiry is enforced by
// comparing ExpiresAt on every read, never by a background sweep.
type ResetRequest struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Email string `gorm:"index:idx_reset_requests_email_created;not null" json:"email"`

	// Token authorises the final password change once the code has been
	// verified. Code is the 6-digit secret delivered by email.
	Token string `gorm:"uniqueIndex;not null" json:"-"`
	Code  string `gorm:"not null" json:"-"`

	Verified bool `gorm:"default:false" json:"verified"`
	Used     bool `gorm:"default:false" json:"used"`

	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `gorm:"index:idx_reset_requests_email_created" json:"created_at"`
}

func (r *ResetRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the request can still advance through the flow.
func (r *ResetRequest) Active(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}
