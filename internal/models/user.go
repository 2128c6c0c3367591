package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User describes a registered account. Password is empty for accounts that
// only ever signed in through Google.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"`

	Name  string `json:"name"`
	Image string `json:"image"`

	GoogleSubject string `gorm:"index" json:"-"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`

	Profile  *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Resumes  []Resume  `gorm:"foreignKey:UserID" json:"-"`
	Sessions []Session `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
