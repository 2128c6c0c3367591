package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/resumine/resumine/internal/models"
	"github.com/resumine/resumine/pkg/crypto"
)

var (
	// ErrInvalidCredentials is returned when the supplied email/password pair is invalid.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals that the user has exceeded the permitted failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
	// ErrAccountDisabled signals that the user has been deactivated.
	ErrAccountDisabled = errors.New("auth: account disabled")
	// ErrEmailTaken is returned when registering with an email that already has an account.
	ErrEmailTaken = errors.New("auth: email already registered")
)

// LocalConfig defines tunable behaviour for the local authenticator.
type LocalConfig struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	Clock            func() time.Time
}

// AuthenticateInput contains metadata required to authenticate a local user.
type AuthenticateInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// RegisterInput captures the details required to register a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LocalAuthenticator implements email/password authentication with account lockout controls.
type LocalAuthenticator struct {
	db        *gorm.DB
	clock     func() time.Time
	threshold int
	duration  time.Duration
}

// NewLocalAuthenticator builds an authenticator with sane defaults.
func NewLocalAuthenticator(db *gorm.DB, cfg LocalConfig) (*LocalAuthenticator, error) {
	if db == nil {
		return nil, errors.New("local auth: db is required")
	}

	threshold := cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = 5
	}

	duration := cfg.LockoutDuration
	if duration <= 0 {
		duration = 15 * time.Minute
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LocalAuthenticator{
		db:        db,
		clock:     clock,
		threshold: threshold,
		duration:  duration,
	}, nil
}

// Authenticate verifies the supplied credentials and returns the associated user when successful.
func (a *LocalAuthenticator) Authenticate(input AuthenticateInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := a.db.Where("LOWER(email) = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local auth: query user: %w", err)
	}

	now := a.clock()

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}

	// Unlock the account if the lockout duration has elapsed.
	if user.LockedUntil != nil && !user.LockedUntil.After(now) {
		user.LockedUntil = nil
		user.FailedAttempts = 0
		if err := a.db.Model(&user).Updates(map[string]any{
			"locked_until":    nil,
			"failed_attempts": 0,
		}).Error; err != nil {
			return nil, fmt.Errorf("local auth: reset lock state: %w", err)
		}
	}

	// Google-only accounts have no stored password and cannot sign in locally.
	if user.Password == "" || !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, a.handleFailedAttempt(&user, now)
	}

	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = strings.TrimSpace(input.IPAddress)

	if err := a.db.Model(&user).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"last_login_ip":   user.LastLoginIP,
	}).Error; err != nil {
		return nil, fmt.Errorf("local auth: update user: %w", err)
	}

	return &user, nil
}

func (a *LocalAuthenticator) handleFailedAttempt(user *models.User, now time.Time) error {
	user.FailedAttempts++

	updates := map[string]any{
		"failed_attempts": user.FailedAttempts,
	}

	if user.FailedAttempts >= a.threshold {
		lockUntil := now.Add(a.duration)
		user.LockedUntil = &lockUntil
		updates["locked_until"] = lockUntil
	}

	if err := a.db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("local auth: update failed attempts: %w", err)
	}

	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return ErrAccountLocked
	}

	return ErrInvalidCredentials
}

// Register creates a new account with a hashed password and an empty profile
// row, mirroring the behaviour of the original sign-up flow.
func (a *LocalAuthenticator) Register(input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, errors.New("local auth: email and password are required")
	}

	var existing int64
	if err := a.db.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("local auth: check existing email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("local auth: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: hashed,
		Name:     strings.TrimSpace(input.Name),
		IsActive: true,
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("local auth: create user: %w", err)
		}
		profile := &models.Profile{UserID: user.ID}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("local auth: create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
