package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/resumine/resumine/internal/models"
	"github.com/resumine/resumine/pkg/crypto"
)

var (
	// ErrUserNotFound indicates that no user matches the identifier.
	ErrUserNotFound = errors.New("user: not found")
	// ErrWrongPassword is returned when the current password check fails.
	ErrWrongPassword = errors.New("user: current password incorrect")
)

// UserService exposes account reads and self-service updates.
type UserService struct {
	db    *gorm.DB
	rules []PasswordRule
}

// NewUserService builds a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, rules: DefaultPasswordRules()}, nil
}

// Get returns the user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// GetByEmail returns the user owning the email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user by email: %w", err)
	}
	return &user, nil
}

// UpdateInput lists the account fields a user may change about themselves.
type UpdateInput struct {
	Name  *string
	Image *string
}

// Update applies the provided fields to the user record.
func (s *UserService) Update(ctx context.Context, id string, input UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Image != nil {
		updates["image"] = strings.TrimSpace(*input.Image)
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new one that
// passes the password policy. Accounts without a stored password (Google only)
// may set one by presenting an empty current password.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if user.Password != "" && !crypto.VerifyPassword(user.Password, currentPassword) {
		return ErrWrongPassword
	}

	if failures := CheckPassword(newPassword, s.rules); len(failures) > 0 {
		return &WeakPasswordError{Failures: failures}
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}
	return nil
}
