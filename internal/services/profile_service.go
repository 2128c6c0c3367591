package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/resumine/resumine/internal/models"
)

// ErrProfileNotFound indicates that the user has no profile row.
var ErrProfileNotFound = errors.New("profile: not found")

// ProfileService manages the career profiles filled in by the setup wizard.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService builds a ProfileService.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// Get returns the profile belonging to the user, creating an empty row when
// none exists yet. Accounts provisioned before profiles were introduced get
// one lazily.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrProfileNotFound
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("profile service: get profile: %w", err)
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("profile service: check user: %w", err)
	}
	if exists == 0 {
		return nil, ErrProfileNotFound
	}

	profile = models.Profile{UserID: userID}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("profile service: create profile: %w", err)
	}
	return &profile, nil
}

// ProfileInput carries the wizard fields. Nil pointers leave the stored value
// untouched so each wizard step can submit only its own section.
type ProfileInput struct {
	Headline *string
	Bio      *string
	Location *string
	Phone    *string

	Skills     datatypes.JSON
	Links      datatypes.JSON
	Education  datatypes.JSON
	Experience datatypes.JSON
}

// Update applies the submitted wizard fields and recomputes completion.
func (s *ProfileService) Update(ctx context.Context, userID string, input ProfileInput) (*models.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Headline != nil {
		profile.Headline = strings.TrimSpace(*input.Headline)
		updates["headline"] = profile.Headline
	}
	if input.Bio != nil {
		profile.Bio = strings.TrimSpace(*input.Bio)
		updates["bio"] = profile.Bio
	}
	if input.Location != nil {
		profile.Location = strings.TrimSpace(*input.Location)
		updates["location"] = profile.Location
	}
	if input.Phone != nil {
		profile.Phone = strings.TrimSpace(*input.Phone)
		updates["phone"] = profile.Phone
	}
	if input.Skills != nil {
		profile.Skills = input.Skills
		updates["skills"] = input.Skills
	}
	if input.Links != nil {
		profile.Links = input.Links
		updates["links"] = input.Links
	}
	if input.Education != nil {
		profile.Education = input.Education
		updates["education"] = input.Education
	}
	if input.Experience != nil {
		profile.Experience = input.Experience
		updates["experience"] = input.Experience
	}

	if completed := s.isComplete(profile); completed != profile.Completed {
		profile.Completed = completed
		updates["completed"] = completed
	}

	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("profile service: update profile: %w", err)
	}
	return profile, nil
}

// isComplete mirrors the wizard's finish condition: a headline plus at least
// one skill and one experience entry.
func (s *ProfileService) isComplete(profile *models.Profile) bool {
	return profile.Headline != "" &&
		len(profile.Skills) > 0 && string(profile.Skills) != "[]" &&
		len(profile.Experience) > 0 && string(profile.Experience) != "[]"
}
