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

// ErrResumeNotFound covers both a missing resume and one owned by another
// user; callers cannot tell the difference.
var ErrResumeNotFound = errors.New("resume: not found")

// ResumeService manages the resumes users submit for enhancement.
type ResumeService struct {
	db *gorm.DB
}

// NewResumeService builds a ResumeService.
func NewResumeService(db *gorm.DB) (*ResumeService, error) {
	if db == nil {
		return nil, errors.New("resume service: db is required")
	}
	return &ResumeService{db: db}, nil
}

// CreateResumeInput carries the fields accepted when storing a new resume.
type CreateResumeInput struct {
	Title    string
	Content  string
	Sections datatypes.JSON
}

// Create stores a resume for the user.
func (s *ResumeService) Create(ctx context.Context, userID string, input CreateResumeInput) (*models.Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("resume service: user id is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.New("resume service: content is required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled resume"
	}

	resume := &models.Resume{
		UserID:   userID,
		Title:    title,
		Content:  input.Content,
		Sections: input.Sections,
	}

	if err := s.db.WithContext(ctx).Create(resume).Error; err != nil {
		return nil, fmt.Errorf("resume service: create resume: %w", err)
	}
	return resume, nil
}

// List returns the user's resumes, newest first.
func (s *ResumeService) List(ctx context.Context, userID string) ([]models.Resume, error) {
	var resumes []models.Resume
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&resumes).Error
	if err != nil {
		return nil, fmt.Errorf("resume service: list resumes: %w", err)
	}
	return resumes, nil
}

// Get returns one resume with its feedback history, scoped to the owner.
func (s *ResumeService) Get(ctx context.Context, userID, resumeID string) (*models.Resume, error) {
	var resume models.Resume
	err := s.db.WithContext(ctx).
		Preload("Feedback").
		Where("id = ? AND user_id = ?", resumeID, userID).
		Take(&resume).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resume service: get resume: %w", err)
	}
	return &resume, nil
}

// UpdateResumeInput lists the editable resume fields.
type UpdateResumeInput struct {
	Title    *string
	Content  *string
	Sections datatypes.JSON
}

// Update applies edits to a resume the user owns.
func (s *ResumeService) Update(ctx context.Context, userID, resumeID string, input UpdateResumeInput) (*models.Resume, error) {
	resume, err := s.Get(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		resume.Title = strings.TrimSpace(*input.Title)
		updates["title"] = resume.Title
	}
	if input.Content != nil {
		resume.Content = *input.Content
		updates["content"] = resume.Content
	}
	if input.Sections != nil {
		resume.Sections = input.Sections
		updates["sections"] = input.Sections
	}

	if len(updates) == 0 {
		return resume, nil
	}

	if err := s.db.WithContext(ctx).Model(resume).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("resume service: update resume: %w", err)
	}
	return resume, nil
}

// Delete removes a resume and its feedback rows.
func (s *ResumeService) Delete(ctx context.Context, userID, resumeID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", resumeID, userID).Delete(&models.Resume{})
		if result.Error != nil {
			return fmt.Errorf("resume service: delete resume: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrResumeNotFound
		}
		if err := tx.Where("resume_id = ?", resumeID).Delete(&models.Feedback{}).Error; err != nil {
			return fmt.Errorf("resume service: delete feedback: %w", err)
		}
		return nil
	})
}
