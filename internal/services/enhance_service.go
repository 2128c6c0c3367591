package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/resumine/resumine/internal/assistant"
	"github.com/resumine/resumine/internal/models"
	"github.com/resumine/resumine/pkg/logger"
	"github.com/resumine/resumine/pkg/metrics"
)

// ErrEnhanceUnavailable signals that the inference backend rejected or failed
// the request.
var ErrEnhanceUnavailable = errors.New("enhance: assistant unavailable")

const enhancePrompt = `You are an expert resume writer. Review the resume below.
Respond with a JSON object containing exactly two string fields:
"critique" with specific, actionable feedback, and
"enhanced" with a rewritten version of the resume.

Resume:
%s`

// EnhanceService asks the assistant to critique and rewrite a resume and
// records the result as feedback on the resume.
type EnhanceService struct {
	db      *gorm.DB
	client  assistant.Client
	resumes *ResumeService
	model   string
	log     *zap.Logger
}

// NewEnhanceService builds an EnhanceService.
func NewEnhanceService(db *gorm.DB, client assistant.Client, resumes *ResumeService, model string) (*EnhanceService, error) {
	if db == nil {
		return nil, errors.New("enhance service: db is required")
	}
	if client == nil {
		return nil, errors.New("enhance service: assistant client is required")
	}
	if resumes == nil {
		return nil, errors.New("enhance service: resume service is required")
	}

	return &EnhanceService{
		db:      db,
		client:  client,
		resumes: resumes,
		model:   model,
		log:     logger.WithModule("enhance"),
	}, nil
}

// enhanceReply is the JSON shape we ask the model to produce.
type enhanceReply struct {
	Critique string `json:"critique"`
	Enhanced string `json:"enhanced"`
}

// Enhance runs one enhancement pass over the resume and persists the feedback.
func (s *EnhanceService) Enhance(ctx context.Context, userID, resumeID string) (*models.Feedback, error) {
	resume, err := s.resumes.Get(ctx, userID, resumeID)
	if err != nil {
		metrics.EnhanceRequests.WithLabelValues("failure").Inc()
		return nil, err
	}

	reply, err := s.client.Chat(ctx, fmt.Sprintf(enhancePrompt, resume.Content))
	if err != nil {
		metrics.EnhanceRequests.WithLabelValues("failure").Inc()
		s.log.Warn("assistant call failed",
			zap.String("resume_id", resumeID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEnhanceUnavailable, err)
	}

	critique, enhanced := parseEnhanceReply(reply)

	feedback := &models.Feedback{
		ResumeID: resume.ID,
		Critique: critique,
		Enhanced: enhanced,
		Model:    s.model,
	}

	if err := s.db.WithContext(ctx).Create(feedback).Error; err != nil {
		metrics.EnhanceRequests.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("enhance service: save feedback: %w", err)
	}

	metrics.EnhanceRequests.WithLabelValues("success").Inc()
	return feedback, nil
}

// parseEnhanceReply extracts the critique/enhanced pair from the model output.
// Models sometimes wrap JSON in code fences or skip it entirely; when no JSON
// object can be recovered the whole reply is treated as the enhanced text.
func parseEnhanceReply(reply string) (critique, enhanced string) {
	trimmed := strings.TrimSpace(reply)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		var parsed enhanceReply
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err == nil && parsed.Enhanced != "" {
			return parsed.Critique, parsed.Enhanced
		}
	}

	return "", strings.TrimSpace(reply)
}
