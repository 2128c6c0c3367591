package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/resumine/resumine/internal/models"
	"github.com/resumine/resumine/pkg/crypto"
	"github.com/resumine/resumine/pkg/metrics"
)

// DefaultRefreshTokenTTL is the fallback refresh token lifetime. The original
// product kept users signed in for 30 days.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	RefreshTokenTTL time.Duration
	RefreshLength   int
	Clock           func() time.Time
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
	Email     string
}

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

var (
	// ErrSessionNotFound indicates that no session matches the provided token or identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionRevoked marks a session that has been revoked by the user.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that a refresh token has reached its expiry.
	ErrSessionExpired = errors.New("session: expired")
	// ErrSessionInvalidToken is returned when the supplied refresh token is malformed.
	ErrSessionInvalidToken = errors.New("session: invalid token")
)

// SessionService manages creation, rotation, and revocation of user sessions.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	tokenLen   int
	now        func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	ttl := cfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}

	length := cfg.RefreshLength
	if length <= 0 {
		length = 48
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:         db,
		jwt:        jwtService,
		refreshTTL: ttl,
		tokenLen:   length,
		now:        clock,
	}, nil
}

// CreateSession generates a new session and issues a fresh token pair.
func (s *SessionService) CreateSession(userID string, meta SessionMetadata) (TokenPair, *models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return TokenPair{}, nil, errors.New("session service: user id is required")
	}

	refreshToken, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	now := s.now()

	session := &models.Session{
		UserID:       userID,
		RefreshToken: refreshToken,
		IPAddress:    strings.TrimSpace(meta.IPAddress),
		UserAgent:    strings.TrimSpace(meta.UserAgent),
		ExpiresAt:    now.Add(s.refreshTTL),
		LastUsedAt:   now,
	}

	if err := s.db.Create(session).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: create session: %w", err)
	}

	metrics.ActiveSessions.Inc()

	accessToken, err := s.jwt.IssueAccessToken(userID, session.ID, meta.Email)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate access token: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, session, nil
}

// RefreshSession rotates the refresh token and issues a new access token.
func (s *SessionService) RefreshSession(refreshToken string) (TokenPair, *models.Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, nil, ErrSessionInvalidToken
	}

	var session models.Session
	err := s.db.Where("refresh_token = ?", refreshToken).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TokenPair{}, nil, ErrSessionNotFound
	}
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: find session: %w", err)
	}

	now := s.now()

	if session.Revoked() {
		return TokenPair{}, nil, ErrSessionRevoked
	}

	if !session.Active(now) {
		return TokenPair{}, nil, ErrSessionExpired
	}

	newRefresh, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	updates := map[string]any{
		"refresh_token": newRefresh,
		"expires_at":    now.Add(s.refreshTTL),
		"last_used_at":  now,
	}

	if err := s.db.Model(&session).Updates(updates).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: update session: %w", err)
	}

	session.RefreshToken = newRefresh
	session.ExpiresAt = updates["expires_at"].(time.Time)
	session.LastUsedAt = now

	accessToken, err := s.jwt.IssueAccessToken(session.UserID, session.ID, "")
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate access token: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, &session, nil
}

// RevokeSession marks a session as revoked, preventing further refresh operations.
func (s *SessionService) RevokeSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionInvalidToken
	}

	now := s.now()

	result := s.db.Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Updates(map[string]any{
			"revoked_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("session service: revoke session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	metrics.ActiveSessions.Sub(float64(result.RowsAffected))

	return nil
}

// RevokeUserSessions revokes every live session belonging to the user. Invoked
// after a completed password reset so stale sign-ins cannot continue.
func (s *SessionService) RevokeUserSessions(userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("session service: user id is required")
	}

	now := s.now()

	result := s.db.Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]any{
			"revoked_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: revoke user sessions: %w", result.Error)
	}

	metrics.ActiveSessions.Sub(float64(result.RowsAffected))

	return result.RowsAffected, nil
}

// CleanupExpired removes expired or revoked sessions from the store.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()

	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired: %w", result.Error)
	}

	return result.RowsAffected, nil
}
