package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resumine/resumine/internal/auth"
	"github.com/resumine/resumine/internal/models"
	"github.com/resumine/resumine/internal/services"
	"github.com/resumine/resumine/pkg/crypto"
	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/logger"
	"github.com/resumine/resumine/pkg/metrics"
	"github.com/resumine/resumine/pkg/response"
)

// AuthHandler serves sign-up, sign-in, token refresh and sign-out.
type AuthHandler struct {
	local    *auth.LocalAuthenticator
	google   *auth.GoogleAuthenticator
	sessions *auth.SessionService
	users    *services.UserService
	log      *zap.Logger
}

func NewAuthHandler(local *auth.LocalAuthenticator, google *auth.GoogleAuthenticator, sessions *auth.SessionService, users *services.UserService) *AuthHandler {
	return &AuthHandler{
		local:    local,
		google:   google,
		sessions: sessions,
		users:    users,
		log:      logger.WithModule("auth_handler"),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"omitempty,max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type googleCallbackRequest struct {
	Code string `json:"code" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	payload, ok := bindAndValidate[registerRequest](c)
	if !ok {
		return
	}

	if failures := services.CheckPassword(payload.Password, nil); len(failures) > 0 {
		response.ErrorWithDetails(c, apperrors.New("WEAK_PASSWORD", "Password does not meet the requirements", http.StatusBadRequest), failures)
		return
	}

	user, err := h.local.Register(auth.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if errors.Is(err, auth.ErrEmailTaken) {
		response.Error(c, apperrors.ErrEmailTaken)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Registration failed"))
		return
	}

	pair, _, err := h.sessions.CreateSession(user.ID, sessionMetadata(c, user))
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Registration failed"))
		return
	}

	response.Success(c, http.StatusCreated, signedInPayload(user, pair))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	payload, ok := bindAndValidate[loginRequest](c)
	if !ok {
		return
	}

	user, err := h.local.Authenticate(auth.AuthenticateInput{
		Email:     payload.Email,
		Password:  payload.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			response.Error(c, apperrors.ErrAccountLocked)
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountDisabled):
			// Disabled accounts get the generic message on purpose.
			response.Error(c, apperrors.ErrInvalidCredentials)
		default:
			response.Error(c, apperrors.Wrap(err, "Sign in failed"))
		}
		return
	}

	pair, _, err := h.sessions.CreateSession(user.ID, sessionMetadata(c, user))
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.Wrap(err, "Sign in failed"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, signedInPayload(user, pair))
}

// GoogleURL handles GET /auth/google and returns the consent URL.
func (h *AuthHandler) GoogleURL(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		generated, err := crypto.GenerateToken(16)
		if err != nil {
			response.Error(c, apperrors.Wrap(err, "Sign in failed"))
			return
		}
		state = generated
	}

	url, err := h.google.AuthCodeURL(state)
	if errors.Is(err, auth.ErrGoogleDisabled) {
		response.Error(c, apperrors.New("GOOGLE_DISABLED", "Google sign-in is not available", http.StatusNotFound))
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Sign in failed"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"url": url, "state": state})
}

// GoogleCallback handles POST /auth/google/callback with the authorization code.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	payload, ok := bindAndValidate[googleCallbackRequest](c)
	if !ok {
		return
	}

	user, err := h.google.HandleCallback(c.Request.Context(), payload.Code)
	if errors.Is(err, auth.ErrGoogleDisabled) {
		response.Error(c, apperrors.New("GOOGLE_DISABLED", "Google sign-in is not available", http.StatusNotFound))
		return
	}
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.log.Warn("google callback failed", zap.Error(err))
		response.Error(c, apperrors.ErrUnauthorized.WithInternal(err))
		return
	}

	pair, _, err := h.sessions.CreateSession(user.ID, sessionMetadata(c, user))
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Sign in failed"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, signedInPayload(user, pair))
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	payload, ok := bindAndValidate[refreshRequest](c)
	if !ok {
		return
	}

	pair, session, err := h.sessions.RefreshSession(payload.RefreshToken)
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    session.ExpiresAt,
	})
}

// Logout handles POST /auth/logout for the authenticated session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := currentSessionID(c)
	if sessionID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(sessionID); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		response.Error(c, apperrors.Wrap(err, "Sign out failed"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Signed out"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), currentUserID(c))
	if errors.Is(err, services.ErrUserNotFound) {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "Could not load account"))
		return
	}

	response.Success(c, http.StatusOK, user)
}

// ChangePassword handles POST /auth/change-password for signed-in users.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	payload, ok := bindAndValidate[changePasswordRequest](c)
	if !ok {
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), currentUserID(c), payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		var weak *services.WeakPasswordError
		switch {
		case errors.As(err, &weak):
			response.ErrorWithDetails(c, apperrors.New("WEAK_PASSWORD", "Password does not meet the requirements", http.StatusBadRequest), weak.Failures)
		case errors.Is(err, services.ErrWrongPassword):
			response.Error(c, apperrors.New("WRONG_PASSWORD", "Current password is incorrect", http.StatusBadRequest))
		default:
			response.Error(c, apperrors.Wrap(err, "Could not change password"))
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password updated"})
}

func sessionMetadata(c *gin.Context, user *models.User) auth.SessionMetadata {
	return auth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Email:     user.Email,
	}
}

func signedInPayload(user *models.User, pair auth.TokenPair) gin.H {
	return gin.H{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}
}
