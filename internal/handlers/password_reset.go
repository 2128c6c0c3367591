package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resumine/resumine/internal/auth"
	"github.com/resumine/resumine/internal/services"
	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/logger"
	"github.com/resumine/resumine/pkg/response"
)

// PasswordResetHandler exposes the three step reset flow over HTTP.
type PasswordResetHandler struct {
	resets   *services.PasswordResetService
	sessions *auth.SessionService
	log      *zap.Logger
}

// NewPasswordResetHandler builds the handler. sessions may be nil in tests;
// when present, completed resets revoke the account's live sessions.
func NewPasswordResetHandler(resets *services.PasswordResetService, sessions *auth.SessionService) *PasswordResetHandler {
	return &PasswordResetHandler{
		resets:   resets,
		sessions: sessions,
		log:      logger.WithModule("password_reset_handler"),
	}
}

type requestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,resetcode"`
}

type completeResetRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// RequestCode handles POST /auth/password-reset/request. The response is the
// same whether or not an account exists for the email.
func (h *PasswordResetHandler) RequestCode(c *gin.Context) {
	payload, ok := bindAndValidate[requestCodeRequest](c)
	if !ok {
		return
	}

	if err := h.resets.RequestCode(c.Request.Context(), payload.Email); err != nil {
		response.Error(c, mapResetError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "If an account exists for that email, a verification code has been sent.",
	})
}

// VerifyCode handles POST /auth/password-reset/verify and returns the
// continuation token on success.
func (h *PasswordResetHandler) VerifyCode(c *gin.Context) {
	payload, ok := bindAndValidate[verifyCodeRequest](c)
	if !ok {
		return
	}

	token, err := h.resets.VerifyCode(c.Request.Context(), payload.Email, payload.Code)
	if err != nil {
		response.Error(c, mapResetError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token})
}

// CompleteReset handles POST /auth/password-reset/complete.
func (h *PasswordResetHandler) CompleteReset(c *gin.Context) {
	payload, ok := bindAndValidate[completeResetRequest](c)
	if !ok {
		return
	}

	user, err := h.resets.CompleteReset(c.Request.Context(), payload.Token, payload.Password)
	if err != nil {
		var weak *services.WeakPasswordError
		if errors.As(err, &weak) {
			response.ErrorWithDetails(c, apperrors.New("WEAK_PASSWORD", "Password does not meet the requirements", http.StatusBadRequest), weak.Failures)
			return
		}
		response.Error(c, mapResetError(err))
		return
	}

	// The password changed out of band of any signed-in device, so existing
	// sessions stop being trustworthy.
	if h.sessions != nil {
		if _, err := h.sessions.RevokeUserSessions(user.ID); err != nil {
			h.log.Error("revoke sessions after reset", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Password updated. Please sign in with your new password.",
	})
}

func mapResetError(err error) error {
	var limited *services.RateLimitedError
	if errors.As(err, &limited) {
		appErr := apperrors.New("RATE_LIMITED", "Please wait before requesting another code", http.StatusTooManyRequests)
		return appErr.WithInternal(err)
	}

	switch {
	case errors.Is(err, services.ErrDeliveryFailed):
		return apperrors.New("DELIVERY_FAILED", "Could not send the verification email. Please try again later.", http.StatusInternalServerError).WithInternal(err)
	case errors.Is(err, services.ErrInvalidOrExpiredCode):
		return apperrors.New("INVALID_OR_EXPIRED_CODE", "Invalid or expired verification code", http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidToken):
		return apperrors.New("INVALID_TOKEN", "Invalid reset token", http.StatusBadRequest)
	case errors.Is(err, services.ErrTokenExpired):
		return apperrors.New("TOKEN_EXPIRED", "This reset request has expired. Please start over.", http.StatusBadRequest)
	case errors.Is(err, services.ErrNotVerified):
		return apperrors.New("NOT_VERIFIED", "Verify the emailed code before resetting your password", http.StatusBadRequest)
	case errors.Is(err, services.ErrAlreadyUsed):
		return apperrors.New("ALREADY_USED", "This reset link has already been used", http.StatusBadRequest)
	case errors.Is(err, services.ErrAccountNotFound):
		return apperrors.ErrInternalServer.WithInternal(err)
	default:
		return apperrors.Wrap(err, "Password reset failed")
	}
}
