package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/resumine/resumine/internal/models"
	"github.com/resumine/resumine/pkg/crypto"
	"github.com/resumine/resumine/pkg/logger"
	"github.com/resumine/resumine/pkg/mail"
	"github.com/resumine/resumine/pkg/metrics"
)

const (
	resetCodeDigits = 6
	resetTokenBytes = 32
)

// DefaultResetCodeTTL bounds how long an issued code and token stay valid.
const DefaultResetCodeTTL = 10 * time.Minute

// DefaultResendWindow is the minimum gap between two code requests for the
// same email address.
const DefaultResendWindow = 2 * time.Minute

var (
	// ErrDeliveryFailed indicates the verification email could not be sent.
	// The reset record created for it is rolled back before this is returned.
	ErrDeliveryFailed = errors.New("password reset: code delivery failed")
	// ErrRateLimited is the sentinel matched by RateLimitedError.
	ErrRateLimited = errors.New("password reset: rate limited")
	// ErrInvalidOrExpiredCode covers a wrong, already verified, already used,
	// or expired code. The causes are deliberately not distinguished so the
	// response cannot be used to guess valid codes.
	ErrInvalidOrExpiredCode = errors.New("password reset: invalid or expired code")
	// ErrInvalidToken means no reset request carries the presented token.
	ErrInvalidToken = errors.New("password reset: invalid token")
	// ErrTokenExpired means the request exists but its validity window passed.
	ErrTokenExpired = errors.New("password reset: token expired")
	// ErrNotVerified means the code step was skipped for this token.
	ErrNotVerified = errors.New("password reset: code not verified")
	// ErrAlreadyUsed means the token already completed a password change.
	ErrAlreadyUsed = errors.New("password reset: token already used")
	// ErrAccountNotFound marks an internal inconsistency where a reset request
	// points at an email with no account behind it.
	ErrAccountNotFound = errors.New("password reset: account not found")
)

// RateLimitedError carries the remaining wait before a new code may be
// requested. It matches ErrRateLimited under errors.Is.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("password reset: rate limited, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// ResetConfig describes tunable behaviour for the PasswordResetService.
// Generators and the clock are injectable for tests; zero values fall back to
// crypto/rand and time.Now.
type ResetConfig struct {
	CodeTTL      time.Duration
	ResendWindow time.Duration
	Clock        func() time.Time
	CodeFunc     func() (string, error)
	TokenFunc    func() (string, error)
	Rules        []PasswordRule
	EmailFrom    string
	AppName      string
}

// PasswordResetService drives the three step reset flow: request a code,
// verify it, then complete the password change with the continuation token.
type PasswordResetService struct {
	db        *gorm.DB
	mailer    mail.Mailer
	codeTTL   time.Duration
	resendGap time.Duration
	now       func() time.Time
	genCode   func() (string, error)
	genToken  func() (string, error)
	rules     []PasswordRule
	emailFrom string
	appName   string
	log       *zap.Logger
}

// NewPasswordResetService wires the reset flow against the given database and
// mail transport.
func NewPasswordResetService(db *gorm.DB, mailer mail.Mailer, cfg ResetConfig) (*PasswordResetService, error) {
	if db == nil {
		return nil, errors.New("password reset service: db is required")
	}
	if mailer == nil {
		return nil, errors.New("password reset service: mailer is required")
	}

	ttl := cfg.CodeTTL
	if ttl <= 0 {
		ttl = DefaultResetCodeTTL
	}

	gap := cfg.ResendWindow
	if gap <= 0 {
		gap = DefaultResendWindow
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	genCode := cfg.CodeFunc
	if genCode == nil {
		genCode = func() (string, error) { return crypto.GeneratePIN(resetCodeDigits) }
	}

	genToken := cfg.TokenFunc
	if genToken == nil {
		genToken = func() (string, error) { return crypto.GenerateToken(resetTokenBytes) }
	}

	rules := cfg.Rules
	if len(rules) == 0 {
		rules = DefaultPasswordRules()
	}

	appName := cfg.AppName
	if appName == "" {
		appName = "Resumine"
	}

	return &PasswordResetService{
		db:        db,
		mailer:    mailer,
		codeTTL:   ttl,
		resendGap: gap,
		now:       clock,
		genCode:   genCode,
		genToken:  genToken,
		rules:     rules,
		emailFrom: cfg.EmailFrom,
		appName:   appName,
		log:       logger.WithModule("password_reset"),
	}, nil
}

// RequestCode creates a reset request for the email and delivers its code.
//
// When no account owns the email the call still reports success without
// creating anything, so the response cannot be used to enumerate accounts.
// A second request inside the resend window fails with RateLimitedError, and
// a failed email delivery rolls the freshly created record back.
func (s *PasswordResetService) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		metrics.PasswordResets.WithLabelValues("request", "failure").Inc()
		return errors.New("password reset service: email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Uniform success for unknown addresses.
		metrics.PasswordResets.WithLabelValues("request", "success").Inc()
		return nil
	}
	if err != nil {
		metrics.PasswordResets.WithLabelValues("request", "failure").Inc()
		return fmt.Errorf("password reset service: lookup account: %w", err)
	}

	code, err := s.genCode()
	if err != nil {
		metrics.PasswordResets.WithLabelValues("request", "failure").Inc()
		return fmt.Errorf("password reset service: generate code: %w", err)
	}

	token, err := s.genToken()
	if err != nil {
		metrics.PasswordResets.WithLabelValues("request", "failure").Inc()
		return fmt.Errorf("password reset service: generate token: %w", err)
	}

	now := s.now()
	request := &models.ResetRequest{
		Email:     email,
		Token:     token,
		Code:      code,
		ExpiresAt: now.Add(s.codeTTL),
		CreatedAt: now,
	}

	// The rate-limit check and the insert share one transaction, with the
	// account row locked first so two near-simultaneous requests cannot
	// both pass the window check. A plain SELECT inside the transaction is
	// not enough on postgres or mysql at read committed: a window query
	// that matches no rows locks nothing, and both requests would insert.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAccountRow(tx, user.ID); err != nil {
			return fmt.Errorf("password reset service: lock account: %w", err)
		}

		var latest models.ResetRequest
		err := tx.Where("email = ? AND created_at > ?", email, now.Add(-s.resendGap)).
			Order("created_at DESC").
			Take(&latest).Error
		if err == nil {
			retryAt := latest.CreatedAt.Add(s.resendGap)
			return &RateLimitedError{RetryAfter: retryAt.Sub(now)}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("password reset service: check rate limit: %w", err)
		}

		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("password reset service: create request: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			metrics.PasswordResets.WithLabelValues("request", "rate_limited").Inc()
		} else {
			metrics.PasswordResets.WithLabelValues("request", "failure").Inc()
		}
		return err
	}

	if err := s.mailer.Send(ctx, s.codeMessage(&user, code)); err != nil {
		// No record may survive a failed delivery.
		if delErr := s.db.WithContext(ctx).Delete(&models.ResetRequest{}, "id = ?", request.ID).Error; delErr != nil {
			s.log.Error("rollback reset request after mail failure",
				zap.String("request_id", request.ID),
				zap.Error(delErr))
		}
		metrics.PasswordResets.WithLabelValues("request", "failure").Inc()
		s.log.Warn("reset code delivery failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	metrics.PasswordResets.WithLabelValues("request", "success").Inc()
	return nil
}

// VerifyCode checks the code against the most recent live request for the
// email, marks it verified and returns the continuation token. A code is
// single use for verification: a second call with the same code fails because
// the verified filter no longer matches.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || !validResetCode(code) {
		metrics.PasswordResets.WithLabelValues("verify", "failure").Inc()
		return "", ErrInvalidOrExpiredCode
	}

	now := s.now()

	var token string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.ResetRequest
		err := tx.Where(
			"email = ? AND code = ? AND verified = ? AND used = ? AND expires_at >= ?",
			email, code, false, false, now,
		).
			Order("created_at DESC").
			Take(&request).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOrExpiredCode
		}
		if err != nil {
			return fmt.Errorf("password reset service: lookup request: %w", err)
		}

		// RowsAffected guards the race where two calls resolve the same row.
		result := tx.Model(&models.ResetRequest{}).
			Where("id = ? AND verified = ?", request.ID, false).
			Update("verified", true)
		if result.Error != nil {
			return fmt.Errorf("password reset service: mark verified: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvalidOrExpiredCode
		}

		token = request.Token
		return nil
	})
	if err != nil {
		metrics.PasswordResets.WithLabelValues("verify", "failure").Inc()
		return "", err
	}

	metrics.PasswordResets.WithLabelValues("verify", "success").Inc()
	return token, nil
}

// CompleteReset validates the continuation token and the password policy, then
// applies the password change. The password update, the used flag and the
// removal of every sibling request for the email commit as one transaction.
// Returns the account whose password changed so callers can revoke its
// sessions.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, newPassword string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, ErrInvalidToken
	}

	if failures := CheckPassword(newPassword, s.rules); len(failures) > 0 {
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, &WeakPasswordError{Failures: failures}
	}

	now := s.now()

	var request models.ResetRequest
	err := s.db.WithContext(ctx).Where("token = ?", token).Take(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, ErrInvalidToken
	}
	if err != nil {
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, fmt.Errorf("password reset service: lookup token: %w", err)
	}

	switch {
	case request.ExpiresAt.Before(now):
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, ErrTokenExpired
	case !request.Verified:
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, ErrNotVerified
	case request.Used:
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, ErrAlreadyUsed
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("LOWER(email) = ?", request.Email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("reset request references missing account",
			zap.String("request_id", request.ID),
			zap.String("email", request.Email))
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, ErrAccountNotFound
	}
	if err != nil {
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, fmt.Errorf("password reset service: lookup account: %w", err)
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, fmt.Errorf("password reset service: hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ResetRequest{}).
			Where("id = ? AND used = ?", request.ID, false).
			Update("used", true)
		if result.Error != nil {
			return fmt.Errorf("password reset service: mark used: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// A concurrent completion won the race.
			return ErrAlreadyUsed
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("password", hashed).Error; err != nil {
			return fmt.Errorf("password reset service: update password: %w", err)
		}

		if err := tx.Where("email = ? AND id <> ?", request.Email, request.ID).
			Delete(&models.ResetRequest{}).Error; err != nil {
			return fmt.Errorf("password reset service: remove sibling requests: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.PasswordResets.WithLabelValues("complete", "failure").Inc()
		return nil, err
	}

	user.Password = hashed
	metrics.PasswordResets.WithLabelValues("complete", "success").Inc()
	s.log.Info("password reset completed", zap.String("user_id", user.ID))
	return &user, nil
}

func (s *PasswordResetService) codeMessage(user *models.User, code string) mail.Message {
	name := user.Name
	if name == "" {
		name = "there"
	}

	return mail.Message{
		From:    s.emailFrom,
		To:      []string{user.Email},
		Subject: fmt.Sprintf("%s password reset code", s.appName),
		Body: fmt.Sprintf(
			"Hi %s,\r\n\r\nYour %s verification code is %s. It expires in %d minutes.\r\n\r\nIf you did not request a password reset you can ignore this email.\r\n",
			name, s.appName, code, int(s.codeTTL.Minutes()),
		),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validResetCode(code string) bool {
	if len(code) != resetCodeDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// lockAccountRow takes a FOR UPDATE lock on the user row, serialising all
// reset requests for one account. sqlite rejects the clause and does not
// need it, its single writer already serialises the transactions.
func lockAccountRow(tx *gorm.DB, userID string) error {
	if tx.Dialector.Name() == "sqlite" {
		return nil
	}

	var locked models.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Take(&locked, "id = ?", userID).Error
}
