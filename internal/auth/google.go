package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/resumine/resumine/internal/models"
)

const googleIssuer = "https://accounts.google.com"

// ErrGoogleDisabled is returned when Google sign-in has not been configured.
var ErrGoogleDisabled = errors.New("auth: google sign-in disabled")

// GoogleConfig holds the OAuth client settings for Google sign-in.
type GoogleConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// idTokenVerifier abstracts the go-oidc verifier for tests.
type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// codeExchanger abstracts the oauth2 code exchange for tests.
type codeExchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
}

// googleClaims is the subset of the Google ID token we consume.
type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleAuthenticator signs users in via Google's OIDC flow and provisions
// local accounts on first sign-in.
type GoogleAuthenticator struct {
	db       *gorm.DB
	verifier idTokenVerifier
	oauth    codeExchanger
	enabled  bool
}

// NewGoogleAuthenticator discovers Google's OIDC endpoints and prepares the
// OAuth client. When cfg.Enabled is false the authenticator is inert and all
// operations return ErrGoogleDisabled.
func NewGoogleAuthenticator(ctx context.Context, db *gorm.DB, cfg GoogleConfig) (*GoogleAuthenticator, error) {
	if db == nil {
		return nil, errors.New("google auth: db is required")
	}

	if !cfg.Enabled {
		return &GoogleAuthenticator{db: db}, nil
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google auth: client id and secret are required")
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google auth: discover provider: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	return &GoogleAuthenticator{
		db:       db,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth:    oauthCfg,
		enabled:  true,
	}, nil
}

// Enabled reports whether Google sign-in is configured.
func (g *GoogleAuthenticator) Enabled() bool {
	return g.enabled
}

// AuthCodeURL builds the Google consent URL for the given CSRF state.
func (g *GoogleAuthenticator) AuthCodeURL(state string) (string, error) {
	if !g.enabled {
		return "", ErrGoogleDisabled
	}
	return g.oauth.AuthCodeURL(state), nil
}

// HandleCallback exchanges the authorization code, verifies the ID token and
// returns the matching local user, creating one on first sign-in.
func (g *GoogleAuthenticator) HandleCallback(ctx context.Context, code string) (*models.User, error) {
	if !g.enabled {
		return nil, ErrGoogleDisabled
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google auth: exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google auth: response missing id_token")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google auth: verify id token: %w", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google auth: decode claims: %w", err)
	}

	return g.resolveUser(claims)
}

func (g *GoogleAuthenticator) resolveUser(claims googleClaims) (*models.User, error) {
	if claims.Subject == "" {
		return nil, errors.New("google auth: token missing subject")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google auth: email not verified by provider")
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, errors.New("google auth: token missing email")
	}

	var user models.User
	err := g.db.Where("google_subject = ?", claims.Subject).Take(&user).Error
	if err == nil {
		return &user, g.refreshProfile(&user, claims)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("google auth: query user: %w", err)
	}

	// Link by email when an account already exists from local sign-up.
	err = g.db.Where("LOWER(email) = ?", email).Take(&user).Error
	if err == nil {
		user.GoogleSubject = claims.Subject
		if updateErr := g.db.Model(&user).Update("google_subject", claims.Subject).Error; updateErr != nil {
			return nil, fmt.Errorf("google auth: link account: %w", updateErr)
		}
		return &user, g.refreshProfile(&user, claims)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("google auth: query user by email: %w", err)
	}

	user = models.User{
		Email:         email,
		Name:          claims.Name,
		Image:         claims.Picture,
		GoogleSubject: claims.Subject,
		IsActive:      true,
	}

	err = g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("google auth: create user: %w", err)
		}
		profile := &models.Profile{UserID: user.ID}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("google auth: create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// refreshProfile keeps name and avatar in sync with the provider on each sign-in.
func (g *GoogleAuthenticator) refreshProfile(user *models.User, claims googleClaims) error {
	updates := map[string]any{}
	if claims.Name != "" && claims.Name != user.Name {
		updates["name"] = claims.Name
		user.Name = claims.Name
	}
	if claims.Picture != "" && claims.Picture != user.Image {
		updates["image"] = claims.Picture
		user.Image = claims.Picture
	}
	if len(updates) == 0 {
		return nil
	}
	if err := g.db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("google auth: refresh profile: %w", err)
	}
	return nil
}
