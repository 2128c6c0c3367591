package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{
		Secret: "test-secret",
		Issuer: "resumine",
	})
	require.NoError(t, err)

	token, err := svc.IssueAccessToken("user-1", "session-1", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "session-1", claims.SessionID)
	require.Equal(t, "resumine", claims.Issuer)
	require.Equal(t, "ada@example.com", claims.Email)
	require.Equal(t, "session-1", claims.ID)
}

func TestJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	current := time.Now()

	svc, err := NewJWTService(JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.IssueAccessToken("user-1", "", "")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRejectsWrongIssuer(t *testing.T) {
	issuing, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "other"})
	require.NoError(t, err)

	validating, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "resumine"})
	require.NoError(t, err)

	token, err := issuing.IssueAccessToken("user-1", "", "")
	require.NoError(t, err)

	_, err = validating.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRejectsTamperedToken(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "different-secret"})
	require.NoError(t, err)

	token, err := other.IssueAccessToken("user-1", "", "")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}
