package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorStringIncludesInternal(t *testing.T) {
	internal := stdErrors.New("smtp: connection refused")
	err := Wrap(internal, "Could not send email")

	require.Equal(t, "Could not send email: smtp: connection refused", err.Error())
	require.ErrorIs(t, err, internal)
}

func TestWithInternalLeavesSentinelUntouched(t *testing.T) {
	cause := stdErrors.New("record not found")
	wrapped := ErrEmailTaken.WithInternal(cause)

	require.NotSame(t, ErrEmailTaken, wrapped)
	require.Nil(t, ErrEmailTaken.Internal)
	require.Equal(t, ErrEmailTaken.Code, wrapped.Code)
	require.ErrorIs(t, wrapped, cause)
}

func TestFromErrorPassesAppErrorsThrough(t *testing.T) {
	require.Same(t, ErrRateLimit, FromError(ErrRateLimit))

	wrapped := ErrInvalidCredentials.WithInternal(stdErrors.New("bcrypt mismatch"))
	require.Same(t, wrapped, FromError(wrapped))
}

func TestFromErrorMasksUnknownErrors(t *testing.T) {
	raw := stdErrors.New("dial tcp: connection reset")
	out := FromError(raw)

	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.Equal(t, http.StatusInternalServerError, out.StatusCode)
	require.ErrorIs(t, out, raw)
	require.NotContains(t, out.Message, "dial tcp")
}

func TestSentinelStatusCodes(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, ErrUnauthorized.StatusCode)
	require.Equal(t, http.StatusUnauthorized, ErrInvalidCredentials.StatusCode)
	require.Equal(t, http.StatusUnauthorized, ErrAccountLocked.StatusCode)
	require.Equal(t, http.StatusConflict, ErrEmailTaken.StatusCode)
	require.Equal(t, http.StatusTooManyRequests, ErrRateLimit.StatusCode)
}

func TestNewBadRequestKeepsCodeAndStatus(t *testing.T) {
	err := NewBadRequest("Invalid request body")

	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, ErrBadRequest.StatusCode, err.StatusCode)
	require.Equal(t, "Invalid request body", err.Message)
}
