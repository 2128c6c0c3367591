package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    "ada@example.com",
		"password": "Sup3rSecret",
		"name":     "Ada Lovelace",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotEmpty(t, dataField(t, w, "access_token"))
	require.NotEmpty(t, dataField(t, w, "refresh_token"))

	// Duplicate email conflicts.
	w = f.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    "ada@example.com",
		"password": "An0therPass",
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "Sup3rSecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    "ada@example.com",
		"password": "weak",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "WEAK_PASSWORD", errorCode(t, w))
}

func TestMeAndLogout(t *testing.T) {
	f := newAPIFixture(t)
	registerUser(t, f, "ada@example.com")

	w := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "OldPass1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	access, _ := dataField(t, w, "access_token").(string)
	refresh, _ := dataField(t, w, "refresh_token").(string)
	headers := map[string]string{"Authorization": "Bearer " + access}

	w = f.do(t, http.MethodGet, "/auth/me", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ada@example.com", dataField(t, w, "email"))

	w = f.do(t, http.MethodPost, "/auth/logout", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	// The revoked session cannot refresh.
	w = f.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	registerUser(t, f, "ada@example.com")

	w := f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "OldPass1",
	}, nil)
	access, _ := dataField(t, w, "access_token").(string)
	headers := map[string]string{"Authorization": "Bearer " + access}

	w = f.do(t, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "wrong",
		"new_password":     "NewPass1",
	}, headers)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "WRONG_PASSWORD", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": "OldPass1",
		"new_password":     "NewPass1",
	}, headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "NewPass1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGoogleURLWhenDisabled(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/auth/google", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "GOOGLE_DISABLED", errorCode(t, w))
}
