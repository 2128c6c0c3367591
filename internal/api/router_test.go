package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/resumine/resumine/internal/assistant"
	"github.com/resumine/resumine/internal/auth"
	"github.com/resumine/resumine/internal/database"
	"github.com/resumine/resumine/internal/handlers"
	"github.com/resumine/resumine/internal/services"
	"github.com/resumine/resumine/pkg/mail"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	sessions, err := auth.NewSessionService(db, jwtService, auth.SessionConfig{})
	require.NoError(t, err)

	local, err := auth.NewLocalAuthenticator(db, auth.LocalConfig{})
	require.NoError(t, err)

	google, err := auth.NewGoogleAuthenticator(context.Background(), db, auth.GoogleConfig{})
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)

	profiles, err := services.NewProfileService(db)
	require.NoError(t, err)

	resumes, err := services.NewResumeService(db)
	require.NoError(t, err)

	aiClient, err := assistant.New(assistant.Config{})
	require.NoError(t, err)

	enhance, err := services.NewEnhanceService(db, aiClient, resumes, "")
	require.NoError(t, err)

	mailer, err := mail.NewSMTPMailer(mail.SMTPSettings{})
	require.NoError(t, err)

	resets, err := services.NewPasswordResetService(db, mailer, services.ResetConfig{})
	require.NoError(t, err)

	return NewRouter(Deps{
		JWT:            jwtService,
		Auth:           handlers.NewAuthHandler(local, google, sessions, users),
		Reset:          handlers.NewPasswordResetHandler(resets, sessions),
		Profile:        handlers.NewProfileHandler(profiles),
		Resumes:        handlers.NewResumeHandler(resumes, enhance),
		Assistant:      handlers.NewAssistantHandler(aiClient, nil),
		Health:         handlers.NewHealthHandler(db, "test"),
		MetricsEnabled: true,
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "resumine_")
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/resumes"},
		{http.MethodPost, "/api/v1/assistant/chat"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestRouterPublicResetRoutesMounted(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/password-reset/request", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// Empty body fails validation, not routing.
	require.Equal(t, http.StatusBadRequest, w.Code)
}
