package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/resumine/resumine/internal/auth"
	"github.com/resumine/resumine/internal/database"
	"github.com/resumine/resumine/internal/middleware"
	"github.com/resumine/resumine/internal/services"
	"github.com/resumine/resumine/pkg/mail"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// recordingMailer captures outbound messages.
type recordingMailer struct {
	messages []mail.Message
	failNext bool
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("smtp unreachable")
	}
	m.messages = append(m.messages, msg)
	return nil
}

// apiFixture wires the real services against an in-memory database and mounts
// the handlers the way the router does.
type apiFixture struct {
	router *gin.Engine
	db     *gorm.DB
	mailer *recordingMailer
	now    time.Time
}

func (f *apiFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := newTestDB(t)
	mailer := &recordingMailer{}

	f := &apiFixture{
		db:     db,
		mailer: mailer,
		now:    time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Clock: clock})
	require.NoError(t, err)

	sessions, err := auth.NewSessionService(db, jwtService, auth.SessionConfig{Clock: clock})
	require.NoError(t, err)

	local, err := auth.NewLocalAuthenticator(db, auth.LocalConfig{Clock: clock})
	require.NoError(t, err)

	google, err := auth.NewGoogleAuthenticator(context.Background(), db, auth.GoogleConfig{})
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)

	resets, err := services.NewPasswordResetService(db, mailer, services.ResetConfig{
		Clock:    clock,
		CodeFunc: func() (string, error) { return "123456", nil },
	})
	require.NoError(t, err)

	authHandler := NewAuthHandler(local, google, sessions, users)
	resetHandler := NewPasswordResetHandler(resets, sessions)

	r := gin.New()
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	r.POST("/auth/refresh", authHandler.Refresh)
	r.GET("/auth/google", authHandler.GoogleURL)
	r.POST("/auth/password-reset/request", resetHandler.RequestCode)
	r.POST("/auth/password-reset/verify", resetHandler.VerifyCode)
	r.POST("/auth/password-reset/complete", resetHandler.CompleteReset)

	authed := r.Group("/", middleware.RequireAuth(jwtService))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	f.router = r
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return parsed
}

func dataField(t *testing.T, w *httptest.ResponseRecorder, key string) any {
	t.Helper()

	parsed := decodeBody(t, w)
	data, ok := parsed["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data[key]
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	parsed := decodeBody(t, w)
	errObj, ok := parsed["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	code, _ := errObj["code"].(string)
	return code
}
