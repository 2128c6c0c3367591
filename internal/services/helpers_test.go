package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/resumine/resumine/internal/database"
	"github.com/resumine/resumine/internal/models"
	"github.com/resumine/resumine/pkg/crypto"
	"github.com/resumine/resumine/pkg/mail"
)

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

func seedUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()

	hashed := ""
	if password != "" {
		var err error
		hashed, err = crypto.HashPassword(password)
		require.NoError(t, err)
	}

	user := &models.User{Email: email, Password: hashed, Name: "Ada Lovelace", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

// recordingMailer captures outbound messages and can be told to fail.
type recordingMailer struct {
	messages []mail.Message
	failNext bool
}

var errMailDown = errors.New("smtp unreachable")

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.failNext {
		m.failNext = false
		return errMailDown
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) lastBody(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.messages)
	return m.messages[len(m.messages)-1].Body
}
