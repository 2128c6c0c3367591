package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// busyTimeoutMS keeps concurrent request handlers from failing with
// SQLITE_BUSY while another write transaction (reset requests, session
// rotation) holds the database lock.
const busyTimeoutMS = 5000

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := buildSQLiteDSN(cfg)
	if err != nil {
		return nil, err
	}

	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func buildSQLiteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return fmt.Sprintf("file::memory:?cache=shared&_foreign_keys=1&_busy_timeout=%d", busyTimeoutMS), nil
	}

	if err := ensureDir(path); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=%d",
		filepath.ToSlash(path), busyTimeoutMS,
	), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
