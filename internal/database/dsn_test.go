package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1&_busy_timeout=5000", dsn)

	dsn, err = buildSQLiteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Contains(t, dsn, "file::memory:")

	path := filepath.Join(t.TempDir(), "data", "resumine.db")
	dsn, err = buildSQLiteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Contains(t, dsn, filepath.ToSlash(path))
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=5000")
	require.DirExists(t, filepath.Dir(path))

	dsn, err = buildSQLiteDSN(Config{DSN: "file:custom.db?_foreign_keys=1"})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db?_foreign_keys=1", dsn)
}

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User: "resumine",
		Name: "resumine",
	})
	require.NoError(t, err)
	require.Equal(t,
		"application_name=resumine dbname=resumine host=localhost port=5432 sslmode=disable user=resumine",
		dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":          "require",
			"search_path":      "public",
			"application_name": "resumine-worker",
		},
	})
	require.NoError(t, err)

	for _, part := range []string{
		"host=db.example.com",
		"port=6543",
		"user=user",
		"dbname=db",
		"password=pass",
		"sslmode=require",
		"search_path=public",
		"application_name=resumine-worker",
	} {
		require.Contains(t, dsn, part)
	}
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "resumine",
		Name: "resumine",
	})
	require.NoError(t, err)
	require.Equal(t, "resumine@tcp(127.0.0.1:3306)/resumine?charset=utf8mb4&loc=UTC&parseTime=True", dsn)
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options: map[string]string{
			"tls": "skip-verify",
			"loc": "Local",
		},
	})
	require.NoError(t, err)

	require.Contains(t, dsn, "user:secret@tcp(db.example.com:3307)/db?")
	require.Contains(t, dsn, "charset=utf8mb4")
	require.Contains(t, dsn, "parseTime=True")
	require.Contains(t, dsn, "tls=skip-verify")
	require.Contains(t, dsn, "loc=Local")
	require.NotContains(t, dsn, "loc=UTC")
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}
