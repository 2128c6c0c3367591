package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// buildPostgresDSN assembles a keyword/value connection string. The server
// identifies itself to postgres as "resumine" so its sessions stand out in
// pg_stat_activity; both application_name and sslmode yield to the options
// map.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	settings := map[string]string{
		"host":             host,
		"port":             fmt.Sprintf("%d", port),
		"user":             cfg.User,
		"dbname":           cfg.Name,
		"sslmode":          "disable",
		"application_name": "resumine",
	}
	if cfg.Password != "" {
		settings["password"] = cfg.Password
	}
	for key, value := range cfg.Options {
		settings[key] = value
	}

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := make([]string, 0, len(keys))
	for _, key := range keys {
		params = append(params, key+"="+settings[key])
	}
	return strings.Join(params, " "), nil
}
