package database

import (
	"errors"
	"fmt"
	"net/url"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

// buildMySQLDSN assembles a go-sql-driver DSN. Timestamps are parsed in UTC
// since every service writes UTC values; loc can still be overridden through
// the options map.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	credentials := cfg.User
	if cfg.Password != "" {
		credentials += ":" + cfg.Password
	}

	query := url.Values{}
	query.Set("charset", "utf8mb4")
	query.Set("parseTime", "True")
	query.Set("loc", "UTC")
	for key, value := range cfg.Options {
		query.Set(key, value)
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s", credentials, host, port, cfg.Name, query.Encode()), nil
}
