package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	sqlmysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const applicationName = "wifipass"

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// buildPostgresDSN renders a postgres:// URL and checks it parses with pgx before gorm dials.
func buildPostgresDSN(cfg Config) (string, error) {
	dsn := cfg.DSN
	if dsn == "" {
		if cfg.User == "" || cfg.Name == "" {
			return "", errors.New("postgres configuration requires user and database name")
		}

		query := url.Values{}
		query.Set("sslmode", "disable")
		query.Set("application_name", applicationName)
		for key, value := range cfg.Options {
			query.Set(key, value)
		}

		u := url.URL{
			Scheme:   "postgres",
			User:     url.User(cfg.User),
			Host:     net.JoinHostPort(valueOr(cfg.Host, "localhost"), strconv.Itoa(portOr(cfg.Port, 5432))),
			Path:     "/" + cfg.Name,
			RawQuery: query.Encode(),
		}
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		dsn = u.String()
	}

	if _, err := pgconn.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("postgres dsn: %w", err)
	}
	return dsn, nil
}

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormConfig())
}

// buildMySQLDSN produces a go-sql-driver DSN. Timestamps are stored and parsed as UTC.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		if _, err := sqlmysql.ParseDSN(cfg.DSN); err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		return cfg.DSN, nil
	}

	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	dsnCfg := sqlmysql.NewConfig()
	dsnCfg.User = cfg.User
	dsnCfg.Passwd = cfg.Password
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = net.JoinHostPort(valueOr(cfg.Host, "127.0.0.1"), strconv.Itoa(portOr(cfg.Port, 3306)))
	dsnCfg.DBName = cfg.Name
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC
	dsnCfg.Timeout = 10 * time.Second
	dsnCfg.Params = map[string]string{"charset": "utf8mb4"}
	for key, value := range cfg.Options {
		dsnCfg.Params[key] = value
	}

	return dsnCfg.FormatDSN(), nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func portOr(port, fallback int) int {
	if port <= 0 {
		return fallback
	}
	return port
}
