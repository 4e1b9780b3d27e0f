// Package db opens the gorm connection to the after_market database.
package db

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const retryInterval = 3 * time.Second

// Config holds the Postgres connection settings.
type Config struct {
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	SSLMode      string
	InstanceName string // Cloud SQL instance; uses the unix socket when set
	URL          string // DATABASE_URL; overrides every other field when set
}

// LoadConfigFromEnv reads the DB_* variables, INSTANCE_CONNECTION_NAME and DATABASE_URL.
func LoadConfigFromEnv() Config {
	cfg := Config{
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		SSLMode:      os.Getenv("DB_SSLMODE"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		URL:          os.Getenv("DATABASE_URL"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg
}

// BuildDSN returns a libpq keyword/value DSN for cfg.
func BuildDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	if cfg.InstanceName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.InstanceName, cfg.User, cfg.Password, cfg.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// ConnectWithRetry calls opener every 3 seconds until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(retryInterval)
	}
}

// OpenPostgres opens a Postgres connection. Driver errors are translated
// so that gorm.ErrDuplicatedKey can be matched.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// OpenSQLite opens a local SQLite database at path. ":memory:" is accepted.
// The pool is limited to one connection so that an in-memory database is shared.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}

// OpenDB connects to Postgres using the environment, waiting up to 60 seconds.
func OpenDB() (*gorm.DB, error) {
	return ConnectWithRetry(BuildDSN(LoadConfigFromEnv()), 60*time.Second, OpenPostgres)
}
