// Package store provides storage backends for customer profiles.
//
// This file implements the PostgreSQL-backed profile store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
	"github.com/yomasupply/supplierbot/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists customer profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetProfile returns the stored profile, or (nil, nil) when absent.
func (s *PostgresStore) GetProfile(telegramID int64) (*models.CustomerProfile, error) {
	row := s.db.QueryRow(
		`SELECT telegram_id, username, first_name, name, phone, address, created_at, updated_at
		 FROM customer_profiles WHERE telegram_id = $1`, telegramID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetProfile failed", "error", err, "telegram_id", telegramID)
		return nil, fmt.Errorf("failed to get profile for %d: %w", telegramID, err)
	}
	return p, nil
}

// UpsertProfile creates or replaces the profile keyed by TelegramID.
func (s *PostgresStore) UpsertProfile(p models.CustomerProfile) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO customer_profiles (telegram_id, username, first_name, name, phone, address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (telegram_id) DO UPDATE SET
		   username = EXCLUDED.username,
		   first_name = EXCLUDED.first_name,
		   name = EXCLUDED.name,
		   phone = EXCLUDED.phone,
		   address = EXCLUDED.address,
		   updated_at = EXCLUDED.updated_at`,
		p.TelegramID, p.Username, p.FirstName, p.Name, p.Phone, p.Address, now, now)
	if err != nil {
		slog.Error("PostgresStore UpsertProfile failed", "error", err, "telegram_id", p.TelegramID)
		return fmt.Errorf("failed to upsert profile for %d: %w", p.TelegramID, err)
	}
	slog.Debug("PostgresStore UpsertProfile succeeded", "telegram_id", p.TelegramID)
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
