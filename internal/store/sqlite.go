// Package store provides storage backends for customer profiles.
//
// This file implements the SQLite-backed profile store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/yomasupply/supplierbot/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists customer profiles in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetProfile returns the stored profile, or (nil, nil) when absent.
func (s *SQLiteStore) GetProfile(telegramID int64) (*models.CustomerProfile, error) {
	row := s.db.QueryRow(
		`SELECT telegram_id, username, first_name, name, phone, address, created_at, updated_at
		 FROM customer_profiles WHERE telegram_id = ?`, telegramID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetProfile failed", "error", err, "telegram_id", telegramID)
		return nil, fmt.Errorf("failed to get profile for %d: %w", telegramID, err)
	}
	return p, nil
}

// UpsertProfile creates or replaces the profile keyed by TelegramID.
func (s *SQLiteStore) UpsertProfile(p models.CustomerProfile) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO customer_profiles (telegram_id, username, first_name, name, phone, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(telegram_id) DO UPDATE SET
		   username = excluded.username,
		   first_name = excluded.first_name,
		   name = excluded.name,
		   phone = excluded.phone,
		   address = excluded.address,
		   updated_at = excluded.updated_at`,
		p.TelegramID, p.Username, p.FirstName, p.Name, p.Phone, p.Address, now, now)
	if err != nil {
		slog.Error("SQLiteStore UpsertProfile failed", "error", err, "telegram_id", p.TelegramID)
		return fmt.Errorf("failed to upsert profile for %d: %w", p.TelegramID, err)
	}
	slog.Debug("SQLiteStore UpsertProfile succeeded", "telegram_id", p.TelegramID)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
