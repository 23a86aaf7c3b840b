// Package store provides storage backends for customer profiles.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backed implementations selected by DSN.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/yomasupply/supplierbot/internal/models"
)

// Store is the keyed lookup/upsert service for customer profiles.
type Store interface {
	// GetProfile returns the profile for the given Telegram user id, or
	// (nil, nil) when no profile exists.
	GetProfile(telegramID int64) (*models.CustomerProfile, error)
	// UpsertProfile creates or replaces the profile keyed by TelegramID.
	UpsertProfile(p models.CustomerProfile) error
	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration options for database-backed stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports which driver a DSN belongs to: "postgres" for
// URL-style or key=value connection strings, "sqlite3" for file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// InMemoryStore is a simple map-backed profile store.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]models.CustomerProfile
}

// NewInMemoryStore creates an empty in-memory profile store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[int64]models.CustomerProfile)}
}

// GetProfile returns the stored profile, or (nil, nil) when absent.
func (s *InMemoryStore) GetProfile(telegramID int64) (*models.CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[telegramID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UpsertProfile creates or replaces the profile keyed by TelegramID.
func (s *InMemoryStore) UpsertProfile(p models.CustomerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.profiles[p.TelegramID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.TelegramID] = p
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
