package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yomasupply/supplierbot/internal/models"
)

// DefaultTTL is how long a snapshot is served before the next lookup refetches.
const DefaultTTL = 5 * time.Minute

// Column offsets in the source sheet (0-based). These are a contract with the
// sheet layout and must not shift silently.
const (
	colName   = 1
	colImage  = 3
	colPrice  = 5
	colUnit   = 7
	colQty    = 11
	colStatus = 12
	colExpiry = 13

	// minColumns is the smallest row that still carries every required cell.
	minColumns = 13
)

// CacheOption defines a configuration option for the catalog cache.
type CacheOption func(*Cache)

// WithTTL sets the snapshot time-to-live.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// Cache is a time-boxed read-through cache over a RowSource. Lookups within
// the TTL never touch the source; once stale, the next lookup refetches and
// replaces the snapshot wholesale. A failed refetch leaves the previous
// snapshot in place, so readers keep getting stale-but-available data.
type Cache struct {
	source RowSource
	ttl    time.Duration

	mu        sync.Mutex
	snapshot  map[models.Status][]models.CatalogEntry
	fetchedAt time.Time
}

// NewCache creates a catalog cache over the given row source.
func NewCache(source RowSource, opts ...CacheOption) *Cache {
	c := &Cache{
		source: source,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("catalog cache created", "ttl", c.ttl)
	return c
}

// GetByStatus returns the entries for the given availability status. Unknown
// statuses yield an empty slice. The call never fails: if the source is
// unreachable the previous snapshot is served, or nothing if no fetch has
// ever succeeded.
func (c *Cache) GetByStatus(ctx context.Context, status models.Status) []models.CatalogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil || time.Since(c.fetchedAt) >= c.ttl {
		if err := c.refreshLocked(ctx); err != nil {
			slog.Error("catalog refresh failed, serving previous snapshot", "error", err, "stale", c.snapshot != nil)
		}
	}

	return c.snapshot[status]
}

// ForceRefresh refetches the source regardless of snapshot age. On failure the
// existing snapshot is left untouched and the error is returned so the
// manual-refresh command path can report it.
func (c *Cache) ForceRefresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// refreshLocked fetches, parses, and replaces the snapshot. Caller holds c.mu.
func (c *Cache) refreshLocked(ctx context.Context) error {
	rows, err := c.source.FetchRows(ctx)
	if err != nil {
		return err
	}

	grouped := make(map[models.Status][]models.CatalogEntry)
	skipped := 0
	if len(rows) > 1 {
		for _, row := range rows[1:] { // first row is the header
			entry, ok := parseRow(row)
			if !ok {
				skipped++
				continue
			}
			if !models.IsValidStatus(entry.Status) {
				skipped++
				continue
			}
			grouped[entry.Status] = append(grouped[entry.Status], entry)
		}
	}

	c.snapshot = grouped
	c.fetchedAt = time.Now()
	slog.Info("catalog snapshot replaced",
		"in_stock", len(grouped[models.StatusInStock]),
		"incoming", len(grouped[models.StatusIncoming]),
		"skipped", skipped)
	return nil
}

// parseRow converts one sheet row into a catalog entry. Rows with too few
// cells or an empty name are rejected.
func parseRow(row []string) (models.CatalogEntry, bool) {
	if len(row) < minColumns {
		return models.CatalogEntry{}, false
	}

	name := strings.TrimSpace(row[colName])
	if name == "" {
		return models.CatalogEntry{}, false
	}

	entry := models.CatalogEntry{
		Name:     name,
		ImageURL: strings.TrimSpace(row[colImage]),
		Price:    strings.TrimPrefix(strings.TrimSpace(row[colPrice]), "K"),
		Unit:     strings.TrimSpace(row[colUnit]),
		Quantity: strings.TrimSpace(row[colQty]),
		Status:   models.Status(strings.TrimSpace(row[colStatus])),
	}
	if len(row) > colExpiry {
		entry.Expiry = strings.TrimSpace(row[colExpiry])
	}
	return entry, true
}
