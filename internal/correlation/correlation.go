// Package correlation maps outbound operator-facing messages back to the
// customers that triggered them, so an operator reply can be routed.
package correlation

import (
	"log/slog"
	"sync"
)

// DefaultCapacity bounds the number of retained entries. The original design
// grew without bound for the process lifetime; a capped store with
// oldest-first eviction keeps reply routing working for every recent order
// while holding memory flat.
const DefaultCapacity = 10000

// Opts holds configuration options for the correlation store.
type Opts struct {
	Capacity int
}

// Option defines a configuration option for the correlation store.
type Option func(*Opts)

// WithCapacity sets the maximum number of retained entries.
func WithCapacity(n int) Option {
	return func(o *Opts) {
		o.Capacity = n
	}
}

// Store records which customer each forwarded order summary belongs to.
// Record is additive: an existing entry is never overwritten.
type Store struct {
	mu       sync.RWMutex
	entries  map[int]int64
	order    []int // insertion order, oldest first, for eviction
	capacity int
}

// NewStore creates an empty correlation store.
func NewStore(opts ...Option) *Store {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Store{
		entries:  make(map[int]int64),
		capacity: cfg.Capacity,
	}
}

// Record associates an outbound message identifier with the customer that
// originated it. If the identifier is already recorded, the existing entry is
// kept. When the store is full, the oldest entry is evicted.
func (s *Store) Record(messageID int, customerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[messageID]; exists {
		slog.Warn("correlation entry already recorded, keeping existing", "message_id", messageID)
		return
	}

	for len(s.entries) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
		slog.Debug("correlation entry evicted", "message_id", oldest)
	}

	s.entries[messageID] = customerID
	s.order = append(s.order, messageID)
	slog.Debug("correlation entry recorded", "message_id", messageID, "customer_id", customerID)
}

// Lookup returns the customer recorded for the given message identifier. The
// second return value distinguishes "not found" from a zero customer id.
func (s *Store) Lookup(messageID int) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customerID, ok := s.entries[messageID]
	return customerID, ok
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
