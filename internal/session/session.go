// Package session tracks per-user conversational state for the registration
// dialog. Sessions live in process memory only; a restart drops them.
package session

import (
	"log/slog"
	"sync"

	"github.com/yomasupply/supplierbot/internal/models"
)

// Mode identifies the current step of a user's conversation.
type Mode string

const (
	// ModeIdle indicates there is no active dialog with the user.
	ModeIdle Mode = "idle"
	// ModeCollectingName indicates the bot is waiting for the recipient name.
	ModeCollectingName Mode = "collecting_name"
	// ModeCollectingPhone indicates the bot is waiting for the phone number.
	ModeCollectingPhone Mode = "collecting_phone"
	// ModeCollectingAddress indicates the bot is waiting for the delivery address.
	ModeCollectingAddress Mode = "collecting_address"
)

// Session holds one user's dialog step and the scratch fields collected so
// far, plus a pointer to the product message the pending order refers to.
type Session struct {
	Mode           Mode
	PendingName    string
	PendingPhone   string
	PendingAddress string
	PendingOrder   *models.MessageRef
	ListingIDs     []models.MessageRef // product messages from the last listing, for cleanup
}

// Collecting reports whether the session is in a registration-dialog step.
func (s Session) Collecting() bool {
	switch s.Mode {
	case ModeCollectingName, ModeCollectingPhone, ModeCollectingAddress:
		return true
	default:
		return false
	}
}

// Store keeps one session per user. Updates replace the whole session value,
// so no reader ever observes a partially-updated session.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]Session)}
}

// Get returns the session for the given user, or an idle session if none exists.
func (st *Store) Get(userID int64) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		return Session{Mode: ModeIdle}
	}
	return s
}

// Set replaces the session for the given user in one step.
func (st *Store) Set(userID int64, s Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[userID] = s
	slog.Debug("session updated", "user_id", userID, "mode", s.Mode)
}

// Clear resets the user's session to idle and drops all scratch fields.
func (st *Store) Clear(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
	slog.Debug("session cleared", "user_id", userID)
}
