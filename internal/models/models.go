// Package models defines the core data structures for the supplier bot.
//
// It includes catalog entries mirrored from the external sheet, customer
// profiles, and the inbound/outbound message types shared across modules.
package models

import (
	"errors"
	"time"
)

// Status describes the availability of a catalog entry. The values are the
// exact strings used in the source sheet's status column.
type Status string

const (
	// StatusInStock marks items currently available for delivery.
	StatusInStock Status = "In-Stock"
	// StatusIncoming marks items that are on the way and can be pre-ordered.
	StatusIncoming Status = "On The Way"
)

// IsValidStatus checks if the given status is a known availability status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusInStock, StatusIncoming:
		return true
	default:
		return false
	}
}

// Error variables for better error handling and testability
var (
	ErrNoOperator      = errors.New("no operator chat configured")
	ErrEmptyToken      = errors.New("bot token cannot be empty")
	ErrImageFetch      = errors.New("image fetch failed")
	ErrUnknownCustomer = errors.New("no customer recorded for message")
)

// CatalogEntry is one sellable item snapshot fetched verbatim from the
// external sheet. Entries are immutable; a refresh replaces the whole set.
type CatalogEntry struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Price    string `json:"price"`          // decimal-as-text, currency-agnostic
	Unit     string `json:"unit,omitempty"` // e.g. "box", "bottle"
	Quantity string `json:"quantity"`       // quantity on hand, source-supplied
	Status   Status `json:"status"`
	Expiry   string `json:"expiry,omitempty"`
}

// CustomerProfile holds the delivery details a customer registers on their
// first order. Keyed by the stable Telegram user identifier.
type CustomerProfile struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EventKind classifies an inbound event from the message channel.
type EventKind string

const (
	// EventCommand is a slash command such as /start or /refresh.
	EventCommand EventKind = "command"
	// EventText is a free-text message.
	EventText EventKind = "text"
	// EventCallback is a button press carrying an opaque payload.
	EventCallback EventKind = "callback"
	// EventReply is a text message sent as a reply to an earlier message.
	EventReply EventKind = "reply"
)

// Event is one inbound occurrence delivered by the message channel.
type Event struct {
	Kind      EventKind `json:"kind"`
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	Text      string    `json:"text,omitempty"`        // message text or command name
	Data      string    `json:"data,omitempty"`        // callback payload
	MessageID int       `json:"message_id"`            // id of the inbound message
	ReplyToID int       `json:"reply_to_id,omitempty"` // for replies, the replied-to message
	Time      int64     `json:"time"`
}

// MessageRef identifies a message previously sent to or received from a chat.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

// Button is an inline control attached to an outbound message. Payload is
// echoed back verbatim in a callback event when the button is pressed.
type Button struct {
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// Controls describes the interactive elements attached to an outbound message.
type Controls struct {
	Buttons []Button `json:"buttons,omitempty"` // inline buttons, one per row
	Menu    []string `json:"menu,omitempty"`    // persistent keyboard labels, one per row
}
