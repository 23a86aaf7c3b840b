// Package messaging provides the message-channel abstraction for the
// supplier bot and its Telegram implementation.
package messaging

import (
	"context"

	"github.com/yomasupply/supplierbot/internal/models"
)

// Service defines a pluggable bidirectional message channel.
// It supports the outbound operations the orchestrator needs and provides a
// channel of inbound events.
type Service interface {
	// SendText sends a text message, optionally with interactive controls.
	SendText(ctx context.Context, chatID int64, text string, controls *models.Controls) (models.MessageRef, error)

	// SendPhoto sends a photo with a caption. The implementation fetches the
	// image itself; a fetch or delivery failure is returned as an error so the
	// caller can degrade to a text-only rendering.
	SendPhoto(ctx context.Context, chatID int64, imageURL, caption string, controls *models.Controls) (models.MessageRef, error)

	// Forward re-broadcasts an existing message verbatim to another chat.
	Forward(ctx context.Context, toChatID int64, msg models.MessageRef) (models.MessageRef, error)

	// ClearControls removes the interactive controls from a sent message.
	ClearControls(ctx context.Context, msg models.MessageRef) error

	// Delete removes a message from its chat.
	Delete(ctx context.Context, msg models.MessageRef) error

	// Start begins background processing (e.g., polling for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Events returns a channel of inbound events.
	Events() <-chan models.Event
}
