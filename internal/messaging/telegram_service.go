package messaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yomasupply/supplierbot/internal/models"
	tele "gopkg.in/telebot.v4"
)

// Constants for TelegramService configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
	// DefaultPollTimeout is the long-poll timeout for the Telegram API
	DefaultPollTimeout = 10 * time.Second
	// DefaultImageFetchTimeout bounds one product image download before the
	// caller falls back to a text-only rendering
	DefaultImageFetchTimeout = 10 * time.Second
	// MaxImageBytes caps how much of an image response is read into memory
	MaxImageBytes = 10 << 20
)

// Opts holds configuration options for the Telegram service.
type Opts struct {
	Token       string
	ImageClient *http.Client
}

// Option defines a configuration option for the Telegram service.
type Option func(*Opts)

// WithToken sets the bot API token.
func WithToken(token string) Option {
	return func(o *Opts) {
		o.Token = token
	}
}

// WithImageClient sets the HTTP client used to download product images.
func WithImageClient(c *http.Client) Option {
	return func(o *Opts) {
		o.ImageClient = c
	}
}

// TelegramService implements Service using the telebot long-polling client.
type TelegramService struct {
	bot         *tele.Bot
	imageClient *http.Client
	events      chan models.Event
	done        chan struct{}
	stopOnce    sync.Once
}

// NewTelegramService creates a TelegramService and registers its update handlers.
func NewTelegramService(opts ...Option) (*TelegramService, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		return nil, models.ErrEmptyToken
	}
	if cfg.ImageClient == nil {
		cfg.ImageClient = &http.Client{Timeout: DefaultImageFetchTimeout}
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: DefaultPollTimeout},
	})
	if err != nil {
		slog.Error("TelegramService failed to create bot", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	s := &TelegramService{
		bot:         bot,
		imageClient: cfg.ImageClient,
		events:      make(chan models.Event, DefaultChannelBufferSize),
		done:        make(chan struct{}),
	}
	s.registerHandlers()
	slog.Debug("TelegramService created", "bot_username", bot.Me.Username)
	return s, nil
}

// registerHandlers wires telebot updates into the event channel.
func (s *TelegramService) registerHandlers() {
	s.bot.Handle("/start", func(c tele.Context) error {
		s.pushEvent(commandEvent(c, "start"))
		return nil
	})

	s.bot.Handle("/refresh", func(c tele.Context) error {
		s.pushEvent(commandEvent(c, "refresh"))
		return nil
	})

	s.bot.Handle(tele.OnText, func(c tele.Context) error {
		ev := models.Event{
			Kind:      models.EventText,
			UserID:    c.Sender().ID,
			ChatID:    c.Chat().ID,
			Username:  c.Sender().Username,
			FirstName: c.Sender().FirstName,
			Text:      c.Message().Text,
			MessageID: c.Message().ID,
			Time:      c.Message().Unixtime,
		}
		if c.Message().ReplyTo != nil {
			ev.Kind = models.EventReply
			ev.ReplyToID = c.Message().ReplyTo.ID
		}
		s.pushEvent(ev)
		return nil
	})

	s.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		ev := models.Event{
			Kind:      models.EventCallback,
			UserID:    cb.Sender.ID,
			Username:  cb.Sender.Username,
			FirstName: cb.Sender.FirstName,
			Data:      strings.TrimPrefix(cb.Data, "\f"),
			Time:      time.Now().Unix(),
		}
		if cb.Message != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.ID
		}
		s.pushEvent(ev)
		// Acknowledge the press so the client stops its spinner.
		return c.Respond()
	})
}

// commandEvent builds a command event from a telebot context.
func commandEvent(c tele.Context, name string) models.Event {
	return models.Event{
		Kind:      models.EventCommand,
		UserID:    c.Sender().ID,
		ChatID:    c.Chat().ID,
		Username:  c.Sender().Username,
		FirstName: c.Sender().FirstName,
		Text:      name,
		MessageID: c.Message().ID,
		Time:      c.Message().Unixtime,
	}
}

// pushEvent forwards an event to the channel without blocking the poller.
func (s *TelegramService) pushEvent(ev models.Event) {
	select {
	case s.events <- ev:
		slog.Debug("TelegramService event forwarded", "kind", ev.Kind, "user_id", ev.UserID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TelegramService event channel blocked, dropping event", "kind", ev.Kind, "user_id", ev.UserID, "timeout", DefaultChannelTimeout)
	}
}

// Start begins long polling for updates.
func (s *TelegramService) Start(ctx context.Context) error {
	slog.Info("TelegramService starting long polling")
	go s.bot.Start()
	go func() {
		select {
		case <-ctx.Done():
			s.shutdown()
		case <-s.done:
		}
	}()
	return nil
}

// Stop stops polling and closes the event channel.
func (s *TelegramService) Stop() error {
	slog.Info("TelegramService Stop invoked")
	s.shutdown()
	return nil
}

// shutdown stops the poller once and closes the channels consumers wait on.
func (s *TelegramService) shutdown() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.bot.Stop()
		close(s.events)
	})
}

// Events returns the channel of inbound events.
func (s *TelegramService) Events() <-chan models.Event {
	return s.events
}

// SendText sends a text message with optional controls.
func (s *TelegramService) SendText(ctx context.Context, chatID int64, text string, controls *models.Controls) (models.MessageRef, error) {
	msg, err := s.bot.Send(tele.ChatID(chatID), text, sendOptions(controls))
	if err != nil {
		slog.Error("TelegramService SendText failed", "error", err, "chat_id", chatID)
		return models.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return models.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

// SendPhoto downloads the image and sends it with the caption. Any failure is
// returned so the caller can fall back to a text rendering.
func (s *TelegramService) SendPhoto(ctx context.Context, chatID int64, imageURL, caption string, controls *models.Controls) (models.MessageRef, error) {
	data, err := s.fetchImage(ctx, imageURL)
	if err != nil {
		return models.MessageRef{}, err
	}

	photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(data)), Caption: caption}
	msg, err := s.bot.Send(tele.ChatID(chatID), photo, sendOptions(controls))
	if err != nil {
		slog.Error("TelegramService SendPhoto failed", "error", err, "chat_id", chatID)
		return models.MessageRef{}, fmt.Errorf("failed to send photo: %w", err)
	}
	return models.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

// fetchImage downloads an image within the configured timeout.
func (s *TelegramService) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrImageFetch, err)
	}
	resp, err := s.imageClient.Do(req)
	if err != nil {
		slog.Warn("TelegramService image download failed", "error", err, "url", imageURL)
		return nil, fmt.Errorf("%w: %v", models.ErrImageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("TelegramService image download bad status", "status", resp.StatusCode, "url", imageURL)
		return nil, fmt.Errorf("%w: status %d", models.ErrImageFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrImageFetch, err)
	}
	return data, nil
}

// Forward re-broadcasts an existing message verbatim to another chat.
func (s *TelegramService) Forward(ctx context.Context, toChatID int64, msg models.MessageRef) (models.MessageRef, error) {
	fwd, err := s.bot.Forward(tele.ChatID(toChatID), storedMessage(msg))
	if err != nil {
		slog.Error("TelegramService Forward failed", "error", err, "to_chat_id", toChatID, "message_id", msg.MessageID)
		return models.MessageRef{}, fmt.Errorf("failed to forward message: %w", err)
	}
	return models.MessageRef{ChatID: toChatID, MessageID: fwd.ID}, nil
}

// ClearControls removes the inline keyboard from a sent message.
func (s *TelegramService) ClearControls(ctx context.Context, msg models.MessageRef) error {
	if _, err := s.bot.EditReplyMarkup(storedMessage(msg), nil); err != nil {
		slog.Debug("TelegramService ClearControls failed", "error", err, "message_id", msg.MessageID)
		return fmt.Errorf("failed to clear controls: %w", err)
	}
	return nil
}

// Delete removes a message from its chat.
func (s *TelegramService) Delete(ctx context.Context, msg models.MessageRef) error {
	if err := s.bot.Delete(storedMessage(msg)); err != nil {
		slog.Debug("TelegramService Delete failed", "error", err, "message_id", msg.MessageID)
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// storedMessage adapts a MessageRef to telebot's Editable interface.
func storedMessage(msg models.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(msg.MessageID), ChatID: msg.ChatID}
}

// sendOptions converts Controls into telebot send options.
func sendOptions(controls *models.Controls) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if controls == nil {
		return opts
	}

	markup := &tele.ReplyMarkup{}
	switch {
	case len(controls.Menu) > 0:
		markup.ResizeKeyboard = true
		rows := make([][]tele.ReplyButton, 0, len(controls.Menu))
		for _, label := range controls.Menu {
			rows = append(rows, []tele.ReplyButton{{Text: label}})
		}
		markup.ReplyKeyboard = rows
	case len(controls.Buttons) > 0:
		rows := make([][]tele.InlineButton, 0, len(controls.Buttons))
		for _, b := range controls.Buttons {
			rows = append(rows, []tele.InlineButton{{Text: b.Label, Data: b.Payload}})
		}
		markup.InlineKeyboard = rows
	}
	opts.ReplyMarkup = markup
	return opts
}
