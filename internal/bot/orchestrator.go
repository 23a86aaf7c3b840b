// Package bot implements the conversation state machine that turns inbound
// chat events into catalog listings, registration dialogs, and forwarded
// orders, plus the dispatcher that feeds it.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yomasupply/supplierbot/internal/catalog"
	"github.com/yomasupply/supplierbot/internal/correlation"
	"github.com/yomasupply/supplierbot/internal/messaging"
	"github.com/yomasupply/supplierbot/internal/models"
	"github.com/yomasupply/supplierbot/internal/session"
	"github.com/yomasupply/supplierbot/internal/store"
)

// Config identifies the single human operator orders are forwarded to.
type Config struct {
	// OperatorChatID is the operator's private chat. Zero means no operator
	// channel is configured and order intents degrade to a contact notice.
	OperatorChatID int64
	// OperatorUsername is the handle shown in contact instructions.
	OperatorUsername string
}

// Orchestrator coordinates the catalog cache, session store, correlation
// store, and profile store behind the conversational flow.
type Orchestrator struct {
	msg          messaging.Service
	catalog      *catalog.Cache
	sessions     *session.Store
	correlations *correlation.Store
	profiles     store.Store
	cfg          Config
}

// NewOrchestrator creates an orchestrator with its collaborators.
func NewOrchestrator(msg messaging.Service, cat *catalog.Cache, sessions *session.Store, correlations *correlation.Store, profiles store.Store, cfg Config) *Orchestrator {
	slog.Debug("Orchestrator created", "operator_chat_set", cfg.OperatorChatID != 0, "operator_username", cfg.OperatorUsername)
	return &Orchestrator{
		msg:          msg,
		catalog:      cat,
		sessions:     sessions,
		correlations: correlations,
		profiles:     profiles,
		cfg:          cfg,
	}
}

// HandleEvent routes one inbound event. Errors are returned for logging only;
// every user-visible failure is already handled at the point it occurred.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev models.Event) error {
	slog.Debug("Orchestrator handling event", "kind", ev.Kind, "user_id", ev.UserID)
	switch ev.Kind {
	case models.EventCommand:
		switch ev.Text {
		case "start":
			return o.handleStart(ctx, ev)
		case "refresh":
			return o.handleRefresh(ctx, ev)
		default:
			slog.Debug("Orchestrator ignoring unknown command", "command", ev.Text, "user_id", ev.UserID)
			return nil
		}
	case models.EventCallback:
		return o.handleCallback(ctx, ev)
	case models.EventReply:
		return o.handleReply(ctx, ev)
	case models.EventText:
		return o.handleText(ctx, ev)
	default:
		slog.Debug("Orchestrator ignoring unknown event kind", "kind", ev.Kind)
		return nil
	}
}

// handleStart greets the user and installs the status selector keyboard.
func (o *Orchestrator) handleStart(ctx context.Context, ev models.Event) error {
	slog.Info("user started the bot", "user_id", ev.UserID)
	_, err := o.msg.SendText(ctx, ev.ChatID, formatWelcome(ev.FirstName), menuControls())
	return err
}

// handleRefresh force-refetches the catalog. Operator only.
func (o *Orchestrator) handleRefresh(ctx context.Context, ev models.Event) error {
	if o.cfg.OperatorChatID == 0 || ev.UserID != o.cfg.OperatorChatID {
		slog.Warn("refresh rejected for non-operator", "user_id", ev.UserID)
		_, err := o.msg.SendText(ctx, ev.ChatID, msgRefreshDenied, nil)
		return err
	}

	if _, err := o.msg.SendText(ctx, ev.ChatID, msgRefreshStarted, nil); err != nil {
		slog.Error("failed to send refresh notice", "error", err)
	}

	if err := o.catalog.ForceRefresh(ctx); err != nil {
		slog.Error("manual catalog refresh failed", "error", err)
		_, sendErr := o.msg.SendText(ctx, ev.ChatID, formatRefreshFailed(err), nil)
		return sendErr
	}

	slog.Info("catalog refreshed by operator", "user_id", ev.UserID)
	_, err := o.msg.SendText(ctx, ev.ChatID, msgRefreshDone, nil)
	return err
}

// handleText processes free text: a registration answer when a dialog is
// active, otherwise a status selector press or a hint.
func (o *Orchestrator) handleText(ctx context.Context, ev models.Event) error {
	sess := o.sessions.Get(ev.UserID)
	if sess.Collecting() {
		return o.advanceRegistration(ctx, ev, sess)
	}

	switch ev.Text {
	case MenuInStock:
		return o.browse(ctx, ev, models.StatusInStock)
	case MenuIncoming:
		return o.browse(ctx, ev, models.StatusIncoming)
	default:
		_, err := o.msg.SendText(ctx, ev.ChatID, msgMenuHint, nil)
		return err
	}
}

// browse lists the catalog entries for one availability status. Each entry is
// sent as a photo with an order button; image failures degrade to text and
// never abort the listing.
func (o *Orchestrator) browse(ctx context.Context, ev models.Event, status models.Status) error {
	sess := o.sessions.Get(ev.UserID)

	// Drop the previous listing and the selector press to keep the chat tidy.
	// Delete failures are expected (messages age out) and ignored.
	for _, ref := range sess.ListingIDs {
		if err := o.msg.Delete(ctx, ref); err != nil {
			slog.Debug("could not delete old listing message", "error", err, "message_id", ref.MessageID)
		}
	}
	if err := o.msg.Delete(ctx, models.MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID}); err != nil {
		slog.Debug("could not delete selector press", "error", err)
	}

	entries := o.catalog.GetByStatus(ctx, status)
	var listing []models.MessageRef

	if len(entries) == 0 {
		ref, err := o.msg.SendText(ctx, ev.ChatID, formatNoEntries(status), nil)
		if err != nil {
			return err
		}
		sess.ListingIDs = []models.MessageRef{ref}
		o.sessions.Set(ev.UserID, sess)
		return nil
	}

	for _, entry := range entries {
		ref := o.sendEntry(ctx, ev.ChatID, entry)
		if ref.MessageID != 0 {
			listing = append(listing, ref)
		}
	}

	ref, err := o.msg.SendText(ctx, ev.ChatID, formatListingSummary(len(entries), status), nil)
	if err != nil {
		slog.Error("failed to send listing summary", "error", err, "user_id", ev.UserID)
	} else {
		listing = append(listing, ref)
	}

	sess.ListingIDs = listing
	o.sessions.Set(ev.UserID, sess)
	slog.Info("listing sent", "user_id", ev.UserID, "status", status, "count", len(entries))
	return nil
}

// sendEntry sends one catalog entry, preferring a photo rendering and falling
// back to text when the image cannot be fetched or delivered.
func (o *Orchestrator) sendEntry(ctx context.Context, chatID int64, entry models.CatalogEntry) models.MessageRef {
	caption := formatEntry(entry)
	controls := &models.Controls{Buttons: []models.Button{{Label: "🛒 Order", Payload: orderPayload(entry.Name)}}}

	if entry.ImageURL != "" {
		ref, err := o.msg.SendPhoto(ctx, chatID, entry.ImageURL, caption, controls)
		if err == nil {
			return ref
		}
		slog.Warn("photo rendering failed, falling back to text", "error", err, "product", entry.Name)
		caption += "\n\n⚠️ Image not available"
	}

	ref, err := o.msg.SendText(ctx, chatID, caption, controls)
	if err != nil {
		slog.Error("failed to send catalog entry", "error", err, "product", entry.Name)
		return models.MessageRef{}
	}
	return ref
}

// handleCallback processes button presses: order intents, profile reuse or
// edit, and cancellations.
func (o *Orchestrator) handleCallback(ctx context.Context, ev models.Event) error {
	switch {
	case strings.HasPrefix(ev.Data, payloadOrderPrefix):
		return o.handleOrderIntent(ctx, ev)
	case ev.Data == payloadUseSaved:
		return o.handleUseSaved(ctx, ev)
	case ev.Data == payloadEditProfile:
		return o.handleEditProfile(ctx, ev)
	case ev.Data == payloadCancel:
		return o.handleCancel(ctx, ev)
	default:
		slog.Debug("ignoring unknown callback payload", "data", ev.Data, "user_id", ev.UserID)
		return nil
	}
}

// handleOrderIntent records which product message the order refers to, then
// either starts the registration dialog or offers the saved profile.
func (o *Orchestrator) handleOrderIntent(ctx context.Context, ev models.Event) error {
	sess := o.sessions.Get(ev.UserID)
	sess.PendingOrder = &models.MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID}

	profile, err := o.profiles.GetProfile(ev.UserID)
	if err != nil {
		// Profile store unreachable: collect details fresh rather than fail.
		slog.Error("profile lookup failed, starting registration", "error", err, "user_id", ev.UserID)
		profile = nil
	}

	if profile == nil {
		sess.Mode = session.ModeCollectingName
		o.sessions.Set(ev.UserID, sess)
		slog.Info("registration started", "user_id", ev.UserID)
		_, err := o.msg.SendText(ctx, ev.ChatID, msgNamePrompt, cancelControls())
		return err
	}

	sess.Mode = session.ModeIdle
	o.sessions.Set(ev.UserID, sess)
	controls := &models.Controls{Buttons: []models.Button{
		{Label: "✅ Use saved details", Payload: payloadUseSaved},
		{Label: "📝 Update details", Payload: payloadEditProfile},
		{Label: "❌ Cancel", Payload: payloadCancel},
	}}
	_, err = o.msg.SendText(ctx, ev.ChatID, formatProfileSummary(*profile), controls)
	return err
}

// handleUseSaved places the order with the stored profile.
func (o *Orchestrator) handleUseSaved(ctx context.Context, ev models.Event) error {
	profile, err := o.profiles.GetProfile(ev.UserID)
	if err != nil || profile == nil {
		slog.Warn("saved profile missing on reuse, restarting registration", "error", err, "user_id", ev.UserID)
		sess := o.sessions.Get(ev.UserID)
		sess.Mode = session.ModeCollectingName
		o.sessions.Set(ev.UserID, sess)
		_, sendErr := o.msg.SendText(ctx, ev.ChatID, msgNamePrompt, cancelControls())
		return sendErr
	}

	if err := o.msg.ClearControls(ctx, models.MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID}); err != nil {
		slog.Debug("could not clear profile options controls", "error", err)
	}

	sess := o.sessions.Get(ev.UserID)
	o.placeOrder(ctx, ev.ChatID, *profile, sess.PendingOrder)
	o.finishOrder(ev.UserID, sess)
	return nil
}

// handleEditProfile restarts the registration dialog over an existing profile.
func (o *Orchestrator) handleEditProfile(ctx context.Context, ev models.Event) error {
	sess := o.sessions.Get(ev.UserID)
	sess.Mode = session.ModeCollectingName
	sess.PendingName, sess.PendingPhone, sess.PendingAddress = "", "", ""
	o.sessions.Set(ev.UserID, sess)
	slog.Info("profile edit started", "user_id", ev.UserID)
	_, err := o.msg.SendText(ctx, ev.ChatID, msgEditNamePrompt, cancelControls())
	return err
}

// handleCancel aborts the dialog from any step with no side effects.
func (o *Orchestrator) handleCancel(ctx context.Context, ev models.Event) error {
	sess := o.sessions.Get(ev.UserID)
	o.finishOrder(ev.UserID, sess)
	slog.Info("order cancelled", "user_id", ev.UserID)

	if err := o.msg.ClearControls(ctx, models.MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID}); err != nil {
		slog.Debug("could not clear cancelled prompt controls", "error", err)
	}
	_, err := o.msg.SendText(ctx, ev.ChatID, msgOrderCancelled, nil)
	return err
}

// advanceRegistration stores the answer for the current step and moves to the
// next one; completing the address step saves the profile and places the order.
func (o *Orchestrator) advanceRegistration(ctx context.Context, ev models.Event, sess session.Session) error {
	switch sess.Mode {
	case session.ModeCollectingName:
		sess.PendingName = ev.Text
		sess.Mode = session.ModeCollectingPhone
		o.sessions.Set(ev.UserID, sess)
		_, err := o.msg.SendText(ctx, ev.ChatID, msgPhonePrompt, cancelControls())
		return err

	case session.ModeCollectingPhone:
		sess.PendingPhone = ev.Text
		sess.Mode = session.ModeCollectingAddress
		o.sessions.Set(ev.UserID, sess)
		_, err := o.msg.SendText(ctx, ev.ChatID, msgAddressPrompt, cancelControls())
		return err

	case session.ModeCollectingAddress:
		sess.PendingAddress = ev.Text
		profile := models.CustomerProfile{
			TelegramID: ev.UserID,
			Username:   ev.Username,
			FirstName:  ev.FirstName,
			Name:       sess.PendingName,
			Phone:      sess.PendingPhone,
			Address:    sess.PendingAddress,
		}
		if err := o.profiles.UpsertProfile(profile); err != nil {
			// The order still goes out with the collected details; only the
			// saved-profile shortcut is lost until the store recovers.
			slog.Error("profile upsert failed", "error", err, "user_id", ev.UserID)
		} else {
			slog.Info("profile saved", "user_id", ev.UserID)
		}

		o.placeOrder(ctx, ev.ChatID, profile, sess.PendingOrder)
		o.finishOrder(ev.UserID, sess)
		return nil

	default:
		return nil
	}
}

// finishOrder resets the user's dialog state, keeping only the listing
// references needed for the next browse cleanup.
func (o *Orchestrator) finishOrder(userID int64, sess session.Session) {
	o.sessions.Set(userID, session.Session{Mode: session.ModeIdle, ListingIDs: sess.ListingIDs})
}

// placeOrder forwards the selected product and the customer's contact details
// to the operator and records the correlation for reply routing. The customer
// always gets a definitive message; internal failures degrade to a contact
// instruction and are never surfaced as a hard failure.
func (o *Orchestrator) placeOrder(ctx context.Context, customerChatID int64, profile models.CustomerProfile, productRef *models.MessageRef) {
	if o.cfg.OperatorChatID == 0 {
		slog.Warn("no operator chat configured, sending contact instruction", "user_id", profile.TelegramID)
		if _, err := o.msg.SendText(ctx, customerChatID, formatContactInstruction(o.cfg.OperatorUsername), nil); err != nil {
			slog.Error("failed to send contact instruction", "error", err, "user_id", profile.TelegramID)
		}
		return
	}

	if productRef != nil {
		if _, err := o.msg.Forward(ctx, o.cfg.OperatorChatID, *productRef); err != nil {
			slog.Error("failed to forward product message", "error", err, "user_id", profile.TelegramID)
			o.orderFallback(ctx, customerChatID, profile.TelegramID)
			return
		}
		if err := o.msg.ClearControls(ctx, *productRef); err != nil {
			slog.Debug("could not clear ordered product controls", "error", err)
		}
	}

	summary, err := o.msg.SendText(ctx, o.cfg.OperatorChatID, formatOrderSummary(profile), nil)
	if err != nil {
		slog.Error("failed to send order summary to operator", "error", err, "user_id", profile.TelegramID)
		o.orderFallback(ctx, customerChatID, profile.TelegramID)
		return
	}

	o.correlations.Record(summary.MessageID, profile.TelegramID)
	slog.Info("order forwarded to operator", "user_id", profile.TelegramID, "summary_message_id", summary.MessageID)

	if _, err := o.msg.SendText(ctx, customerChatID, msgOrderPlaced, nil); err != nil {
		slog.Error("failed to send order confirmation", "error", err, "user_id", profile.TelegramID)
	}
}

// orderFallback tells the customer to reach the operator directly after an
// internal forwarding failure.
func (o *Orchestrator) orderFallback(ctx context.Context, customerChatID, userID int64) {
	if _, err := o.msg.SendText(ctx, customerChatID, formatForwardFailed(o.cfg.OperatorUsername), nil); err != nil {
		slog.Error("failed to send order fallback message", "error", err, "user_id", userID)
	}
}

// handleReply routes an operator reply back to the customer who placed the
// order. Replies from anyone else are ordinary text.
func (o *Orchestrator) handleReply(ctx context.Context, ev models.Event) error {
	if o.cfg.OperatorChatID == 0 || ev.ChatID != o.cfg.OperatorChatID {
		return o.handleText(ctx, ev)
	}

	customerID, found := o.correlations.Lookup(ev.ReplyToID)
	if !found {
		slog.Warn("operator reply to unknown message", "reply_to_id", ev.ReplyToID)
		_, err := o.msg.SendText(ctx, ev.ChatID, msgReplyNoCustomer, nil)
		return err
	}

	if _, err := o.msg.SendText(ctx, customerID, formatOperatorReply(o.cfg.OperatorUsername, ev.Text), nil); err != nil {
		slog.Error("failed to relay operator reply", "error", err, "customer_id", customerID)
		_, sendErr := o.msg.SendText(ctx, ev.ChatID, formatReplyFailed(err), nil)
		return sendErr
	}

	slog.Info("operator reply relayed", "customer_id", customerID)
	_, err := o.msg.SendText(ctx, ev.ChatID, msgReplyDelivered, nil)
	return err
}
