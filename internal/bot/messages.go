package bot

import (
	"fmt"

	"github.com/yomasupply/supplierbot/internal/models"
)

// Menu labels shown on the persistent keyboard. The text handler matches on
// these exact strings, so they double as the status selectors.
const (
	MenuInStock  = "📦 In-Stock Products"
	MenuIncoming = "🚚 On The Way Products"
)

// Callback payloads carried by inline buttons.
const (
	payloadOrderPrefix = "order|"
	payloadUseSaved    = "use_saved"
	payloadEditProfile = "edit_profile"
	payloadCancel      = "cancel"

	// maxOrderPayload bounds the product name embedded in a callback payload;
	// Telegram limits callback data to 64 bytes.
	maxOrderPayload = 50
)

// Static user-facing messages.
const (
	msgMenuHint        = "Please use the buttons below to browse products."
	msgNamePrompt      = "📝 To place an order, please fill in your details.\n\n👤 Send the recipient's name."
	msgEditNamePrompt  = "📝 Updating your details.\n\n👤 Send the recipient's name."
	msgPhonePrompt     = "📞 Send the recipient's phone number."
	msgAddressPrompt   = "📍 Send the recipient's delivery address."
	msgOrderCancelled  = "❌ Order cancelled.\n\nUse the buttons below to keep browsing."
	msgOrderPlaced     = "✅ Order request sent!\n\n📱 The supplier will contact you shortly to arrange payment."
	msgRefreshStarted  = "🔄 Refreshing product data..."
	msgRefreshDone     = "✅ Product data refreshed."
	msgRefreshDenied   = "⛔ Only the operator can refresh the catalog."
	msgReplyNoCustomer = "❌ Could not find the customer for this order."
	msgReplyDelivered  = "✅ Message sent to customer."
)

// cancelControls is the single cancel button attached to every registration prompt.
func cancelControls() *models.Controls {
	return &models.Controls{Buttons: []models.Button{{Label: "❌ Cancel", Payload: payloadCancel}}}
}

// menuControls is the persistent two-row status selector keyboard.
func menuControls() *models.Controls {
	return &models.Controls{Menu: []string{MenuInStock, MenuIncoming}}
}

// orderPayload builds the callback payload for an entry's order button.
func orderPayload(name string) string {
	if len(name) > maxOrderPayload {
		name = name[:maxOrderPayload]
	}
	return payloadOrderPrefix + name
}

// formatWelcome greets a user on /start.
func formatWelcome(firstName string) string {
	return fmt.Sprintf("👋 Welcome, %s!\n\nUse the buttons below to browse products:\n\n"+
		"%s - view available items\n%s - view incoming items", firstName, MenuInStock, MenuIncoming)
}

// formatEntry renders one catalog entry as a message caption.
func formatEntry(e models.CatalogEntry) string {
	unit := ""
	if e.Unit != "" {
		unit = " per " + e.Unit
	}
	caption := fmt.Sprintf("<b>%s</b>\n\n💰 Price: %s Kyat%s\n📊 Stock: %s", e.Name, e.Price, unit, e.Quantity)
	if e.Expiry != "" {
		caption += "\n🗓 Expiry: " + e.Expiry
	}
	return caption
}

// formatNoEntries is the notice for an empty status group.
func formatNoEntries(status models.Status) string {
	return fmt.Sprintf("No %s products found at the moment.", statusLabel(status))
}

// formatListingSummary closes a product listing with a count.
func formatListingSummary(count int, status models.Status) string {
	return fmt.Sprintf("✅ Sent %d %s product(s).", count, statusLabel(status))
}

func statusLabel(status models.Status) string {
	if status == models.StatusIncoming {
		return "On The Way"
	}
	return "In Stock"
}

// formatProfileSummary shows a returning customer their saved details.
func formatProfileSummary(p models.CustomerProfile) string {
	return fmt.Sprintf("📋 Your saved details:\n\n👤 Name: %s\n📞 Phone: %s\n📍 Address: %s\n\n"+
		"Use them for this order, or update them first.", p.Name, p.Phone, p.Address)
}

// formatOrderSummary is the operator-facing contact summary for a new order.
func formatOrderSummary(p models.CustomerProfile) string {
	contact := p.FirstName
	if p.Username != "" {
		contact = "@" + p.Username
	}
	link := fmt.Sprintf("<a href='tg://user?id=%d'>%s</a>", p.TelegramID, contact)
	return fmt.Sprintf("📦 NEW ORDER REQUEST\n\n👤 Name: %s\n📞 Phone: %s\n📍 Address: %s\n\n💬 Contact customer: %s",
		p.Name, p.Phone, p.Address, link)
}

// formatContactInstruction tells a customer to reach the operator directly.
func formatContactInstruction(operatorUsername string) string {
	return fmt.Sprintf("Please contact @%s to place your order.", operatorUsername)
}

// formatForwardFailed is the fallback when the internal forward breaks.
func formatForwardFailed(operatorUsername string) string {
	return fmt.Sprintf("There was an error. Please contact @%s directly to place your order.", operatorUsername)
}

// formatOperatorReply wraps a routed operator message for the customer.
func formatOperatorReply(operatorUsername, text string) string {
	return fmt.Sprintf("📩 Message from @%s:\n\n%s", operatorUsername, text)
}

// formatReplyFailed reports a relay failure back to the operator.
func formatReplyFailed(err error) string {
	return fmt.Sprintf("❌ Failed to send message: %v", err)
}

// formatRefreshFailed reports a manual refresh failure to the operator.
func formatRefreshFailed(err error) string {
	return fmt.Sprintf("❌ Refresh failed: %v", err)
}
