package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// WebhookHandler handles Meta webhook verification and inbound WhatsApp
// messages.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	onMessage   func(msg ParsedInboundMessage)
}

// NewWebhookHandler creates a new webhook handler. onMessage is called for
// each parsed inbound message.
func NewWebhookHandler(verifyToken, appSecret string, onMessage func(ParsedInboundMessage)) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		onMessage:   onMessage,
	}
}

// HandleVerification handles the GET webhook verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST webhook events (incoming messages).
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if !VerifySignature(h.appSecret, body, signature) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Must respond 200 quickly to avoid Meta retries.
	w.WriteHeader(http.StatusOK)

	for _, msg := range ParseWebhookEvent(event) {
		if h.onMessage != nil {
			h.onMessage(msg)
		}
	}
}

// ParseWebhookEvent extracts ParsedInboundMessages from a webhook event.
// Delivery receipts and group messages are dropped: the concierge only talks
// to individual guests.
func ParseWebhookEvent(event WebhookEvent) []ParsedInboundMessage {
	var messages []ParsedInboundMessage

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}

			for _, m := range change.Value.Messages {
				if m.From == "" || strings.HasSuffix(m.From, "@g.us") {
					continue
				}
				parsed := ParsedInboundMessage{
					SenderID:   m.From,
					SenderName: names[m.From],
					MessageID:  m.ID,
					Timestamp:  parseTimestamp(m.Timestamp),
				}
				switch {
				case m.Text != nil:
					parsed.Text = m.Text.Body
				case m.Button != nil:
					parsed.Text = m.Button.Text
				case m.Image != nil:
					// A bare image still deserves a reply; route the caption
					// even when empty.
					parsed.Text = m.Image.Caption
				default:
					continue
				}
				messages = append(messages, parsed)
			}
		}
	}

	return messages
}

func parseTimestamp(raw string) time.Time {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	// Signature format: "sha256=<hex>"
	const prefix = "sha256="
	if len(signature) <= len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
