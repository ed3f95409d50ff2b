package whatsapp

import "time"

// WebhookEvent is the top-level structure received from Meta's WhatsApp
// Business webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents a single entry in the webhook payload.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change carries one field update; inbound messages arrive under the
// "messages" field.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value is the payload of a messages change.
type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         Metadata         `json:"metadata"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
	Statuses         []Status         `json:"statuses"`
}

// Metadata identifies the receiving business number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact carries the sender's WhatsApp id and profile name.
type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

// Profile is the sender's public profile.
type Profile struct {
	Name string `json:"name"`
}

// InboundMessage is one received message.
type InboundMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *TextBody     `json:"text,omitempty"`
	Image     *MediaBody    `json:"image,omitempty"`
	Button    *ButtonReply  `json:"button,omitempty"`
	Context   *ReplyContext `json:"context,omitempty"`
}

// TextBody is the body of a text message.
type TextBody struct {
	Body string `json:"body"`
}

// MediaBody carries media metadata; only the caption is routed.
type MediaBody struct {
	ID       string `json:"id"`
	Caption  string `json:"caption"`
	MimeType string `json:"mime_type"`
}

// ButtonReply is a quick-reply button tap.
type ButtonReply struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// ReplyContext links a message to the one it replies to.
type ReplyContext struct {
	From string `json:"from"`
	ID   string `json:"id"`
}

// Status is a delivery/read receipt; the engine ignores them.
type Status struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SendRequest is the payload posted to the Graph API messages endpoint.
type SendRequest struct {
	MessagingProduct string     `json:"messaging_product"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Text             *SendText  `json:"text,omitempty"`
	Image            *SendImage `json:"image,omitempty"`
}

// SendText is an outbound text body.
type SendText struct {
	Body string `json:"body"`
}

// SendImage is an outbound image by public link.
type SendImage struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

// SendResponse is the Graph API reply to a send.
type SendResponse struct {
	Messages []SentMessage `json:"messages"`
	Error    *SendError    `json:"error,omitempty"`
}

// SentMessage carries the provider-assigned message id.
type SentMessage struct {
	ID string `json:"id"`
}

// SendError represents an error returned by the Graph API.
type SendError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// ParsedInboundMessage is the normalized result of parsing a webhook event.
type ParsedInboundMessage struct {
	SenderID   string
	SenderName string
	Text       string
	MessageID  string
	Timestamp  time.Time
}
