package conversation

import "context"

// Step identifies the current phase of a conversation's state machine.
type Step string

const (
	StepNew       Step = "NEW"
	StepMenu      Step = "MENU"
	StepLookupCPF Step = "LOOKUP_CPF"
	StepHuman     Step = "HUMAN"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of the bounded conversation history fed to the LLM
// fallback.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GuestRecord is the engine's view of a reservation held in the external
// record store. The engine never caches it and mutates it only through
// MarkDelivered.
type GuestRecord struct {
	Ref           string
	Name          string
	CPF           string
	CheckIn       string
	CheckOut      string
	Guests        int
	TotalPrice    *float64
	Status        string
	PaymentStatus string
}

// MediaItem is a ranked image ready for outbound delivery.
type MediaItem struct {
	URL     string
	Caption string
}

// ReservationGateway resolves guest records from the external record store.
// FindByCPF returns (nil, nil) when no record matches.
type ReservationGateway interface {
	FindByCPF(ctx context.Context, cpf string) (*GuestRecord, error)
	MarkDelivered(ctx context.Context, rec *GuestRecord) error
}

// MediaGateway fetches ranked, active media items for gallery delivery.
type MediaGateway interface {
	GalleryImages(ctx context.Context, limit int) ([]MediaItem, error)
	SuiteImages(ctx context.Context, limit int) ([]MediaItem, error)
}

// Messenger is the outbound side of the messaging transport. The engine
// never blocks on delivery confirmation beyond the returned error.
type Messenger interface {
	SendText(ctx context.Context, conversationID, text string) error
	SendImage(ctx context.Context, conversationID, url, caption string) error
}
