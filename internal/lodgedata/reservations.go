package lodgedata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/monatur/concierge/internal/base44"
	"github.com/monatur/concierge/internal/conversation"
	"github.com/monatur/concierge/pkg/logging"
)

var lodgeTracer = otel.Tracer("concierge.internal.lodgedata")

const reservationEntity = "Reservation"

// ErrInvalidCPF indicates the identifier is not 11 digits after stripping
// punctuation.
var ErrInvalidCPF = errors.New("lodgedata: cpf must be 11 digits")

// reservationRecord mirrors the Base44 Reservation entity. The id and name
// fields vary between records created through different app versions, so
// every known alias is decoded.
type reservationRecord struct {
	ID        string `json:"id"`
	LegacyID  string `json:"_id"`
	EntityID  string `json:"entityId"`
	GuestName string `json:"guest_name"`
	Name      string `json:"name"`
	GuestCPF  string `json:"guest_cpf"`
	LegacyCPF string `json:"cpf"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Guests    int    `json:"guests"`
	NumGuests int    `json:"num_guests"`

	TotalPrice    *float64 `json:"total_price"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
}

func (r reservationRecord) ref() string {
	switch {
	case r.ID != "":
		return r.ID
	case r.LegacyID != "":
		return r.LegacyID
	default:
		return r.EntityID
	}
}

func (r reservationRecord) cpf() string {
	if r.GuestCPF != "" {
		return r.GuestCPF
	}
	return r.LegacyCPF
}

func (r reservationRecord) guestName() string {
	if r.GuestName != "" {
		return r.GuestName
	}
	return r.Name
}

func (r reservationRecord) guestCount() int {
	if r.Guests > 0 {
		return r.Guests
	}
	return r.NumGuests
}

// Lookup resolves reservations from Base44 by CPF. It implements
// conversation.ReservationGateway.
type Lookup struct {
	client *base44.Client
	logger *logging.Logger
}

var _ conversation.ReservationGateway = (*Lookup)(nil)

// NewLookup wires a reservation gateway around the Base44 client.
func NewLookup(client *base44.Client, logger *logging.Logger) *Lookup {
	if client == nil {
		panic("lodgedata: base44 client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Lookup{client: client, logger: logger}
}

// FindByCPF returns the first reservation matching cpf, or (nil, nil) when
// none exists. The remote guest_cpf filter is best-effort; records stored with
// punctuation are caught by the client-side digit comparison.
func (l *Lookup) FindByCPF(ctx context.Context, cpf string) (*conversation.GuestRecord, error) {
	ctx, span := lodgeTracer.Start(ctx, "lodgedata.find_by_cpf")
	defer span.End()

	digits := onlyDigits(cpf)
	if len(digits) != 11 {
		span.RecordError(ErrInvalidCPF)
		return nil, ErrInvalidCPF
	}

	rec, err := base44.FindFirst(ctx, l.client, reservationEntity,
		map[string]string{"guest_cpf": digits},
		func(r reservationRecord) bool { return onlyDigits(r.cpf()) == digits },
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("lodgedata: reservation lookup: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	span.SetAttributes(attribute.String("concierge.reservation_ref", rec.ref()))

	return &conversation.GuestRecord{
		Ref:           rec.ref(),
		Name:          rec.guestName(),
		CPF:           rec.cpf(),
		CheckIn:       rec.CheckIn,
		CheckOut:      rec.CheckOut,
		Guests:        rec.guestCount(),
		TotalPrice:    rec.TotalPrice,
		Status:        rec.Status,
		PaymentStatus: rec.PaymentStatus,
	}, nil
}

// MarkDelivered flags the record as delivered over WhatsApp so the portal
// stops re-sending it.
func (l *Lookup) MarkDelivered(ctx context.Context, rec *conversation.GuestRecord) error {
	ctx, span := lodgeTracer.Start(ctx, "lodgedata.mark_delivered")
	defer span.End()

	if rec == nil || rec.Ref == "" {
		return errors.New("lodgedata: record without id cannot be flagged")
	}
	err := l.client.Update(ctx, reservationEntity, rec.Ref, map[string]any{
		"whatsapp_sent":        true,
		"whatsapp_sent_at":     time.Now().UTC().Format(time.RFC3339),
		"whatsapp_send_status": "SENT",
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("lodgedata: flag delivery: %w", err)
	}
	return nil
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
