package conversation

import (
	"strings"
	"testing"
)

func testMessages() Messages {
	return Messages{
		ReservationURL: "https://example.test/Reservas/",
		MapsURL:        "https://maps.test/mona",
		Address:        "Estrada da Praia, km 3",
	}
}

func TestMessagesCarryConfiguredLinks(t *testing.T) {
	m := testMessages()

	linked := []struct {
		name string
		text string
	}{
		{"ReserveLink", m.ReserveLink()},
		{"AvailabilityLink", m.AvailabilityLink("")},
		{"FinalPrice", m.FinalPrice()},
		{"DayUseInfo", m.DayUseInfo()},
		{"LodgingInfo", m.LodgingInfo()},
		{"ReservationNotFound", m.ReservationNotFound()},
	}
	for _, tt := range linked {
		if !strings.Contains(tt.text, m.ReservationURL) {
			t.Errorf("%s missing reservation URL", tt.name)
		}
	}

	loc := m.Location()
	if !strings.Contains(loc, m.MapsURL) || !strings.Contains(loc, m.Address) {
		t.Error("Location missing maps URL or address")
	}
}

func TestAvailabilityLinkHint(t *testing.T) {
	m := testMessages()

	if got := m.AvailabilityLink("hospedagem"); !strings.Contains(got, "Pra hospedagem,") {
		t.Errorf("hint not rendered: %q", got)
	}
	if got := m.AvailabilityLink(""); strings.Contains(got, "Pra ,") {
		t.Errorf("empty hint leaked: %q", got)
	}
}

func TestReservationSummary(t *testing.T) {
	m := testMessages()
	price := 1500.0
	rec := &GuestRecord{
		Name:          "Ana",
		CPF:           "123.456.789-09",
		CheckIn:       "2026-09-12T09:00:00Z",
		CheckOut:      "2026-09-13",
		Guests:        8,
		TotalPrice:    &price,
		PaymentStatus: "PAID",
	}

	got := m.ReservationSummary(rec)

	for _, want := range []string{
		"*Ana*",
		"123.***.***-09",
		"2026-09-12",
		"2026-09-13",
		"*8*",
		"R$ 1500,00",
		"pago e confirmado",
		m.ReservationURL,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "456") {
		t.Error("summary leaked unmasked CPF digits")
	}
}

func TestReservationSummaryDefaults(t *testing.T) {
	m := testMessages()
	got := m.ReservationSummary(&GuestRecord{CPF: "12345678909"})

	for _, want := range []string{"*Cliente*", "Check-in: *-*", "Pessoas: *-*", "Total: *-*", "em andamento"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestHumanizeStatus(t *testing.T) {
	tests := []struct {
		rec  GuestRecord
		want string
	}{
		{GuestRecord{PaymentStatus: "paid"}, "pago e confirmado"},
		{GuestRecord{Status: "CONFIRMED"}, "pago e confirmado"},
		{GuestRecord{PaymentStatus: "PENDING"}, "aguardando pagamento"},
		{GuestRecord{Status: "CANCELLED"}, "com pendência"},
		{GuestRecord{PaymentStatus: "FAILED"}, "com pendência"},
		{GuestRecord{}, "em andamento"},
	}
	for _, tt := range tests {
		if got := humanizeStatus(&tt.rec); !strings.Contains(got, tt.want) {
			t.Errorf("humanizeStatus(%+v) = %q, want containing %q", tt.rec, got, tt.want)
		}
	}
}

func TestMaskCPF(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12345678909", "123.***.***-09"},
		{"123.456.789-09", "123.***.***-09"},
		{"123", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskCPF(tt.in); got != tt.want {
			t.Errorf("MaskCPF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
