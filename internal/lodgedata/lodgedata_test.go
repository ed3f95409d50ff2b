package lodgedata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/monatur/concierge/internal/base44"
	"github.com/monatur/concierge/internal/conversation"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *base44.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := base44.New(base44.Config{
		BaseURL: server.URL,
		AppID:   "app123",
		APIKey:  "key123",
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestLookupRejectsMalformedCPF(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("[]"))
	})
	l := NewLookup(client, nil)

	if _, err := l.FindByCPF(context.Background(), "123"); !errors.Is(err, ErrInvalidCPF) {
		t.Fatalf("err = %v, want ErrInvalidCPF", err)
	}
	if calls != 0 {
		t.Error("malformed CPF must not hit the API")
	}
}

func TestLookupFindsByTargetedFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("guest_cpf"); got != "12345678909" {
			t.Errorf("guest_cpf filter = %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{
			"id":             "r1",
			"guest_name":     "Ana",
			"guest_cpf":      "12345678909",
			"check_in":       "2026-09-12",
			"guests":         8,
			"total_price":    1500.0,
			"payment_status": "PAID",
		}})
	})
	l := NewLookup(client, nil)

	rec, err := l.FindByCPF(context.Background(), "123.456.789-09")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Ref != "r1" || rec.Name != "Ana" || rec.Guests != 8 {
		t.Fatalf("rec = %+v", rec)
	}
	if rec.CPF != "12345678909" {
		t.Errorf("rec.CPF = %q, want the stored guest_cpf", rec.CPF)
	}
	if rec.TotalPrice == nil || *rec.TotalPrice != 1500.0 {
		t.Errorf("total price = %v", rec.TotalPrice)
	}
}

// A record stored with punctuation escapes the remote filter; the unfiltered
// fallback must still find it by digit comparison. The matching record here
// carries the legacy cpf key, which the alias decoding must pick up.
func TestLookupFallsBackToDigitComparison(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("guest_cpf") != "" {
			w.Write([]byte("[]"))
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"_id": "legacy1", "name": "Bruno", "guest_cpf": "999.999.999-99"},
			{"_id": "legacy2", "name": "Carla", "cpf": "123.456.789-09", "num_guests": 4},
		})
	})
	l := NewLookup(client, nil)

	rec, err := l.FindByCPF(context.Background(), "12345678909")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Ref != "legacy2" || rec.Name != "Carla" || rec.Guests != 4 {
		t.Fatalf("rec = %+v", rec)
	}
	if rec.CPF != "123.456.789-09" {
		t.Errorf("rec.CPF = %q, want the legacy cpf value", rec.CPF)
	}
	if calls != 2 {
		t.Errorf("expected targeted + fallback = 2 calls, got %d", calls)
	}
}

func TestLookupNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})
	l := NewLookup(client, nil)

	rec, err := l.FindByCPF(context.Background(), "12345678909")
	if err != nil || rec != nil {
		t.Fatalf("got (%+v, %v), want (nil, nil)", rec, err)
	}
}

func TestMarkDelivered(t *testing.T) {
	var patch map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || !strings.HasSuffix(r.URL.Path, "/entities/Reservation/r1") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&patch)
		w.Write([]byte("{}"))
	})
	l := NewLookup(client, nil)

	err := l.MarkDelivered(context.Background(), &conversation.GuestRecord{Ref: "r1"})
	if err != nil {
		t.Fatal(err)
	}
	if patch["whatsapp_sent"] != true || patch["whatsapp_send_status"] != "SENT" {
		t.Errorf("patch = %+v", patch)
	}
	if _, ok := patch["whatsapp_sent_at"]; !ok {
		t.Error("patch missing whatsapp_sent_at")
	}

	if err := l.MarkDelivered(context.Background(), &conversation.GuestRecord{}); err == nil {
		t.Error("record without ref must be rejected")
	}
}

func TestLibraryRanksAndFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/entities/GalleryImage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"url": "https://img/none.jpg", "is_active": false},
			{"url": "https://img/c.jpg"},
			{"url": "https://img/a.jpg", "order": 1, "caption": "vista"},
			{"image_url": "https://img/b.jpg", "order": 2, "title": "trilha", "is_active": "true"},
			{"caption": "sem url", "order": 0},
		})
	})
	lib := NewLibrary(client, nil)

	items, err := lib.GalleryImages(context.Background(), 6)
	if err != nil {
		t.Fatal(err)
	}
	want := []conversation.MediaItem{
		{URL: "https://img/a.jpg", Caption: "vista"},
		{URL: "https://img/b.jpg", Caption: "trilha"},
		{URL: "https://img/c.jpg"},
	}
	if len(items) != len(want) {
		t.Fatalf("items = %+v", items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestLibraryComposesSuiteCaptions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/entities/SuiteImage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"image_url": "https://img/s1.jpg", "order": 1, "title": "Vista do rio", "suite_number": 1},
			{"image_url": "https://img/s2.jpg", "order": 2, "suite_number": "2B"},
			{"image_url": "https://img/s3.jpg", "order": 3, "title": "Varanda"},
		})
	})
	lib := NewLibrary(client, nil)

	items, err := lib.SuiteImages(context.Background(), 6)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Vista do rio — Suíte 1", "Suíte 2B", "Varanda"}
	if len(items) != len(want) {
		t.Fatalf("items = %+v", items)
	}
	for i := range want {
		if items[i].Caption != want[i] {
			t.Errorf("caption %d = %q, want %q", i, items[i].Caption, want[i])
		}
	}
}

func TestLibraryHonorsLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/entities/SuiteImage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"url": "https://img/1.jpg", "order": 1},
			{"url": "https://img/2.jpg", "order": 2},
			{"url": "https://img/3.jpg", "order": 3},
		})
	})
	lib := NewLibrary(client, nil)

	items, err := lib.SuiteImages(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[1].URL != "https://img/2.jpg" {
		t.Fatalf("items = %+v", items)
	}
}

func TestStatusReporterPublishes(t *testing.T) {
	var patch map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{{"id": "s1", "key": "whatsapp", "status": "DISCONNECTED"}})
		case http.MethodPut:
			if !strings.HasSuffix(r.URL.Path, "/entities/BotStatus/s1") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewDecoder(r.Body).Decode(&patch)
			w.Write([]byte("{}"))
		}
	})

	NewStatusReporter(client, nil).Publish(context.Background(), StatusConnected)

	if patch["status"] != StatusConnected {
		t.Errorf("patch = %+v", patch)
	}
	if _, ok := patch["updated_at"]; !ok {
		t.Error("patch missing updated_at")
	}
}

func TestStatusReporterSwallowsFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusForbidden)
	})

	// Must not panic or propagate.
	NewStatusReporter(client, nil).Publish(context.Background(), StatusDisconnected)
}
