package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type sentItem struct {
	kind    string
	text    string
	url     string
	caption string
}

type fakeMessenger struct {
	sent    []sentItem
	textErr error
}

func (f *fakeMessenger) SendText(_ context.Context, _ string, text string) error {
	if f.textErr != nil {
		return f.textErr
	}
	f.sent = append(f.sent, sentItem{kind: "text", text: text})
	return nil
}

func (f *fakeMessenger) SendImage(_ context.Context, _ string, url, caption string) error {
	f.sent = append(f.sent, sentItem{kind: "image", url: url, caption: caption})
	return nil
}

func (f *fakeMessenger) texts() []string {
	var out []string
	for _, s := range f.sent {
		if s.kind == "text" {
			out = append(out, s.text)
		}
	}
	return out
}

type fakeReservations struct {
	rec       *GuestRecord
	findErr   error
	gotCPF    string
	delivered []*GuestRecord
}

func (f *fakeReservations) FindByCPF(_ context.Context, cpf string) (*GuestRecord, error) {
	f.gotCPF = cpf
	return f.rec, f.findErr
}

func (f *fakeReservations) MarkDelivered(_ context.Context, rec *GuestRecord) error {
	f.delivered = append(f.delivered, rec)
	return nil
}

type fakeMedia struct {
	gallery []MediaItem
	suites  []MediaItem
	err     error
}

func (f *fakeMedia) GalleryImages(_ context.Context, limit int) ([]MediaItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.gallery) > limit {
		return f.gallery[:limit], nil
	}
	return f.gallery, nil
}

func (f *fakeMedia) SuiteImages(_ context.Context, _ int) ([]MediaItem, error) {
	return f.suites, f.err
}

type routerFixture struct {
	router    *Router
	store     *Store
	messenger *fakeMessenger
	resv      *fakeReservations
	media     *fakeMedia
	chat      *stubChatClient
	clock     time.Time
	slept     []time.Duration
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	fx := &routerFixture{
		store:     NewStore(10),
		messenger: &fakeMessenger{},
		resv:      &fakeReservations{},
		media:     &fakeMedia{},
		chat:      &stubChatClient{reply: "Resposta longa o suficiente do modelo."},
		clock:     time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	cfg := RouterConfig{
		Store:        fx.store,
		Guard:        NewCooldownGuard(1200 * time.Millisecond),
		Classifier:   newTestClassifier(),
		Messages:     testMessages(),
		Reservations: fx.resv,
		Media:        fx.media,
		Fallback:     NewFallbackResponder(fx.chat, "gpt-4.1-mini", "prompt", 0, nil),
		MediaPause:   350 * time.Millisecond,
		now:          func() time.Time { return fx.clock },
		sleep:        func(d time.Duration) { fx.slept = append(fx.slept, d) },
	}
	fx.router = NewRouter(cfg)
	return fx
}

// send advances the clock past the cooldown window and routes one message.
func (fx *routerFixture) send(t *testing.T, text string) {
	t.Helper()
	fx.clock = fx.clock.Add(2 * time.Second)
	if err := fx.router.HandleMessage(context.Background(), fx.messenger, "5511999990000", text); err != nil {
		t.Fatalf("HandleMessage(%q): %v", text, err)
	}
}

func (fx *routerFixture) lastText(t *testing.T) string {
	t.Helper()
	texts := fx.messenger.texts()
	if len(texts) == 0 {
		t.Fatal("no text sent")
	}
	return texts[len(texts)-1]
}

func TestRouterWelcomesNewConversationThenAnswersFAQ(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi, tudo bem?")
	if !strings.Contains(fx.lastText(t), "Seja bem-vindo") {
		t.Fatalf("first contact must welcome, got %q", fx.lastText(t))
	}

	fx.send(t, "posso levar cerveja?")
	if !strings.Contains(fx.lastText(t), "não comercializa alimentos") {
		t.Fatalf("food question answered with %q", fx.lastText(t))
	}

	fx.send(t, "como funciona o day use?")
	if !strings.Contains(fx.lastText(t), "Day Use privativo") {
		t.Fatalf("day use question answered with %q", fx.lastText(t))
	}
}

func TestRouterGreetingResetsToWelcome(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "primeira mensagem")
	fx.send(t, "menu")
	if !strings.Contains(fx.lastText(t), "Seja bem-vindo") {
		t.Fatalf("bare greeting must re-welcome, got %q", fx.lastText(t))
	}
}

func TestRouterCooldownSuppressesBurst(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi")
	before := len(fx.messenger.sent)

	// Second message lands inside the window: no reply, no step change.
	fx.clock = fx.clock.Add(300 * time.Millisecond)
	if err := fx.router.HandleMessage(context.Background(), fx.messenger, "5511999990000", "quanto fica?"); err != nil {
		t.Fatal(err)
	}
	if len(fx.messenger.sent) != before {
		t.Fatal("suppressed message must produce zero sends")
	}

	// A suppressed message must not extend the window.
	fx.clock = fx.clock.Add(1 * time.Second)
	if err := fx.router.HandleMessage(context.Background(), fx.messenger, "5511999990000", "como chegar?"); err != nil {
		t.Fatal(err)
	}
	if len(fx.messenger.sent) != before+1 {
		t.Fatal("message past the original window must be processed")
	}
}

func TestRouterLookupFlow(t *testing.T) {
	fx := newRouterFixture(t)
	price := 1000.0
	fx.resv.rec = &GuestRecord{Ref: "abc", Name: "Bruno", CPF: "12345678909", TotalPrice: &price, PaymentStatus: "PAID"}

	fx.send(t, "oi")
	fx.send(t, "quero consultar minha reserva")
	if !strings.Contains(fx.lastText(t), "CPF") {
		t.Fatalf("lookup intent must ask for CPF, got %q", fx.lastText(t))
	}

	fx.send(t, "não sei o número agora")
	if !strings.Contains(fx.lastText(t), "11 dígitos") {
		t.Fatalf("invalid CPF must prompt retry, got %q", fx.lastText(t))
	}

	fx.send(t, "123.456.789-09")
	texts := fx.messenger.texts()
	if !strings.Contains(texts[len(texts)-2], "consultar aqui") {
		t.Errorf("wait notice missing: %q", texts[len(texts)-2])
	}
	if !strings.Contains(fx.lastText(t), "Encontrei sua reserva, *Bruno*") {
		t.Fatalf("summary missing: %q", fx.lastText(t))
	}
	if fx.resv.gotCPF != "12345678909" {
		t.Errorf("gateway got CPF %q", fx.resv.gotCPF)
	}
	if len(fx.resv.delivered) != 1 || fx.resv.delivered[0].Ref != "abc" {
		t.Error("found record must be flagged delivered")
	}

	// Sub-flow ends: the next message routes through the menu again.
	fx.send(t, "como chegar?")
	if !strings.Contains(fx.lastText(t), "Localização") {
		t.Fatalf("step must return to menu after lookup, got %q", fx.lastText(t))
	}
}

func TestRouterLookupNotFoundAndGatewayFailure(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
	}{
		{"not found", nil},
		{"gateway failure", errors.New("base44 down")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			fx := newRouterFixture(t)
			fx.resv.findErr = tt.err

			fx.send(t, "oi")
			fx.send(t, "consultar reserva")
			fx.send(t, "12345678909")

			if !strings.Contains(fx.lastText(t), "Não encontrei reserva") {
				t.Fatalf("want not-found reply, got %q", fx.lastText(t))
			}
			if len(fx.resv.delivered) != 0 {
				t.Error("nothing must be flagged delivered")
			}
		})
	}
}

func TestRouterHumanHandoffPausesAndUnpauses(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi")
	fx.send(t, "quero falar com um atendente")
	if !strings.Contains(fx.lastText(t), "#voltar") {
		t.Fatalf("handoff reply must explain the unpause command, got %q", fx.lastText(t))
	}

	before := len(fx.messenger.sent)
	fx.send(t, "alguém aí?")
	fx.send(t, "quanto custa?")
	if len(fx.messenger.sent) != before {
		t.Fatal("paused conversation must stay silent")
	}

	fx.send(t, "#voltar")
	if !strings.Contains(fx.lastText(t), "reativado") {
		t.Fatalf("unpause must confirm, got %q", fx.lastText(t))
	}
	history := fx.store.Get("5511999990000").History
	if len(history) == 0 || !strings.Contains(history[len(history)-1].Content, "reativado") {
		t.Error("reactivation reply must land in the fallback history")
	}

	fx.send(t, "como chegar?")
	if !strings.Contains(fx.lastText(t), "Localização") {
		t.Fatal("routing must resume after unpause")
	}
}

// "link do google maps" matches both the location and reservation-link
// vocabularies; the priority order must send the address.
func TestRouterLocationWinsOverReservationLink(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi")
	fx.send(t, "me manda o link do google maps")
	if !strings.Contains(fx.lastText(t), "Localização") {
		t.Fatalf("got %q, want the address", fx.lastText(t))
	}
}

func TestRouterGallerySendsRankedImagesWithPauses(t *testing.T) {
	fx := newRouterFixture(t)
	fx.media.gallery = []MediaItem{
		{URL: "https://img.test/1.jpg", Caption: "trilha"},
		{URL: "https://img.test/2.jpg"},
		{URL: "https://img.test/3.jpg"},
	}

	fx.send(t, "oi")
	fx.send(t, "mostra as fotos do lugar")

	var images []sentItem
	for _, s := range fx.messenger.sent {
		if s.kind == "image" {
			images = append(images, s)
		}
	}
	if len(images) != 3 {
		t.Fatalf("sent %d images, want 3", len(images))
	}
	if images[0].url != "https://img.test/1.jpg" || images[0].caption != "trilha" {
		t.Errorf("first image = %+v", images[0])
	}
	if len(fx.slept) != 2 {
		t.Errorf("expected a pause between consecutive images, slept %d times", len(fx.slept))
	}
}

func TestRouterGalleryEmptyAndFailure(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi")
	fx.send(t, "tem fotos das suítes?")
	if !strings.Contains(fx.lastText(t), "não tenho fotos cadastradas das suítes") {
		t.Fatalf("empty suites must apologize, got %q", fx.lastText(t))
	}

	fx.media.err = errors.New("media store down")
	fx.send(t, "mostra a galeria")
	if !strings.Contains(fx.lastText(t), "não tenho fotos cadastradas na galeria") {
		t.Fatalf("media failure must degrade to the empty reply, got %q", fx.lastText(t))
	}
}

func TestRouterFreeTextGoesToFallback(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi")
	fx.send(t, "vocês ficam perto de alguma cachoeira bonita?")
	if fx.lastText(t) != "Resposta longa o suficiente do modelo." {
		t.Fatalf("free text must reach the fallback, got %q", fx.lastText(t))
	}

	// The model sees the greeting exchange plus both free-text turns.
	fx.send(t, "e tem trilha guiada por lá?")
	if len(fx.chat.got.Messages) != 5 {
		t.Fatalf("expected system + 3 history + user = 5 messages, got %d", len(fx.chat.got.Messages))
	}
	if !strings.Contains(fx.chat.got.Messages[1].Content, "Seja bem-vindo") {
		t.Errorf("first history message must be the welcome, got %q", fx.chat.got.Messages[1].Content)
	}
}

func TestRouterShortFreeTextGetsQuickHelp(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi")
	fx.send(t, "ok")
	if !strings.Contains(fx.lastText(t), "Day Use") {
		t.Fatalf("short free text must get quick help, got %q", fx.lastText(t))
	}
}

func TestRouterDegenerateModelReplyGetsQuickHelp(t *testing.T) {
	fx := newRouterFixture(t)
	fx.chat.err = errors.New("openai down")

	fx.send(t, "oi")
	fx.send(t, "vocês alugam o espaço pra eventos corporativos?")
	if !strings.Contains(fx.lastText(t), "Me diz só o que você busca") {
		t.Fatalf("model failure must degrade to quick help, got %q", fx.lastText(t))
	}
}

func TestRouterEmptyMessageNudges(t *testing.T) {
	fx := newRouterFixture(t)

	fx.send(t, "oi")
	fx.send(t, "   ")
	if !strings.Contains(fx.lastText(t), "Te ouvi") {
		t.Fatalf("empty text must nudge, got %q", fx.lastText(t))
	}
}

func TestRouterSendErrorPropagates(t *testing.T) {
	fx := newRouterFixture(t)
	fx.messenger.textErr = errors.New("network down")

	fx.clock = fx.clock.Add(2 * time.Second)
	err := fx.router.HandleMessage(context.Background(), fx.messenger, "551188887777", "oi")
	if err == nil || !strings.Contains(err.Error(), "send failed") {
		t.Fatalf("err = %v", err)
	}
}
