package conversation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/monatur/concierge/internal/observability/metrics"
	"github.com/monatur/concierge/pkg/logging"
)

var routerTracer = otel.Tracer("concierge.internal.conversation.router")

// RouterConfig wires the router's collaborators and tuning knobs. Gateways
// and the fallback may be nil; the router degrades to scripted replies.
type RouterConfig struct {
	Store        *Store
	Guard        *CooldownGuard
	Classifier   *Classifier
	Messages     Messages
	Reservations ReservationGateway
	Media        MediaGateway
	Fallback     *FallbackResponder
	Metrics      *metrics.ConversationMetrics
	Logger       *logging.Logger

	// MinFreeTextLen gates the LLM fallback: anything shorter gets the
	// quick-help menu instead of a model call.
	MinFreeTextLen int
	// MinAIReplyLen is the degenerate-output guard: model replies shorter
	// than this are discarded in favor of the quick-help menu.
	MinAIReplyLen int
	GalleryLimit  int
	MediaPause    time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

// Router runs the per-message decision ladder: cooldown, paused-state check,
// lookup sub-flow, greeting reset, scripted rules, LLM fallback.
type Router struct {
	cfg RouterConfig
}

// NewRouter validates collaborators and applies defaults.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Store == nil {
		panic("conversation: session store cannot be nil")
	}
	if cfg.Classifier == nil {
		panic("conversation: classifier cannot be nil")
	}
	if cfg.Guard == nil {
		cfg.Guard = NewCooldownGuard(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MinFreeTextLen <= 0 {
		cfg.MinFreeTextLen = 3
	}
	if cfg.MinAIReplyLen <= 0 {
		cfg.MinAIReplyLen = 10
	}
	if cfg.GalleryLimit <= 0 {
		cfg.GalleryLimit = 6
	}
	if cfg.MediaPause <= 0 {
		cfg.MediaPause = 350 * time.Millisecond
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.sleep == nil {
		cfg.sleep = time.Sleep
	}
	return &Router{cfg: cfg}
}

// HandleMessage routes one inbound message. It returns an error only when an
// outbound send fails; classification and gateway problems degrade to
// scripted replies so the guest never sees a dead line.
func (r *Router) HandleMessage(ctx context.Context, messenger Messenger, conversationID, rawText string) error {
	ctx, span := routerTracer.Start(ctx, "conversation.route")
	defer span.End()
	span.SetAttributes(attribute.String("concierge.conversation_id", conversationID))

	text := Normalize(rawText)
	sess := r.cfg.Store.Get(conversationID)
	now := r.cfg.now()

	if !r.cfg.Guard.Allow(sess, now) {
		r.cfg.Metrics.ObserveSuppressed()
		r.cfg.Logger.Debug("message suppressed by cooldown", "conversation_id", conversationID)
		return nil
	}

	if sess.Step == StepHuman {
		if IsUnpauseCommand(text) {
			sess.Step = StepMenu
			msg := r.cfg.Messages.Reactivated()
			r.cfg.Store.AppendHistory(conversationID, RoleAssistant, msg)
			return r.sendText(ctx, messenger, conversationID, msg)
		}
		// Paused conversations stay silent: a human is answering.
		return nil
	}

	if text == "" {
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.EmptyNudge())
	}

	r.cfg.Metrics.ObserveInbound(string(sess.Step))
	span.SetAttributes(attribute.String("concierge.step", string(sess.Step)))

	if sess.Step == StepLookupCPF {
		return r.handleLookup(ctx, messenger, conversationID, sess, text)
	}

	if sess.Step == StepNew || IsGreeting(text) {
		sess.Step = StepMenu
		msg := r.cfg.Messages.Welcome()
		// The greeting exchange is part of the context the fallback model sees.
		r.cfg.Store.AppendHistory(conversationID, RoleAssistant, msg)
		return r.sendText(ctx, messenger, conversationID, msg)
	}

	intent := r.cfg.Classifier.Classify(text)
	r.cfg.Metrics.ObserveIntent(string(intent))
	span.SetAttributes(attribute.String("concierge.intent", string(intent)))

	switch intent {
	case IntentLocation:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.Location())
	case IntentFoodPolicy:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.FoodPolicy())
	case IntentOnlyLodging:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.OnlyLodgingExplanation())
	case IntentCheckoutTime:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.CheckoutExplanation())
	case IntentVisitors:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.VisitorsExplanation())
	case IntentFinalPrice:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.FinalPrice())
	case IntentAvailability:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.AvailabilityLink(serviceHint(text)))
	case IntentLookup:
		sess.Step = StepLookupCPF
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.AskCPF())
	case IntentReservationLink:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.ReserveLink())
	case IntentHuman:
		sess.Step = StepHuman
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.HumanPause())
	case IntentSuitePhotos:
		return r.sendMedia(ctx, messenger, conversationID, mediaKindSuites)
	case IntentGallery:
		return r.sendMedia(ctx, messenger, conversationID, mediaKindGallery)
	case IntentRules:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.RulesFAQ())
	case IntentDayUse:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.DayUseInfo())
	case IntentLodging:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.LodgingInfo())
	case IntentProfileMismatch:
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.ProfileMismatch())
	}

	return r.handleFreeText(ctx, messenger, conversationID, sess, text)
}

// serviceHint names the service a guest mentioned alongside an availability
// question, so the reply can mirror their wording.
func serviceHint(text string) string {
	switch {
	case wantsDayUse(text):
		return "o day use"
	case wantsLodging(text):
		return "hospedagem"
	default:
		return ""
	}
}

func (r *Router) handleLookup(ctx context.Context, messenger Messenger, conversationID string, sess *Session, text string) error {
	cpf, ok := ExtractCPF(text)
	if !ok {
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.CPFRetry())
	}

	if err := r.sendText(ctx, messenger, conversationID, r.cfg.Messages.LookupWait()); err != nil {
		return err
	}

	// The sub-flow ends after one lookup regardless of outcome; a retry is a
	// fresh request through the menu.
	sess.Step = StepMenu

	rec, err := r.findReservation(ctx, cpf)
	if err != nil {
		r.cfg.Logger.Warn("reservation lookup failed", "conversation_id", conversationID, "error", err)
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.ReservationNotFound())
	}
	if rec == nil {
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.ReservationNotFound())
	}

	if err := r.sendText(ctx, messenger, conversationID, r.cfg.Messages.ReservationSummary(rec)); err != nil {
		return err
	}
	if err := r.cfg.Reservations.MarkDelivered(ctx, rec); err != nil {
		r.cfg.Logger.Warn("failed to flag reservation delivery", "conversation_id", conversationID, "error", err)
	}
	return nil
}

func (r *Router) findReservation(ctx context.Context, cpf string) (*GuestRecord, error) {
	if r.cfg.Reservations == nil {
		return nil, nil
	}
	start := r.cfg.now()
	rec, err := r.cfg.Reservations.FindByCPF(ctx, cpf)
	r.cfg.Metrics.ObserveGatewayLatency("reservations", "find_by_cpf", r.cfg.now().Sub(start).Seconds())
	return rec, err
}

type mediaKind string

const (
	mediaKindGallery mediaKind = "gallery"
	mediaKindSuites  mediaKind = "suites"
)

func (r *Router) sendMedia(ctx context.Context, messenger Messenger, conversationID string, kind mediaKind) error {
	items, err := r.fetchMedia(ctx, kind)
	if err != nil {
		r.cfg.Logger.Warn("media fetch failed", "conversation_id", conversationID, "kind", string(kind), "error", err)
		items = nil
	}
	if len(items) == 0 {
		empty := r.cfg.Messages.NoGalleryPhotos()
		if kind == mediaKindSuites {
			empty = r.cfg.Messages.NoSuitePhotos()
		}
		return r.sendText(ctx, messenger, conversationID, empty)
	}

	if err := r.sendText(ctx, messenger, conversationID, r.cfg.Messages.PhotosIntro()); err != nil {
		return err
	}
	for i, item := range items {
		if i > 0 {
			r.cfg.sleep(r.cfg.MediaPause)
		}
		sendErr := messenger.SendImage(ctx, conversationID, item.URL, item.Caption)
		r.cfg.Metrics.ObserveOutbound("image", sendErr)
		if sendErr != nil {
			r.cfg.Logger.Warn("image send failed", "conversation_id", conversationID, "url", item.URL, "error", sendErr)
		}
	}
	return nil
}

func (r *Router) fetchMedia(ctx context.Context, kind mediaKind) ([]MediaItem, error) {
	if r.cfg.Media == nil {
		return nil, nil
	}
	start := r.cfg.now()
	var (
		items []MediaItem
		err   error
	)
	if kind == mediaKindSuites {
		items, err = r.cfg.Media.SuiteImages(ctx, r.cfg.GalleryLimit)
	} else {
		items, err = r.cfg.Media.GalleryImages(ctx, r.cfg.GalleryLimit)
	}
	r.cfg.Metrics.ObserveGatewayLatency("media", string(kind), r.cfg.now().Sub(start).Seconds())
	return items, err
}

func (r *Router) handleFreeText(ctx context.Context, messenger Messenger, conversationID string, sess *Session, text string) error {
	if len([]rune(text)) < r.cfg.MinFreeTextLen {
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.QuickHelp())
	}

	reply := r.cfg.Fallback.Reply(ctx, sess.History, text)
	r.cfg.Store.AppendHistory(conversationID, RoleUser, text)
	if len([]rune(reply)) < r.cfg.MinAIReplyLen {
		return r.sendText(ctx, messenger, conversationID, r.cfg.Messages.QuickHelp())
	}

	if err := r.sendText(ctx, messenger, conversationID, reply); err != nil {
		return err
	}
	r.cfg.Store.AppendHistory(conversationID, RoleAssistant, reply)
	return nil
}

func (r *Router) sendText(ctx context.Context, messenger Messenger, conversationID, text string) error {
	err := messenger.SendText(ctx, conversationID, text)
	r.cfg.Metrics.ObserveOutbound("text", err)
	if err != nil {
		return fmt.Errorf("conversation: send failed: %w", err)
	}
	return nil
}
