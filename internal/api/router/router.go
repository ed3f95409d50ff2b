package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/monatur/concierge/internal/channels/whatsapp"
	httpmiddleware "github.com/monatur/concierge/internal/http/middleware"
	"github.com/monatur/concierge/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Webhook        *whatsapp.WebhookHandler
	MetricsHandler http.Handler
	SessionCount   func() int
	WebhookRate    float64
	WebhookBurst   int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthHandler(cfg.SessionCount))

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webhook != nil {
		rate := cfg.WebhookRate
		if rate <= 0 {
			rate = 20
		}
		burst := cfg.WebhookBurst
		if burst <= 0 {
			burst = 40
		}
		r.Route("/webhooks/whatsapp", func(wh chi.Router) {
			wh.Get("/", cfg.Webhook.HandleVerification)
			wh.With(httpmiddleware.RateLimit(rate, burst)).Post("/", cfg.Webhook.HandleInbound)
		})
	}

	return r
}

func healthHandler(sessionCount func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"status": "ok"}
		if sessionCount != nil {
			payload["sessions"] = sessionCount()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(payload)
	}
}
