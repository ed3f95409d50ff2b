package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/monatur/concierge/internal/api/router"
	"github.com/monatur/concierge/internal/base44"
	"github.com/monatur/concierge/internal/channels/whatsapp"
	appconfig "github.com/monatur/concierge/internal/config"
	"github.com/monatur/concierge/internal/conversation"
	"github.com/monatur/concierge/internal/lodgedata"
	"github.com/monatur/concierge/internal/observability/metrics"
	"github.com/monatur/concierge/pkg/logging"
)

func main() {
	// Local development convenience; in production the environment is real.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting concierge bot",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	convMetrics := metrics.NewConversationMetrics(nil)

	// Base44 is optional: without credentials the bot still answers scripted
	// questions, it just cannot look up reservations or media.
	b44, err := base44.New(base44.Config{
		BaseURL: cfg.Base44URL,
		AppID:   cfg.Base44AppID,
		APIKey:  cfg.Base44APIKey,
		Timeout: cfg.GatewayTimeout,
		Logger:  logger.Logger,
	})
	if err != nil {
		if !errors.Is(err, base44.ErrNotConfigured) {
			logger.Error("base44 client init failed", "error", err)
			os.Exit(1)
		}
		logger.Warn("base44 credentials missing, record lookups disabled")
		b44 = nil
	}

	messages := conversation.Messages{
		ReservationURL: cfg.ReservationURL,
		MapsURL:        cfg.MapsURL,
		Address:        cfg.LodgeAddress,
	}
	store := conversation.NewStore(cfg.HistoryLimit)

	prompt := conversation.SystemPrompt(cfg.ReservationURL, cfg.MapsURL, cfg.LodgeAddress)
	fallback := conversation.NewFallbackResponder(nil, cfg.OpenAIModel, prompt, cfg.GatewayTimeout, logger)
	if cfg.OpenAIAPIKey != "" {
		fallback = conversation.NewFallbackResponder(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel, prompt, cfg.GatewayTimeout, logger)
	} else {
		logger.Warn("openai key missing, free-text fallback disabled")
	}

	routerCfg := conversation.RouterConfig{
		Store:          store,
		Guard:          conversation.NewCooldownGuard(cfg.CooldownWindow),
		Classifier:     conversation.NewClassifier(conversation.ClassifierConfig{RulesMaxInput: cfg.RulesMaxInput}),
		Messages:       messages,
		Fallback:       fallback,
		Metrics:        convMetrics,
		Logger:         logger,
		MinFreeTextLen: cfg.MinFreeTextLen,
		MinAIReplyLen:  cfg.MinAIReplyLen,
		GalleryLimit:   cfg.GalleryLimit,
		MediaPause:     cfg.MediaSendPause,
	}
	var statusReporter *lodgedata.StatusReporter
	if b44 != nil {
		routerCfg.Reservations = lodgedata.NewLookup(b44, logger)
		routerCfg.Media = lodgedata.NewLibrary(b44, logger)
		statusReporter = lodgedata.NewStatusReporter(b44, logger)
	}
	engine := conversation.NewRouter(routerCfg)

	// Without WhatsApp credentials there is no way to reply at all.
	if cfg.WhatsAppAccessToken == "" || cfg.WhatsAppPhoneNumberID == "" {
		logger.Error("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID are required")
		os.Exit(1)
	}
	waClient := whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
	if cfg.WhatsAppGraphURL != "" {
		waClient.SetGraphAPIBase(cfg.WhatsAppGraphURL)
	}

	dispatcher := conversation.NewDispatcher(engine, waClient, messages, logger,
		conversation.WithLaneBuffer(cfg.DispatchBuffer))

	webhook := whatsapp.NewWebhookHandler(cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret,
		func(msg whatsapp.ParsedInboundMessage) {
			if err := dispatcher.Enqueue(msg.SenderID, msg.Text); err != nil {
				logger.Warn("inbound message dropped", "sender", msg.SenderID, "error", err)
			}
		})

	handler := router.New(&router.Config{
		Logger:         logger,
		Webhook:        webhook,
		MetricsHandler: promhttp.Handler(),
		SessionCount:   store.Len,
		WebhookRate:    cfg.WebhookRate,
		WebhookBurst:   cfg.WebhookBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	if statusReporter != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.GatewayTimeout)
			defer cancel()
			statusReporter.Publish(ctx, lodgedata.StatusConnected)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if statusReporter != nil {
		statusReporter.Publish(ctx, lodgedata.StatusDisconnected)
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Error("dispatcher shutdown failed", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
