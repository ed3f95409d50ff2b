package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Conversation engine tuning.
	CooldownWindow  time.Duration
	RulesMaxInput   int
	MinFreeTextLen  int
	MinAIReplyLen   int
	GalleryLimit    int
	MediaSendPause  time.Duration
	HistoryLimit    int
	DispatchBuffer  int

	// Reservation portal and location copy.
	PublicBaseURL  string
	ReservationURL string
	MapsURL        string
	LodgeAddress   string

	// OpenAI completion fallback.
	OpenAIAPIKey string
	OpenAIModel  string

	// Base44 record store.
	Base44AppID  string
	Base44APIKey string
	Base44URL    string

	// WhatsApp Cloud API channel.
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppGraphURL      string

	// Shared external-gateway call budget.
	GatewayTimeout time.Duration

	// Webhook abuse guard.
	WebhookRate  float64
	WebhookBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "4000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CooldownWindow:  getEnvAsDuration("COOLDOWN_MS", 1200*time.Millisecond),
		RulesMaxInput:   getEnvAsInt("RULES_MAX_INPUT_LEN", 80),
		MinFreeTextLen:  getEnvAsInt("MIN_FREETEXT_LEN", 3),
		MinAIReplyLen:   getEnvAsInt("MIN_AI_REPLY_LEN", 10),
		GalleryLimit:    getEnvAsInt("GALLERY_LIMIT", 6),
		MediaSendPause:  getEnvAsDuration("MEDIA_SEND_PAUSE", 350*time.Millisecond),
		HistoryLimit:    getEnvAsInt("HISTORY_LIMIT", 10),
		DispatchBuffer:  getEnvAsInt("DISPATCH_BUFFER", 32),

		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:4000"), "/"),
		ReservationURL: strings.TrimSpace(getEnv("RESERVA_URL", "")),
		MapsURL:        getEnv("MAPS_URL", defaultMapsURL),
		LodgeAddress:   getEnv("LODGE_ADDRESS", defaultAddress),

		OpenAIAPIKey: strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4.1-mini"),

		Base44AppID:  strings.TrimSpace(getEnv("BASE44_APP_ID", "")),
		Base44APIKey: strings.TrimSpace(getEnv("BASE44_API_KEY", "")),
		Base44URL:    getEnv("BASE44_URL", ""),

		WhatsAppAccessToken:   strings.TrimSpace(getEnv("WHATSAPP_ACCESS_TOKEN", "")),
		WhatsAppPhoneNumberID: strings.TrimSpace(getEnv("WHATSAPP_PHONE_NUMBER_ID", "")),
		WhatsAppVerifyToken:   strings.TrimSpace(getEnv("WHATSAPP_VERIFY_TOKEN", "")),
		WhatsAppAppSecret:     strings.TrimSpace(getEnv("WHATSAPP_APP_SECRET", "")),
		WhatsAppGraphURL:      getEnv("WHATSAPP_GRAPH_URL", ""),

		GatewayTimeout: getEnvAsDuration("GATEWAY_TIMEOUT", 20*time.Second),

		WebhookRate:  getEnvAsFloat("WEBHOOK_RATE", 5),
		WebhookBurst: getEnvAsInt("WEBHOOK_BURST", 10),
	}

	if cfg.ReservationURL == "" {
		cfg.ReservationURL = cfg.PublicBaseURL + "/Reservas/"
	}

	return cfg
}

const defaultMapsURL = "https://maps.app.goo.gl/ayZ8BqELH24G6X1Q6?g_st=com.google.maps.preview.copy"

const defaultAddress = "Monã Amazon Lodge LTDA\n" +
	"Travessa Igarape Anaeurapucu S/N Km 26\n" +
	"Fortaleza, Santana - AP\n" +
	"CEP: 68926-385"

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings; bare integers are read as
// milliseconds to stay compatible with the legacy COOLDOWN_MS style values.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
