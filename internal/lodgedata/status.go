package lodgedata

import (
	"context"
	"time"

	"github.com/monatur/concierge/internal/base44"
	"github.com/monatur/concierge/pkg/logging"
)

const (
	botStatusEntity = "BotStatus"
	botStatusKey    = "whatsapp"

	StatusConnected    = "CONNECTED"
	StatusDisconnected = "DISCONNECTED"
)

type botStatusRecord struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	EntityID string `json:"entityId"`
	Key      string `json:"key"`
	Status   string `json:"status"`
}

func (r botStatusRecord) ref() string {
	switch {
	case r.ID != "":
		return r.ID
	case r.LegacyID != "":
		return r.LegacyID
	default:
		return r.EntityID
	}
}

// StatusReporter publishes the channel's connection state to the portal's
// BotStatus record so operators can see whether the bot is live.
type StatusReporter struct {
	client *base44.Client
	logger *logging.Logger
}

// NewStatusReporter wires a reporter around the Base44 client.
func NewStatusReporter(client *base44.Client, logger *logging.Logger) *StatusReporter {
	if client == nil {
		panic("lodgedata: base44 client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusReporter{client: client, logger: logger}
}

// Publish updates the whatsapp BotStatus record. Failures are logged and
// swallowed: status reporting must never take the bot down.
func (r *StatusReporter) Publish(ctx context.Context, status string) {
	if r == nil {
		return
	}
	ctx, span := lodgeTracer.Start(ctx, "lodgedata.publish_status")
	defer span.End()

	rec, err := base44.FindFirst(ctx, r.client, botStatusEntity,
		map[string]string{"key": botStatusKey},
		func(rec botStatusRecord) bool { return rec.Key == botStatusKey },
	)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("bot status lookup failed", "status", status, "error", err)
		return
	}
	if rec == nil {
		r.logger.Warn("bot status record missing, skipping publish", "status", status)
		return
	}

	err = r.client.Update(ctx, botStatusEntity, rec.ref(), map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("bot status publish failed", "status", status, "error", err)
	}
}
