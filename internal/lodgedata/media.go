package lodgedata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/monatur/concierge/internal/base44"
	"github.com/monatur/concierge/internal/conversation"
	"github.com/monatur/concierge/pkg/logging"
)

const (
	galleryEntity = "GalleryImage"
	suiteEntity   = "SuiteImage"

	// Records without an explicit order sink to the end.
	defaultMediaOrder = 9999
)

// flexBool decodes the is_active field, which historically arrived as a JSON
// bool, a quoted string, or a 0/1 number. Absent means active.
type flexBool struct {
	set bool
	val bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		return nil
	case "true", `"true"`, "1", `"1"`:
		b.set, b.val = true, true
		return nil
	case "false", `"false"`, "0", `"0"`:
		b.set, b.val = true, false
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("lodgedata: decode is_active %s: %w", data, err)
	}
	b.set, b.val = true, v
	return nil
}

func (b flexBool) active() bool {
	if !b.set {
		return true
	}
	return b.val
}

// suiteLabel decodes suite_number, stored either as a JSON number or a
// quoted string depending on the app version that created the record.
type suiteLabel string

func (s *suiteLabel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("lodgedata: decode suite_number %s: %w", data, err)
		}
		*s = suiteLabel(v)
		return nil
	}
	*s = suiteLabel(data)
	return nil
}

type mediaRecord struct {
	URL         string     `json:"url"`
	ImageURL    string     `json:"image_url"`
	Caption     string     `json:"caption"`
	Title       string     `json:"title"`
	SuiteNumber suiteLabel `json:"suite_number"`
	IsActive    flexBool   `json:"is_active"`
	Order       *int       `json:"order"`
}

func (r mediaRecord) imageURL() string {
	if r.URL != "" {
		return r.URL
	}
	return r.ImageURL
}

func (r mediaRecord) caption() string {
	if r.Caption != "" {
		return r.Caption
	}
	return r.Title
}

// suiteCaption appends the suite identifier to the base caption, so a guest
// browsing six photos can tell the suites apart.
func (r mediaRecord) suiteCaption() string {
	parts := make([]string, 0, 2)
	if c := r.caption(); c != "" {
		parts = append(parts, c)
	}
	if r.SuiteNumber != "" {
		parts = append(parts, "Suíte "+string(r.SuiteNumber))
	}
	return strings.Join(parts, " — ")
}

func (r mediaRecord) rank() int {
	if r.Order == nil {
		return defaultMediaOrder
	}
	return *r.Order
}

// Library serves ranked gallery and suite images from Base44. It implements
// conversation.MediaGateway.
type Library struct {
	client *base44.Client
	logger *logging.Logger
}

var _ conversation.MediaGateway = (*Library)(nil)

// NewLibrary wires a media gateway around the Base44 client.
func NewLibrary(client *base44.Client, logger *logging.Logger) *Library {
	if client == nil {
		panic("lodgedata: base44 client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Library{client: client, logger: logger}
}

// GalleryImages returns up to limit active gallery images in rank order.
func (l *Library) GalleryImages(ctx context.Context, limit int) ([]conversation.MediaItem, error) {
	return l.fetch(ctx, galleryEntity, limit)
}

// SuiteImages returns up to limit active suite images in rank order.
func (l *Library) SuiteImages(ctx context.Context, limit int) ([]conversation.MediaItem, error) {
	return l.fetch(ctx, suiteEntity, limit)
}

func (l *Library) fetch(ctx context.Context, entity string, limit int) ([]conversation.MediaItem, error) {
	ctx, span := lodgeTracer.Start(ctx, "lodgedata.media")
	defer span.End()
	span.SetAttributes(attribute.String("concierge.media_entity", entity))

	records, err := base44.List[mediaRecord](ctx, l.client, entity, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("lodgedata: list %s: %w", entity, err)
	}

	active := records[:0:0]
	for _, r := range records {
		if r.IsActive.active() && r.imageURL() != "" {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].rank() < active[j].rank() })

	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	items := make([]conversation.MediaItem, 0, len(active))
	for _, r := range active {
		caption := r.caption()
		if entity == suiteEntity {
			caption = r.suiteCaption()
		}
		items = append(items, conversation.MediaItem{URL: r.imageURL(), Caption: caption})
	}
	span.SetAttributes(attribute.Int("concierge.media_count", len(items)))
	return items, nil
}
