package feeds

import (
	"context"
	"log/slog"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
)

// Adapter normalizes one feed's payloads into the common warning model.
// Adapters share the client but are otherwise independent failure
// domains: a failing adapter contributes zero warnings for the cycle.
type Adapter struct {
	client   *Client
	slug     string
	category models.Category
}

func NewAdapter(client *Client, slug string, category models.Category) *Adapter {
	return &Adapter{
		client:   client,
		slug:     slug,
		category: category,
	}
}

func (a *Adapter) Slug() string {
	return a.slug
}

// Poll fetches the feed's active warnings. Unrecognized severity and
// type strings become the sentinel variants rather than errors.
func (a *Adapter) Poll(ctx context.Context) ([]models.Warning, error) {
	entries, err := a.client.MapData(ctx, a.slug)
	if err != nil {
		return nil, err
	}

	warnings := make([]models.Warning, 0, len(entries))
	for _, e := range entries {
		startDate := parseTimestamp(e.StartDate, e.ID)
		severity := models.ParseSeverity(e.Severity)
		if severity == models.SeverityUnknown {
			slog.Debug("unrecognized severity", "feed", a.slug, "id", e.ID, "value", e.Severity)
		}

		warnings = append(warnings, models.Warning{
			ID:        e.ID,
			Version:   e.Version,
			StartDate: startDate,
			Severity:  severity,
			Category:  a.category,
			Type:      models.ParseMessageType(e.Type),
			Title:     e.I18NTitle["de"],
			Source:    a.slug,
		})
	}

	return warnings, nil
}
