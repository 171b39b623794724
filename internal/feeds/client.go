package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
)

// Client talks to a NINA api31 compatible warning service. Every feed
// shares the same base URL and payload shape; only the map-data slug
// differs per source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	strip      *bluemonday.Policy
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		strip: bluemonday.StrictPolicy(),
	}
}

type mapDataEntry struct {
	ID        string            `json:"id"`
	Version   int               `json:"version"`
	StartDate string            `json:"startDate"`
	Severity  string            `json:"severity"`
	Type      string            `json:"type"`
	I18NTitle map[string]string `json:"i18nTitle"`
}

type detailResponse struct {
	Identifier string       `json:"identifier"`
	Sender     string       `json:"sender"`
	Sent       string       `json:"sent"`
	Status     string       `json:"status"`
	Info       []detailInfo `json:"info"`
}

type detailInfo struct {
	Event       string       `json:"event"`
	Severity    string       `json:"severity"`
	Expires     string       `json:"expires"`
	Headline    string       `json:"headline"`
	Description string       `json:"description"`
	Area        []detailArea `json:"area"`
}

type detailArea struct {
	AreaDesc string          `json:"areaDesc"`
	Geocode  []detailGeocode `json:"geocode"`
}

type detailGeocode struct {
	Value string `json:"value"`
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return nil
}

// MapData fetches the active warning list of one feed.
func (c *Client) MapData(ctx context.Context, slug string) ([]mapDataEntry, error) {
	var entries []mapDataEntry
	if err := c.getJSON(ctx, "/"+slug+"/mapData.json", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DetailedWarning fetches the detail record for a warning id, with all
// free-text fields stripped of markup.
func (c *Client) DetailedWarning(ctx context.Context, warningID string) (*models.DetailedWarning, error) {
	var resp detailResponse
	if err := c.getJSON(ctx, "/warnings/"+warningID+".json", &resp); err != nil {
		return nil, err
	}

	d := &models.DetailedWarning{
		ID:     resp.Identifier,
		Sender: resp.Sender,
		Sent:   parseTimestamp(resp.Sent, resp.Identifier),
		Status: resp.Status,
	}

	for _, info := range resp.Info {
		wi := models.WarningInfo{
			Event:       info.Event,
			Severity:    models.ParseSeverity(info.Severity),
			Expires:     parseTimestamp(info.Expires, resp.Identifier),
			Headline:    info.Headline,
			Description: c.stripMarkup(info.Description),
		}
		for _, area := range info.Area {
			wa := models.WarningArea{
				Description: area.AreaDesc,
			}
			for _, gc := range area.Geocode {
				wa.Geocodes = append(wa.Geocodes, gc.Value)
			}
			wi.Areas = append(wi.Areas, wa)
		}
		d.Infos = append(d.Infos, wi)
	}

	return d, nil
}

// stripMarkup removes HTML tags and resolves entities left behind by
// the sanitizer.
func (c *Client) stripMarkup(s string) string {
	return html.UnescapeString(c.strip.Sanitize(s))
}

func parseTimestamp(value, warningID string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		slog.Warn("feed timestamp parsing failed", "id", warningID, "value", value, "error", err.Error())
		return time.Time{}
	}
	return ts
}
