package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const mapDataBody = `[
	{
		"id": "dwd.1234",
		"version": 3,
		"startDate": "2023-02-12T10:00:00+01:00",
		"severity": "Severe",
		"type": "Alert",
		"i18nTitle": {"de": "Amtliche WARNUNG vor STURMBÖEN"}
	},
	{
		"id": "dwd.5678",
		"version": 1,
		"startDate": "not-a-date",
		"severity": "Orkan",
		"type": "Sturm",
		"i18nTitle": {"de": "Unbekannte Warnung"}
	}
]`

const detailBody = `{
	"identifier": "dwd.1234",
	"sender": "CAP@dwd.de",
	"sent": "2023-02-12T09:55:00+01:00",
	"status": "Actual",
	"info": [
		{
			"event": "STURMBÖEN",
			"severity": "Severe",
			"expires": "2023-02-12T18:00:00+01:00",
			"headline": "Amtliche WARNUNG vor STURMBÖEN",
			"description": "Es treten <b>Sturmböen</b> auf.<br/>Vorsicht &amp; Ruhe bewahren.",
			"area": [
				{"areaDesc": "Darmstadt", "geocode": [{"value": "06411"}]},
				{"areaDesc": "Bergstraße", "geocode": [{"value": "06431"}]}
			]
		}
	]
}`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/dwd/mapData.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mapDataBody))
	})
	mux.HandleFunc("/lhp/mapData.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "lhp.1", "version": 1, "startDate": "2023-02-12T08:00:00+01:00", "severity": "Moderate", "type": "Alert", "i18nTitle": {"de": "Hochwasserwarnung"}}]`))
	})
	mux.HandleFunc("/broken/mapData.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})
	mux.HandleFunc("/warnings/dwd.1234.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAdapterPoll_Normalizes(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(srv.URL, 5*time.Second)
	adapter := NewAdapter(client, "dwd", models.CategoryWeather)

	warnings, err := adapter.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, warnings, 2)

	w := warnings[0]
	assert.Equal(t, "dwd.1234", w.ID)
	assert.Equal(t, 3, w.Version)
	assert.Equal(t, models.SeveritySevere, w.Severity)
	assert.Equal(t, models.CategoryWeather, w.Category)
	assert.Equal(t, models.MessageTypeAlert, w.Type)
	assert.Equal(t, "Amtliche WARNUNG vor STURMBÖEN", w.Title)
	assert.Equal(t, "dwd", w.Source)
	assert.Equal(t, 2023, w.StartDate.Year())

	// Unrecognized vocabulary maps to sentinels instead of failing.
	u := warnings[1]
	assert.Equal(t, models.SeverityUnknown, u.Severity)
	assert.Equal(t, models.MessageTypeUnknown, u.Type)
	assert.True(t, u.StartDate.IsZero())
}

func TestAdapterPoll_TransportError(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(srv.URL, 5*time.Second)
	adapter := NewAdapter(client, "broken", models.CategoryNone)

	_, err := adapter.Poll(context.Background())
	assert.Error(t, err)
}

func TestAggregatorCollect_IsolatesFailingFeed(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(srv.URL, 5*time.Second)
	adapters := []*Adapter{
		NewAdapter(client, "dwd", models.CategoryWeather),
		NewAdapter(client, "broken", models.CategoryNone),
		NewAdapter(client, "lhp", models.CategoryFlood),
	}
	agg := NewAggregator(adapters, 3, observability.NewMetricsForTesting())

	warnings := agg.Collect(context.Background())

	// The broken feed contributes nothing; the other two are complete.
	require.Len(t, warnings, 3)
	bySource := make(map[string]int)
	for _, w := range warnings {
		bySource[w.Source]++
	}
	assert.Equal(t, 2, bySource["dwd"])
	assert.Equal(t, 1, bySource["lhp"])
	assert.Equal(t, 0, bySource["broken"])
}

func TestClientDetailedWarning_StripsMarkup(t *testing.T) {
	srv := newFeedServer(t)
	client := NewClient(srv.URL, 5*time.Second)

	detail, err := client.DetailedWarning(context.Background(), "dwd.1234")
	require.NoError(t, err)

	assert.Equal(t, "dwd.1234", detail.ID)
	assert.Equal(t, "CAP@dwd.de", detail.Sender)
	assert.Equal(t, "Actual", detail.Status)
	require.Len(t, detail.Infos, 1)

	info := detail.Infos[0]
	assert.Equal(t, models.SeveritySevere, info.Severity)
	assert.Equal(t, "Es treten Sturmböen auf.Vorsicht & Ruhe bewahren.", info.Description)
	assert.Equal(t, []string{"Darmstadt", "Bergstraße"}, detail.TargetLocations())
	require.Len(t, info.Areas, 2)
	assert.Equal(t, []string{"06411"}, info.Areas[0].Geocodes)
}

func TestLocationResolver_MemoizesPerWarning(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/warnings/dwd.1234.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(detailBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	resolver := NewLocationResolver(client)

	first := resolver.TargetLocations(context.Background(), "dwd.1234")
	second := resolver.TargetLocations(context.Background(), "dwd.1234")

	assert.Equal(t, []string{"Darmstadt", "Bergstraße"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), hits.Load())
}

func TestLocationResolver_FetchFailureYieldsEmptySet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	resolver := NewLocationResolver(client)

	locations := resolver.TargetLocations(context.Background(), "missing")
	assert.Empty(t, locations)
}
