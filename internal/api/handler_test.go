package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/repository"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/scheduler"
)

func setupRouter(t *testing.T) (*gin.Engine, *repository.SQLiteDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	router := gin.New()
	handler := NewHandler(scheduler.NewCycle(nil, nil, nil), db, db)
	handler.RegisterRoutes(router)
	return router, db
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatus_NoCycleYet(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"last_cycle":null}`, w.Body.String())
}

func TestSubscriptionLifecycle(t *testing.T) {
	router, _ := setupRouter(t)

	// The location must exist in the directory first.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/locations/09162", strings.NewReader(`{"name":"München"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Subscribing to an unknown location is rejected.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/recipients/r1/subscriptions",
		strings.NewReader(`{"location_id":"nope","category":"weather","severity":"moderate"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Subscribe.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/recipients/r1/subscriptions",
		strings.NewReader(`{"location_id":"09162","category":"weather","severity":"moderate"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The subscription is listed.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/recipients/r1/subscriptions", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"location_id":"09162","thresholds":{"weather":"moderate"}}]`, w.Body.String())

	// Subscribing recorded the location as a suggestion.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/recipients/r1/suggestions", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["München"]`, w.Body.String())

	// Unsubscribe.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/recipients/r1/subscriptions",
		strings.NewReader(`{"location_id":"09162","category":"weather"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/recipients/r1/subscriptions", nil)
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAddSubscription_SeverityValidation(t *testing.T) {
	router, db := setupRouter(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertLocation(ctx, "06411", "Darmstadt"))

	// A typo must not silently subscribe at the default level.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recipients/r1/subscriptions",
		strings.NewReader(`{"location_id":"06411","category":"weather","severity":"sever"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	subs, err := db.GetSubscriptions(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, subs)

	// Omitting the severity applies the recipient's default.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/recipients/r1/subscriptions",
		strings.NewReader(`{"location_id":"06411","category":"weather"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	subs, err = db.GetSubscriptions(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SeverityMinor, subs[0].Thresholds[models.CategoryWeather])
}

func TestUpdateSettings(t *testing.T) {
	router, db := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/recipients/r1/settings",
		strings.NewReader(`{"receive_warnings":false,"default_severity":"severe"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	ids, err := db.ListOptedInRecipients(req.Context())
	require.NoError(t, err)
	assert.Empty(t, ids, "r1 disabled warnings and must not be listed")

	// An unknown severity name is rejected.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/recipients/r1/settings",
		strings.NewReader(`{"default_severity":"apocalyptic"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
