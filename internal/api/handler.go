package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PEASEC/Warning-Messenger-Bot/internal/models"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/repository"
	"github.com/PEASEC/Warning-Messenger-Bot/internal/scheduler"
)

// Handler exposes the operational surface of the engine: health,
// metrics, last-cycle status, and the admin endpoints backing the
// external preference store. There is intentionally no query API for
// historical warnings.
type Handler struct {
	cycle     *scheduler.Cycle
	prefs     repository.PreferenceRepository
	directory repository.LocationDirectory
}

func NewHandler(cycle *scheduler.Cycle, prefs repository.PreferenceRepository, directory repository.LocationDirectory) *Handler {
	return &Handler{
		cycle:     cycle,
		prefs:     prefs,
		directory: directory,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/status", h.status)

	r.PUT("/api/recipients/:id/settings", h.updateSettings)
	r.GET("/api/recipients/:id/subscriptions", h.getSubscriptions)
	r.POST("/api/recipients/:id/subscriptions", h.addSubscription)
	r.DELETE("/api/recipients/:id/subscriptions", h.deleteSubscription)
	r.GET("/api/recipients/:id/suggestions", h.getSuggestions)
	r.PUT("/api/locations/:id", h.upsertLocation)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) status(c *gin.Context) {
	last := h.cycle.Last()
	if last.CompletedAt.IsZero() {
		c.JSON(http.StatusOK, gin.H{"last_cycle": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"last_cycle": gin.H{
			"completed_at": last.CompletedAt.Format(time.RFC3339),
			"duration_ms":  last.Duration.Milliseconds(),
			"warnings":     last.Stats.Warnings,
			"recipients":   last.Stats.Recipients,
			"delivered":    last.Stats.Delivered,
			"skipped":      last.Stats.Skipped,
			"faults":       last.Stats.Faults,
		},
	})
}

type settingsRequest struct {
	ReceiveWarnings *bool   `json:"receive_warnings"`
	DefaultSeverity *string `json:"default_severity"`
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipientID := c.Param("id")
	ctx := c.Request.Context()

	if req.ReceiveWarnings != nil {
		if err := h.prefs.SetReceiveWarnings(ctx, recipientID, *req.ReceiveWarnings); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
			return
		}
	}
	if req.DefaultSeverity != nil {
		level := models.ParseSeverity(*req.DefaultSeverity)
		if level == models.SeverityUnknown {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown severity: " + *req.DefaultSeverity})
			return
		}
		if err := h.prefs.SetDefaultSeverity(ctx, recipientID, level); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) getSubscriptions(c *gin.Context) {
	subs, err := h.prefs.GetSubscriptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscriptions"})
		return
	}

	type subscriptionResponse struct {
		LocationID string            `json:"location_id"`
		Thresholds map[string]string `json:"thresholds"`
	}
	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		thresholds := make(map[string]string, len(sub.Thresholds))
		for category, level := range sub.Thresholds {
			thresholds[string(category)] = level.String()
		}
		out = append(out, subscriptionResponse{LocationID: sub.LocationID, Thresholds: thresholds})
	}
	c.JSON(http.StatusOK, out)
}

type subscriptionRequest struct {
	LocationID string `json:"location_id" binding:"required"`
	Category   string `json:"category" binding:"required"`
	Severity   string `json:"severity"`
}

func (h *Handler) addSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipientID := c.Param("id")
	ctx := c.Request.Context()

	name, err := h.directory.ResolveName(ctx, req.LocationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown location id"})
		return
	}

	// Empty severity means the recipient's default is applied; a
	// non-empty string must name a real level.
	level := models.SeverityUnknown
	if req.Severity != "" {
		if level = models.ParseSeverity(req.Severity); level == models.SeverityUnknown {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown severity: " + req.Severity})
			return
		}
	}

	err = h.prefs.AddSubscription(ctx, recipientID, req.LocationID,
		models.ParseCategory(req.Category), level)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add subscription"})
		return
	}

	if err := h.prefs.AddSuggestion(ctx, recipientID, name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record suggestion"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "subscribed", "location": name})
}

func (h *Handler) deleteSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.prefs.DeleteSubscription(c.Request.Context(), c.Param("id"),
		req.LocationID, models.ParseCategory(req.Category))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

func (h *Handler) getSuggestions(c *gin.Context) {
	suggestions, err := h.prefs.Suggestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch suggestions"})
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, suggestions)
}

type locationRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) upsertLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.directory.UpsertLocation(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store location"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}
