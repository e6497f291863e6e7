package handler

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/performartech/hinis-website/internal/middleware"
)

// maxEventParams mirrors the GA4 per-event parameter limit.
const maxEventParams = 25

var eventNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,39}$`)

// EventTracker receives best-effort analytics events.
type EventTracker interface {
	Track(ctx context.Context, sessionID, name string, params map[string]string)
}

type eventRequest struct {
	Name   string            `binding:"required" json:"name"`
	Params map[string]string `json:"params"`
}

// EventsHandler accepts analytics events from the site script.
type EventsHandler struct {
	tracker EventTracker
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(tracker EventTracker) *EventsHandler {
	return &EventsHandler{tracker: tracker}
}

// Track forwards one event. Bots are accepted and silently dropped.
func (h *EventsHandler) Track(c *gin.Context) {
	limitBody(c)

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !eventNamePattern.MatchString(req.Name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event name"})
		return
	}
	if len(req.Params) > maxEventParams {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many params"})
		return
	}

	if !middleware.IsBot(c) {
		h.tracker.Track(c.Request.Context(), middleware.SessionID(c), req.Name, req.Params)
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
