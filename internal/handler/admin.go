package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	infralogger "github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
)

const defaultRecentLimit = 50

// EventReader lists archived analytics events.
type EventReader interface {
	Recent(ctx context.Context, name string, limit int) ([]domain.AnalyticsEvent, error)
}

// AdminHandler serves the archived event listing.
type AdminHandler struct {
	reader EventReader
	logger infralogger.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(reader EventReader, log infralogger.Logger) *AdminHandler {
	return &AdminHandler{reader: reader, logger: log}
}

// RecentEvents handles GET /api/v1/admin/events?name=&limit=.
func (h *AdminHandler) RecentEvents(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events, err := h.reader.Recent(c.Request.Context(), c.Query("name"), limit)
	if err != nil {
		h.logger.Error("Failed to list analytics events", infralogger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
