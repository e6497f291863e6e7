package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	infralogger "github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/attribution"
	"github.com/performartech/hinis-website/internal/middleware"
)

// captureRequest is sent by the site script on every page load.
type captureRequest struct {
	URL      string `binding:"required" json:"url"`
	Referrer string `json:"referrer"`
	Title    string `json:"title"`
}

// AttributionHandler exposes the session's attribution record.
type AttributionHandler struct {
	service *attribution.Service
	logger  infralogger.Logger
}

// NewAttributionHandler creates an AttributionHandler.
func NewAttributionHandler(service *attribution.Service, log infralogger.Logger) *AttributionHandler {
	return &AttributionHandler{service: service, logger: log}
}

// Capture observes a client-side navigation and returns the active record.
func (h *AttributionHandler) Capture(c *gin.Context) {
	limitBody(c)

	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		h.logger.Debug("Rejected capture with unparsable url", infralogger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}

	rec := h.service.Observe(c.Request.Context(), middleware.SessionID(c), attribution.PageView{
		URL:      u,
		Referrer: req.Referrer,
		Title:    req.Title,
	})
	c.JSON(http.StatusOK, gin.H{"attribution": rec})
}

// Get returns the active record, or null.
func (h *AttributionHandler) Get(c *gin.Context) {
	rec := h.service.Store().Read(c.Request.Context(), middleware.SessionID(c))
	c.JSON(http.StatusOK, gin.H{"attribution": rec})
}

// Clear removes the record.
func (h *AttributionHandler) Clear(c *gin.Context) {
	h.service.Store().Clear(c.Request.Context(), middleware.SessionID(c))
	c.Status(http.StatusNoContent)
}

// Submission returns the fields merged into a form submission.
func (h *AttributionHandler) Submission(c *gin.Context) {
	fields := h.service.Store().FormatForSubmission(c.Request.Context(), middleware.SessionID(c))
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// Summary returns the human readable description of the record.
func (h *AttributionHandler) Summary(c *gin.Context) {
	summary := h.service.Store().Summary(c.Request.Context(), middleware.SessionID(c), printerFor(c))
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
