package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	infralogger "github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/messages"
	"github.com/performartech/hinis-website/internal/middleware"
	"github.com/performartech/hinis-website/internal/submission"
)

// Submitter runs a submission cycle.
type Submitter interface {
	Submit(ctx context.Context, req submission.Request) submission.Outcome
}

// contactResponse tells the client which effects to apply to the form.
type contactResponse struct {
	State             submission.State `json:"state"`
	Kind              submission.Kind  `json:"kind,omitempty"`
	Message           string           `json:"message"`
	RetryAfterSeconds int              `json:"retry_after_seconds,omitempty"`
	SubmitEnabled     bool             `json:"submit_enabled"`
	SubmitLabel       string           `json:"submit_label"`
	FormReset         bool             `json:"form_reset"`
}

var statusByKind = map[submission.Kind]int{
	submission.KindNone:          http.StatusOK,
	submission.KindRateLimited:   http.StatusTooManyRequests,
	submission.KindValidation:    http.StatusUnprocessableEntity,
	submission.KindConfiguration: http.StatusServiceUnavailable,
	submission.KindTransport:     http.StatusBadGateway,
	submission.KindInFlight:      http.StatusConflict,
	submission.KindUnhandled:     http.StatusInternalServerError,
}

// ContactHandler accepts contact form submissions.
type ContactHandler struct {
	submitter Submitter
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(submitter Submitter) *ContactHandler {
	return &ContactHandler{submitter: submitter}
}

// Submit binds the form from JSON or urlencoded bodies and runs the cycle.
func (h *ContactHandler) Submit(c *gin.Context) {
	limitBody(c)

	var values domain.FormValues
	if err := c.ShouldBind(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	printer := printerFor(c)
	form := submission.NewFormState(values, printer.Sprintf(messages.SubmitLabel))
	out := h.submitter.Submit(c.Request.Context(), submission.Request{
		SessionID: middleware.SessionID(c),
		Form:      form,
		Printer:   printer,
	})

	kind := out.Kind()
	infralogger.FromContext(c.Request.Context()).Info("Contact submission finished",
		infralogger.String("state", string(out.State)),
		infralogger.String("kind", string(kind)),
	)

	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if kind == submission.KindRateLimited {
		c.Header("Retry-After", strconv.Itoa(out.RetryAfterSeconds))
	}
	c.JSON(status, contactResponse{
		State:             out.State,
		Kind:              kind,
		Message:           out.Message,
		RetryAfterSeconds: out.RetryAfterSeconds,
		SubmitEnabled:     form.SubmitEnabled,
		SubmitLabel:       form.SubmitLabel,
		FormReset:         form.Cleared,
	})
}
