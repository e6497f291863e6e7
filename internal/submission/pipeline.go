// Package submission runs one contact form submission through rate
// limiting, validation and delivery.
package submission

import (
	"context"
	"errors"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/messages"
	"github.com/performartech/hinis-website/internal/ratelimit"
	"github.com/performartech/hinis-website/internal/telemetry"
	"github.com/performartech/hinis-website/internal/transport"
	"github.com/performartech/hinis-website/internal/validation"
	"golang.org/x/text/message"
)

// State is a pipeline state.
type State string

// Pipeline states.
const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateValidating State = "validating"
	StateSending    State = "sending"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// EventFormSubmission is tracked after every successful dispatch.
const EventFormSubmission = "form_submission"

// Admission decides whether a session may submit and records dispatches.
type Admission interface {
	Check(sessionID string, now time.Time) ratelimit.Decision
	Record(sessionID string, now time.Time)
}

// AttributionFormatter supplies the attribution fields merged into payloads.
type AttributionFormatter interface {
	FormatForSubmission(ctx context.Context, sessionID string) map[string]string
}

// Dispatcher delivers payloads. A nil error means the request was issued.
type Dispatcher interface {
	Dispatch(ctx context.Context, ep transport.Endpoint, payload domain.FormPayload) error
}

// EventTracker receives best-effort analytics events.
type EventTracker interface {
	Track(ctx context.Context, sessionID, name string, params map[string]string)
}

// Request is one submit action.
type Request struct {
	SessionID string
	Form      Form
	// Printer localizes feedback; nil uses the default language.
	Printer *message.Printer
}

// Outcome is the terminal state of a cycle.
type Outcome struct {
	State             State
	Err               error
	Message           string
	RetryAfterSeconds int
}

// Kind classifies the outcome error.
func (o Outcome) Kind() Kind {
	return KindOf(o.Err)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Admission   Admission
	Attribution AttributionFormatter
	Endpoint    transport.Endpoint
	Dispatcher  Dispatcher
	Tracker     EventTracker
	Log         logger.Logger
	Metrics     *telemetry.Metrics
	Now         func() time.Time
}

// Pipeline runs submission cycles. At most one cycle per session is in
// flight at a time.
type Pipeline struct {
	deps      Deps
	sanitizer *bluemonday.Policy

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewPipeline creates a Pipeline.
func NewPipeline(deps Deps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &Pipeline{
		deps:      deps,
		sanitizer: bluemonday.StrictPolicy(),
		inFlight:  make(map[string]struct{}),
	}
}

// Submit runs one cycle: Checking, Validating, Sending, then Succeeded or
// Failed. Every exit path leaves the submit control enabled with its
// default label.
func (p *Pipeline) Submit(ctx context.Context, req Request) (out Outcome) {
	printer := req.Printer
	if printer == nil {
		printer = messages.Printer(messages.Default)
	}
	label := printer.Sprintf(messages.SubmitLabel)
	log := p.deps.Log.With(logger.String("session_id", req.SessionID))

	if !p.acquire(req.SessionID) {
		p.deps.Metrics.SubmissionFinished(string(KindInFlight))
		return Outcome{State: StateFailed, Err: ErrInFlight, Message: printer.Sprintf(messages.InFlight)}
	}
	defer p.release(req.SessionID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Submission panicked", logger.Any("panic", r))
			out = Outcome{
				State:   StateFailed,
				Err:     &UnhandledError{Value: r},
				Message: printer.Sprintf(messages.Unexpected),
			}
			req.Form.ShowFeedback(FeedbackError, out.Message)
		}
		req.Form.EnableSubmit(label)
		p.deps.Metrics.SubmissionFinished(outcomeLabel(out))
	}()

	return p.run(ctx, req, printer, log)
}

func (p *Pipeline) run(ctx context.Context, req Request, printer *message.Printer, log logger.Logger) Outcome {
	form := req.Form
	fail := func(err error, msg string) Outcome {
		form.ShowFeedback(FeedbackError, msg)
		return Outcome{State: StateFailed, Err: err, Message: msg}
	}

	// Checking
	decision := p.deps.Admission.Check(req.SessionID, p.deps.Now())
	if !decision.Allowed {
		out := fail(
			&RateLimitError{RetryAfterSeconds: decision.RetryAfterSeconds},
			printer.Sprintf(messages.RateLimited, decision.RetryAfterSeconds),
		)
		out.RetryAfterSeconds = decision.RetryAfterSeconds
		return out
	}

	if !p.deps.Endpoint.Configured() {
		log.Error("Submission endpoint is not configured")
		return fail(ErrEndpointNotConfigured, printer.Sprintf(messages.NotConfigured))
	}

	// Validating
	values := p.clean(form.Values())
	if err := validation.Validate(values); err != nil {
		return fail(err, validationMessage(printer, err))
	}

	// Sending
	form.DisableSubmit(printer.Sprintf(messages.SubmitBusyLabel))
	payload := domain.FormPayload{
		Values:      values,
		Attribution: p.deps.Attribution.FormatForSubmission(ctx, req.SessionID),
	}

	if err := p.deps.Dispatcher.Dispatch(ctx, p.deps.Endpoint, payload); err != nil {
		log.Error("Submission dispatch failed", logger.Error(err))
		return fail(&TransportError{Err: err}, printer.Sprintf(messages.TransportFailed))
	}

	// Succeeded
	p.deps.Admission.Record(req.SessionID, p.deps.Now())
	msg := printer.Sprintf(messages.Sent)
	form.ShowFeedback(FeedbackSuccess, msg)
	form.Reset()

	if p.deps.Tracker != nil {
		p.deps.Tracker.Track(ctx, req.SessionID, EventFormSubmission, formSubmissionParams(values))
	}
	log.Info("Submission dispatched", logger.String("programa", values.Programa))

	return Outcome{State: StateSucceeded, Message: msg}
}

// clean trims every field and strips markup from the free-text fields.
func (p *Pipeline) clean(v domain.FormValues) domain.FormValues {
	return domain.FormValues{
		Nome:     p.plainText(v.Nome),
		Email:    strings.TrimSpace(v.Email),
		Telefone: strings.TrimSpace(v.Telefone),
		Programa: strings.TrimSpace(v.Programa),
		Mensagem: p.plainText(v.Mensagem),
	}
}

// plainText drops tags and restores the entities the policy escaped, since
// the payload is JSON rather than HTML.
func (p *Pipeline) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(p.sanitizer.Sanitize(s)))
}

func (p *Pipeline) acquire(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inFlight[sessionID]; busy {
		return false
	}
	p.inFlight[sessionID] = struct{}{}
	return true
}

func (p *Pipeline) release(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, sessionID)
}

func validationMessage(printer *message.Printer, err error) string {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return printer.Sprintf(messages.Unexpected)
	}
	switch verr.Rule {
	case validation.RuleEmail:
		return printer.Sprintf(messages.InvalidEmail)
	case validation.RulePhone:
		return printer.Sprintf(messages.InvalidPhone)
	default:
		return printer.Sprintf(messages.RequiredFields)
	}
}

func formSubmissionParams(v domain.FormValues) map[string]string {
	formType := "contato_rapido"
	programa := domain.NotInformed
	if v.Programa != "" {
		formType = "contato_com_programa"
		programa = v.Programa
	}
	return map[string]string{
		"form_type":            formType,
		"programa_selecionado": programa,
	}
}

func outcomeLabel(out Outcome) string {
	if out.State == StateSucceeded {
		return string(StateSucceeded)
	}
	return string(out.Kind())
}
