package submission

import "github.com/performartech/hinis-website/internal/domain"

// FeedbackKind tells the form how to style a message.
type FeedbackKind string

// Feedback kinds.
const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

// Form is the UI surface of one contact form instance.
type Form interface {
	Values() domain.FormValues
	DisableSubmit(busyLabel string)
	EnableSubmit(label string)
	ShowFeedback(kind FeedbackKind, message string)
	Reset()
}

// FormState records the effects applied to a form. It implements Form for
// request/response transports where the client applies the state itself.
type FormState struct {
	Input         domain.FormValues
	SubmitEnabled bool
	SubmitLabel   string
	FeedbackKind  FeedbackKind
	Feedback      string
	Cleared       bool
}

// NewFormState creates an enabled form holding input.
func NewFormState(input domain.FormValues, label string) *FormState {
	return &FormState{Input: input, SubmitEnabled: true, SubmitLabel: label}
}

func (f *FormState) Values() domain.FormValues { return f.Input }

func (f *FormState) DisableSubmit(busyLabel string) {
	f.SubmitEnabled = false
	f.SubmitLabel = busyLabel
}

func (f *FormState) EnableSubmit(label string) {
	f.SubmitEnabled = true
	f.SubmitLabel = label
}

func (f *FormState) ShowFeedback(kind FeedbackKind, message string) {
	f.FeedbackKind = kind
	f.Feedback = message
}

func (f *FormState) Reset() {
	f.Input = domain.FormValues{}
	f.Cleared = true
}
