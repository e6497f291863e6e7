// Package domain holds the value types shared by attribution capture, the
// submission pipeline and analytics.
package domain

import "time"

// Recognized attribution parameter names, in capture order.
const (
	ParamSource   = "utm_source"
	ParamMedium   = "utm_medium"
	ParamCampaign = "utm_campaign"
	ParamTerm     = "utm_term"
	ParamContent  = "utm_content"
)

// Submission field names added next to the five parameters.
const (
	FieldLandingPage = "landing_page"
	FieldReferrer    = "referrer"
)

// DirectReferrer is stored when a navigation has no referrer.
const DirectReferrer = "direct"

// NotInformed replaces missing parameters in outbound submissions only.
const NotInformed = "não informado"

// AttributionParams lists the recognized parameters in a fixed order.
var AttributionParams = []string{ParamSource, ParamMedium, ParamCampaign, ParamTerm, ParamContent}

// AttributionRecord is the campaign context captured from a landing URL.
// A record is only ever stored when HasParams is true.
type AttributionRecord struct {
	Source      string `json:"utm_source,omitempty"`
	Medium      string `json:"utm_medium,omitempty"`
	Campaign    string `json:"utm_campaign,omitempty"`
	Term        string `json:"utm_term,omitempty"`
	Content     string `json:"utm_content,omitempty"`
	Timestamp   int64  `json:"timestamp"`
	LandingPage string `json:"landing_page"`
	Referrer    string `json:"referrer"`
}

// Param returns the value of a recognized parameter, or "".
func (r *AttributionRecord) Param(name string) string {
	switch name {
	case ParamSource:
		return r.Source
	case ParamMedium:
		return r.Medium
	case ParamCampaign:
		return r.Campaign
	case ParamTerm:
		return r.Term
	case ParamContent:
		return r.Content
	default:
		return ""
	}
}

// SetParam assigns a recognized parameter. It reports false for unknown names.
func (r *AttributionRecord) SetParam(name, value string) bool {
	switch name {
	case ParamSource:
		r.Source = value
	case ParamMedium:
		r.Medium = value
	case ParamCampaign:
		r.Campaign = value
	case ParamTerm:
		r.Term = value
	case ParamContent:
		r.Content = value
	default:
		return false
	}
	return true
}

// HasParams reports whether at least one parameter is set.
func (r *AttributionRecord) HasParams() bool {
	for _, name := range AttributionParams {
		if r.Param(name) != "" {
			return true
		}
	}
	return false
}

// CapturedAt returns the capture timestamp as a time.
func (r *AttributionRecord) CapturedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}
