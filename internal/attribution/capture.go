// Package attribution captures campaign parameters from landing URLs, keeps
// them for a bounded window per session and formats them for submissions.
package attribution

import (
	"net/url"
	"time"

	"github.com/performartech/hinis-website/internal/domain"
)

// Capture extracts the recognized parameters from u. It returns nil when
// none is present with a non-empty value.
func Capture(u *url.URL, referrer string, now time.Time) *domain.AttributionRecord {
	if u == nil {
		return nil
	}

	query := u.Query()
	rec := &domain.AttributionRecord{}
	for _, name := range domain.AttributionParams {
		if v := query.Get(name); v != "" {
			rec.SetParam(name, v)
		}
	}
	if !rec.HasParams() {
		return nil
	}

	rec.Timestamp = now.UnixMilli()
	rec.LandingPage = u.Path
	if rec.LandingPage == "" {
		rec.LandingPage = "/"
	}
	rec.Referrer = referrer
	if rec.Referrer == "" {
		rec.Referrer = domain.DirectReferrer
	}
	return rec
}
