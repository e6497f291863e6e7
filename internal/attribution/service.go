package attribution

import (
	"context"
	"net/url"
	"time"

	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/telemetry"
)

// Analytics event names emitted while observing navigations.
const (
	EventCampaignStart = "utm_campaign_start"
	EventPageView      = "page_view_with_utm"
)

// EventTracker receives best-effort analytics events.
type EventTracker interface {
	Track(ctx context.Context, sessionID, name string, params map[string]string)
}

// PageView describes one navigation of a session.
type PageView struct {
	URL      *url.URL
	Referrer string
	Title    string
}

// Service runs capture on navigations and emits the related events.
type Service struct {
	store   *Store
	tracker EventTracker
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewService creates a Service. tracker and metrics may be nil.
func NewService(store *Store, tracker EventTracker, metrics *telemetry.Metrics) *Service {
	return &Service{
		store:   store,
		tracker: tracker,
		metrics: metrics,
		now:     store.now,
	}
}

// Store returns the underlying record store.
func (s *Service) Store() *Store {
	return s.store
}

// Observe captures attribution from a navigation. A qualifying navigation
// overwrites the stored record and starts a new campaign session. When a
// record is active afterwards a page view is reported. It returns the
// active record, or nil.
func (s *Service) Observe(ctx context.Context, sessionID string, view PageView) *domain.AttributionRecord {
	if rec := Capture(view.URL, view.Referrer, s.now()); rec != nil {
		s.store.Save(ctx, sessionID, rec)
		s.metrics.CaptureRecorded()
		s.track(ctx, sessionID, EventCampaignStart, map[string]string{
			"campaign_type": "new_session",
		})
	}

	active := s.store.Read(ctx, sessionID)
	if active != nil {
		params := map[string]string{"page_path": pagePath(view.URL)}
		if view.Title != "" {
			params["page_title"] = view.Title
		}
		s.track(ctx, sessionID, EventPageView, params)
	}
	return active
}

func (s *Service) track(ctx context.Context, sessionID, name string, params map[string]string) {
	if s.tracker == nil {
		return
	}
	s.tracker.Track(ctx, sessionID, name, params)
}

func pagePath(u *url.URL) string {
	if u == nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
