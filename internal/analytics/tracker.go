// Package analytics fans campaign events out to best-effort sinks.
package analytics

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/telemetry"
)

// AttributionReader provides the active record of a session.
type AttributionReader interface {
	Read(ctx context.Context, sessionID string) *domain.AttributionRecord
}

// Sink accepts events. Emit must not block on remote I/O.
type Sink interface {
	Name() string
	Emit(ctx context.Context, event domain.AnalyticsEvent) error
}

// Tracker enriches events with the session's campaign context and hands
// them to every sink. Sink failures are logged and never returned.
type Tracker struct {
	source  AttributionReader
	sinks   []Sink
	log     logger.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewTracker creates a Tracker. source and metrics may be nil.
func NewTracker(source AttributionReader, log logger.Logger, metrics *telemetry.Metrics, sinks ...Sink) *Tracker {
	return &Tracker{
		source:  source,
		sinks:   sinks,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// Track emits a named event for the session.
func (t *Tracker) Track(ctx context.Context, sessionID, name string, params map[string]string) {
	event := t.Event(ctx, sessionID, name, params)
	t.metrics.EventTracked(name)

	for _, sink := range t.sinks {
		if err := emit(ctx, sink, event); err != nil {
			t.metrics.SinkFailed(sink.Name())
			t.log.Warn("Analytics sink rejected event",
				logger.String("sink", sink.Name()),
				logger.String("event", name),
				logger.Error(err),
			)
		}
	}
}

// Event builds the enriched event without emitting it. Campaign fields
// override caller params of the same name.
func (t *Tracker) Event(ctx context.Context, sessionID, name string, params map[string]string) domain.AnalyticsEvent {
	merged := make(map[string]string, len(params)+7)
	maps.Copy(merged, params)

	if t.source != nil {
		if rec := t.source.Read(ctx, sessionID); rec != nil {
			setIfPresent(merged, "campaign_source", rec.Source)
			setIfPresent(merged, "campaign_medium", rec.Medium)
			setIfPresent(merged, "campaign_name", rec.Campaign)
			setIfPresent(merged, "campaign_term", rec.Term)
			setIfPresent(merged, "campaign_content", rec.Content)
			setIfPresent(merged, "landing_page", rec.LandingPage)
			setIfPresent(merged, "referrer", rec.Referrer)
		}
	}

	return domain.AnalyticsEvent{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Name:       name,
		Params:     merged,
		OccurredAt: t.now().UTC(),
	}
}

func setIfPresent(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func emit(ctx context.Context, sink Sink, event domain.AnalyticsEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return sink.Emit(ctx, event)
}
