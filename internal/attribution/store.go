package attribution

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/messages"
	"github.com/performartech/hinis-website/internal/session"
	"golang.org/x/text/message"
)

// StorageKey is the session key holding the JSON-encoded record.
const StorageKey = "hinis_utm_data"

// SessionDuration is how long a captured record stays active.
const SessionDuration = 30 * time.Minute

// Store persists at most one record per session. Storage failures are
// logged and otherwise ignored so that capture and submission keep working.
type Store struct {
	sessions session.Store
	log      logger.Logger
	now      func() time.Time
	duration time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDuration overrides SessionDuration.
func WithDuration(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.duration = d
		}
	}
}

// NewStore creates a Store on top of a session store.
func NewStore(sessions session.Store, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		sessions: sessions,
		log:      log,
		now:      time.Now,
		duration: SessionDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save replaces the session's record. Nil records are ignored.
func (s *Store) Save(ctx context.Context, sessionID string, rec *domain.AttributionRecord) {
	if rec == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		s.log.Error("Failed to encode attribution record", logger.Error(err))
		return
	}
	if err = s.sessions.Set(ctx, sessionID, StorageKey, raw); err != nil {
		s.log.Error("Failed to save attribution record",
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
	}
}

// Read returns the active record, or nil. A record older than the session
// duration is evicted on read.
func (s *Store) Read(ctx context.Context, sessionID string) *domain.AttributionRecord {
	raw, err := s.sessions.Get(ctx, sessionID, StorageKey)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.log.Error("Failed to read attribution record",
				logger.String("session_id", sessionID),
				logger.Error(err),
			)
		}
		return nil
	}

	var rec domain.AttributionRecord
	if err = json.Unmarshal(raw, &rec); err != nil {
		s.log.Warn("Discarding undecodable attribution record",
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
		return nil
	}

	if s.now().Sub(rec.CapturedAt()) > s.duration {
		s.Clear(ctx, sessionID)
		return nil
	}
	return &rec
}

// Clear removes the session's record.
func (s *Store) Clear(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID, StorageKey); err != nil {
		s.log.Error("Failed to clear attribution record",
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
	}
}

// FormatForSubmission returns the seven submission fields, with missing
// parameters set to domain.NotInformed. Without an active record the map is
// empty.
func (s *Store) FormatForSubmission(ctx context.Context, sessionID string) map[string]string {
	rec := s.Read(ctx, sessionID)
	if rec == nil {
		return map[string]string{}
	}

	fields := make(map[string]string, len(domain.AttributionParams)+2)
	for _, name := range domain.AttributionParams {
		v := rec.Param(name)
		if v == "" {
			v = domain.NotInformed
		}
		fields[name] = v
	}
	fields[domain.FieldLandingPage] = rec.LandingPage
	fields[domain.FieldReferrer] = rec.Referrer
	if fields[domain.FieldReferrer] == "" {
		fields[domain.FieldReferrer] = domain.DirectReferrer
	}
	return fields
}

// Summary returns a one-line description of the active record.
func (s *Store) Summary(ctx context.Context, sessionID string, p *message.Printer) string {
	return Summarize(s.Read(ctx, sessionID), p)
}

var summaryLabels = []struct {
	param string
	key   string
}{
	{domain.ParamSource, messages.SummarySource},
	{domain.ParamMedium, messages.SummaryMedium},
	{domain.ParamCampaign, messages.SummaryCampaign},
	{domain.ParamTerm, messages.SummaryTerm},
	{domain.ParamContent, messages.SummaryContent},
}

// Summarize formats rec as "Origem: x | Mídia: y | ...", listing only the
// parameters that are set.
func Summarize(rec *domain.AttributionRecord, p *message.Printer) string {
	if p == nil {
		p = messages.Printer(messages.Default)
	}
	if rec == nil {
		return p.Sprintf(messages.SummaryDirect)
	}

	parts := make([]string, 0, len(summaryLabels))
	for _, l := range summaryLabels {
		if v := rec.Param(l.param); v != "" {
			parts = append(parts, p.Sprintf(l.key, v))
		}
	}
	return strings.Join(parts, p.Sprintf(messages.SummarySeparator))
}
