package attribution_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/attribution"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/messages"
	"github.com/performartech/hinis-website/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const sid = "3f1c2a1e-7a4b-4c39-9a57-2d4f0c7d9b10"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newStore(c *clock) (*attribution.Store, *session.MemoryStore) {
	sessions := session.NewMemoryStore(session.DefaultTTL, session.WithClock(c.Now))
	return attribution.NewStore(sessions, logger.NewNop(), attribution.WithClock(c.Now)), sessions
}

func TestCapture(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name     string
		raw      string
		referrer string
		want     *domain.AttributionRecord
	}{
		{
			name: "no parameters",
			raw:  "https://hinis.example/programas?ref=abc",
			want: nil,
		},
		{
			name: "empty values are ignored",
			raw:  "https://hinis.example/?utm_source=&utm_medium=",
			want: nil,
		},
		{
			name: "two parameters with direct referrer",
			raw:  "https://hinis.example/programas/essencia.html?utm_source=ig&utm_medium=story",
			want: &domain.AttributionRecord{
				Source:      "ig",
				Medium:      "story",
				Timestamp:   now.UnixMilli(),
				LandingPage: "/programas/essencia.html",
				Referrer:    domain.DirectReferrer,
			},
		},
		{
			name:     "all parameters keep the referrer",
			raw:      "https://hinis.example/?utm_source=google&utm_medium=cpc&utm_campaign=verao&utm_term=yoga&utm_content=banner",
			referrer: "https://www.google.com/",
			want: &domain.AttributionRecord{
				Source:      "google",
				Medium:      "cpc",
				Campaign:    "verao",
				Term:        "yoga",
				Content:     "banner",
				Timestamp:   now.UnixMilli(),
				LandingPage: "/",
				Referrer:    "https://www.google.com/",
			},
		},
		{
			name: "first value wins",
			raw:  "https://hinis.example/x?utm_campaign=a&utm_campaign=b",
			want: &domain.AttributionRecord{
				Campaign:    "a",
				Timestamp:   now.UnixMilli(),
				LandingPage: "/x",
				Referrer:    domain.DirectReferrer,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := attribution.Capture(mustParse(t, tt.raw), tt.referrer, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_PlaceholderOnlyInSubmission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newClock()
	store, _ := newStore(c)

	rec := attribution.Capture(mustParse(t, "https://hinis.example/?utm_source=ig&utm_medium=story"), "", c.Now())
	require.NotNil(t, rec)
	store.Save(ctx, sid, rec)

	stored := store.Read(ctx, sid)
	require.NotNil(t, stored)
	assert.Equal(t, "ig", stored.Source)
	assert.Equal(t, "story", stored.Medium)
	assert.Empty(t, stored.Campaign)
	assert.Empty(t, stored.Term)
	assert.Empty(t, stored.Content)

	assert.Equal(t, map[string]string{
		"utm_source":   "ig",
		"utm_medium":   "story",
		"utm_campaign": domain.NotInformed,
		"utm_term":     domain.NotInformed,
		"utm_content":  domain.NotInformed,
		"landing_page": "/",
		"referrer":     "direct",
	}, store.FormatForSubmission(ctx, sid))
}

func TestStore_ExpiresLazilyOnRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newClock()
	store, sessions := newStore(c)

	store.Save(ctx, sid, attribution.Capture(mustParse(t, "/?utm_source=ig"), "", c.Now()))

	c.Advance(attribution.SessionDuration)
	require.NotNil(t, store.Read(ctx, sid), "a record exactly one window old is still active")

	c.Advance(time.Millisecond)
	assert.Nil(t, store.Read(ctx, sid))

	_, err := sessions.Get(ctx, sid, attribution.StorageKey)
	require.ErrorIs(t, err, session.ErrNotFound, "expired record must be evicted")
	assert.Empty(t, store.FormatForSubmission(ctx, sid))
}

func TestStore_SaveOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newClock()
	store, _ := newStore(c)

	store.Save(ctx, sid, attribution.Capture(mustParse(t, "/?utm_source=ig&utm_term=yoga"), "", c.Now()))
	c.Advance(time.Minute)
	store.Save(ctx, sid, attribution.Capture(mustParse(t, "/b?utm_source=fb"), "", c.Now()))

	got := store.Read(ctx, sid)
	require.NotNil(t, got)
	assert.Equal(t, "fb", got.Source)
	assert.Empty(t, got.Term, "records are replaced, not merged")
	assert.Equal(t, "/b", got.LandingPage)
}

func TestStore_ClearAndSessionIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newClock()
	store, _ := newStore(c)

	store.Save(ctx, sid, attribution.Capture(mustParse(t, "/?utm_source=ig"), "", c.Now()))
	assert.Nil(t, store.Read(ctx, "another-session"))

	store.Clear(ctx, sid)
	assert.Nil(t, store.Read(ctx, sid))
}

func TestStore_UndecodableRecordIsAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newClock()
	store, sessions := newStore(c)

	require.NoError(t, sessions.Set(ctx, sid, attribution.StorageKey, []byte("{not json")))
	assert.Nil(t, store.Read(ctx, sid))
}

type brokenSessions struct{}

var errUnavailable = errors.New("storage unavailable")

func (brokenSessions) Get(context.Context, string, string) ([]byte, error) {
	return nil, errUnavailable
}

func (brokenSessions) Set(context.Context, string, string, []byte) error { return errUnavailable }

func (brokenSessions) Delete(context.Context, string, string) error { return errUnavailable }

func TestStore_UnavailableStorageDegradesSilently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := attribution.NewStore(brokenSessions{}, logger.NewNop())

	store.Save(ctx, sid, &domain.AttributionRecord{Source: "ig", Timestamp: 1})
	store.Clear(ctx, sid)
	assert.Nil(t, store.Read(ctx, sid))
	assert.Empty(t, store.FormatForSubmission(ctx, sid))
	assert.Equal(t, "Acesso direto (sem UTM)", store.Summary(ctx, sid, nil))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	rec := &domain.AttributionRecord{Source: "ig", Medium: "story", Content: "reel"}

	assert.Equal(t, "Origem: ig | Mídia: story | Conteúdo: reel",
		attribution.Summarize(rec, messages.Printer(language.BrazilianPortuguese)))
	assert.Equal(t, "Source: ig | Medium: story | Content: reel",
		attribution.Summarize(rec, messages.Printer(language.English)))
	assert.Equal(t, "Acesso direto (sem UTM)", attribution.Summarize(nil, nil))
}

type recordedEvent struct {
	name   string
	params map[string]string
}

type fakeTracker struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeTracker) Track(_ context.Context, _ string, name string, params map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{name: name, params: params})
}

func TestService_Observe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newClock()
	store, _ := newStore(c)
	tracker := &fakeTracker{}
	svc := attribution.NewService(store, tracker, nil)

	active := svc.Observe(ctx, sid, attribution.PageView{URL: mustParse(t, "/sobre.html")})
	assert.Nil(t, active)
	assert.Empty(t, tracker.events, "no events without an active record")

	active = svc.Observe(ctx, sid, attribution.PageView{
		URL:   mustParse(t, "/?utm_source=ig&utm_campaign=verao"),
		Title: "Hinis",
	})
	require.NotNil(t, active)
	require.Len(t, tracker.events, 2)
	assert.Equal(t, attribution.EventCampaignStart, tracker.events[0].name)
	assert.Equal(t, "new_session", tracker.events[0].params["campaign_type"])
	assert.Equal(t, attribution.EventPageView, tracker.events[1].name)
	assert.Equal(t, "/", tracker.events[1].params["page_path"])
	assert.Equal(t, "Hinis", tracker.events[1].params["page_title"])

	c.Advance(5 * time.Minute)
	active = svc.Observe(ctx, sid, attribution.PageView{URL: mustParse(t, "/contato.html")})
	require.NotNil(t, active)
	assert.Equal(t, "verao", active.Campaign)
	require.Len(t, tracker.events, 3)
	assert.Equal(t, "/contato.html", tracker.events[2].params["page_path"])
}
