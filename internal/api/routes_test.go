package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	infralogger "github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/api"
	"github.com/performartech/hinis-website/internal/attribution"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/handler"
	"github.com/performartech/hinis-website/internal/middleware"
	"github.com/performartech/hinis-website/internal/ratelimit"
	"github.com/performartech/hinis-website/internal/session"
	"github.com/performartech/hinis-website/internal/submission"
	"github.com/performartech/hinis-website/internal/telemetry"
	"github.com/performartech/hinis-website/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopReader struct{}

func (nopReader) Recent(context.Context, string, int) ([]domain.AnalyticsEvent, error) {
	return nil, nil
}

type nopTracker struct{}

func (nopTracker) Track(context.Context, string, string, map[string]string) {}

func newRouter(t *testing.T) (*gin.Engine, *attribution.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>HINIS</h1>"), 0o600))

	log := infralogger.NewNop()
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	store := attribution.NewStore(session.NewMemoryStore(time.Hour), log)
	service := attribution.NewService(store, nopTracker{}, metrics)
	pipeline := submission.NewPipeline(submission.Deps{
		Admission:   ratelimit.NewRegistry(ratelimit.DefaultWindow, ratelimit.DefaultMaxAttempts),
		Attribution: store,
		Endpoint:    transport.ParseEndpoint(""),
		Dispatcher:  transport.NewDispatcher(transport.Config{}, log, metrics),
		Log:         log,
		Metrics:     metrics,
	})

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	r := gin.New()
	api.SetupRoutes(r, api.Handlers{
		Attribution: handler.NewAttributionHandler(service, log),
		Events:      handler.NewEventsHandler(nopTracker{}),
		Contact:     handler.NewContactHandler(pipeline),
		Admin:       handler.NewAdminHandler(nopReader{}, log),
	}, service, reg, api.RouteConfig{
		Session:            middleware.SessionConfig{TTL: time.Hour},
		SiteRoot:           root,
		APIRequestsPerMin:  60,
		APIBurst:           10,
		VisitorIdleTimeout: time.Minute,
		JWTSecret:          "secret",
	}, done)
	return r, service
}

func TestRoutes_SiteCapturesAttribution(t *testing.T) {
	t.Parallel()

	r, service := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/?utm_source=instagram&utm_medium=social", http.NoBody)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "HINIS")

	var sid string
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			sid = c.Value
		}
	}
	require.NotEmpty(t, sid)

	rec := service.Store().Read(context.Background(), sid)
	require.NotNil(t, rec)
	assert.Equal(t, "instagram", rec.Source)
	assert.Equal(t, "/", rec.LandingPage)
}

func TestRoutes_Metrics(t *testing.T) {
	t.Parallel()

	r, _ := newRouter(t)

	// one capture so that at least one lead-gateway series exists
	req := httptest.NewRequest(http.MethodGet, "/?utm_source=google", http.NoBody)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "attribution_captures_total")
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	t.Parallel()

	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/events", http.NoBody))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_ContactUnconfigured(t *testing.T) {
	t.Parallel()

	r, _ := newRouter(t)
	body := `{"nome":"Ana","email":"ana@example.com","telefone":"11987654321","programa":"mba"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"configuration"`)
}

func TestRoutes_UnknownPostIsNotFound(t *testing.T) {
	t.Parallel()

	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/anything", http.NoBody))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
