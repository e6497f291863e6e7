package gin_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	infragin "github.com/performartech/hinis-website/infrastructure/gin"
	"github.com/performartech/hinis-website/infrastructure/logger"
)

func TestRequestIDLoggerMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	const expectedLen = 32
	if got := w.Header().Get("X-Request-ID"); len(got) != expectedLen {
		t.Errorf("generated request ID %q has length %d, want %d", got, len(got), expectedLen)
	}
}

func TestRequestIDLoggerMiddleware_PreservesInboundID(t *testing.T) {
	t.Parallel()

	const inboundID = "trace-from-upstream-abc123"
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", inboundID)
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != inboundID {
		t.Errorf("X-Request-ID = %q, want %q", got, inboundID)
	}
}

func TestRequestIDLoggerMiddleware_RejectsOversizedID(t *testing.T) {
	t.Parallel()

	oversized := strings.Repeat("x", 200)
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-ID", oversized)
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got == oversized || got == "" {
		t.Errorf("X-Request-ID = %q, want a freshly generated id", got)
	}
}

func TestCORSMiddleware_CredentialedEchoesOrigin(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{
		AllowedOrigins:   []string{"https://hinis.example"},
		AllowCredentials: true,
	}))
	router.POST("/form", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/form", http.NoBody)
	req.Header.Set("Origin", "https://hinis.example")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://hinis.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
}

func TestCORSMiddleware_UnknownOriginGetsNoHeaders(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{AllowedOrigins: []string{"https://hinis.example"}}))
	router.GET("/x", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	req.Header.Set("Origin", "https://evil.example")
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
}

func TestRecoveryMiddleware_Returns500(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.RecoveryMiddleware(logger.NewNop()))
	router.GET("/boom", func(*ginpkg.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHealth_DegradedOptionalCheck(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	infragin.RegisterHealthRoutes(router, infragin.HealthOptions{
		ServiceName: "lead-gateway",
		Checks: map[string]infragin.HealthChecker{
			"redis": infragin.PingHealthChecker(func() error { return errors.New("down") }, true),
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"degraded"`) {
		t.Errorf("body = %s, want degraded status", w.Body.String())
	}
}

func newTestRouter(t *testing.T) *ginpkg.Engine {
	t.Helper()

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(logger.NewNop()))
	router.GET("/test", func(c *ginpkg.Context) {
		if logger.FromContext(c.Request.Context()) == nil {
			t.Error("no logger in request context")
		}
		c.String(http.StatusOK, "ok")
	})
	return router
}
