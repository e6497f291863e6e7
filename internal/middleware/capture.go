package middleware

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/performartech/hinis-website/internal/attribution"
	"github.com/performartech/hinis-website/internal/domain"
)

// Observer runs attribution capture for a page navigation.
type Observer interface {
	Observe(ctx context.Context, sessionID string, view attribution.PageView) *domain.AttributionRecord
}

// Capture observes GET navigations to site pages. Assets, API calls and
// bots are skipped. It must run after Session and BotFilter.
func Capture(observer Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && IsPage(c.Request.URL.Path) && !IsBot(c) {
			if sid := SessionID(c); sid != "" {
				observer.Observe(c.Request.Context(), sid, attribution.PageView{
					URL:      c.Request.URL,
					Referrer: c.Request.Referer(),
				})
			}
		}
		c.Next()
	}
}

// IsPage reports whether p addresses an HTML page of the site.
func IsPage(p string) bool {
	if strings.HasPrefix(p, "/api/") || p == "/metrics" || strings.HasPrefix(p, "/health") {
		return false
	}
	switch path.Ext(p) {
	case "", ".html", ".htm":
		return true
	default:
		return false
	}
}
