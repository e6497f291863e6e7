package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	infrajwt "github.com/performartech/hinis-website/infrastructure/jwt"
	"github.com/performartech/hinis-website/internal/handler"
	"github.com/performartech/hinis-website/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes.
type Handlers struct {
	Attribution *handler.AttributionHandler
	Events      *handler.EventsHandler
	Contact     *handler.ContactHandler
	// Admin is nil when the event archive is disabled.
	Admin *handler.AdminHandler
}

// RouteConfig carries the settings that shape the routes.
type RouteConfig struct {
	Session            middleware.SessionConfig
	SiteRoot           string
	APIRequestsPerMin  int
	APIBurst           int
	VisitorIdleTimeout time.Duration
	JWTSecret          string
}

// SetupRoutes configures all routes. Health routes are registered by the
// infrastructure gin builder.
func SetupRoutes(
	router *gin.Engine,
	h Handlers,
	observer middleware.Observer,
	gatherer prometheus.Gatherer,
	cfg RouteConfig,
	done <-chan struct{},
) {
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	session := middleware.Session(cfg.Session)
	botFilter := middleware.BotFilter()

	v1 := router.Group("/api/v1")
	v1.Use(session, botFilter)
	v1.Use(middleware.RateLimiter(cfg.APIRequestsPerMin, cfg.APIBurst, cfg.VisitorIdleTimeout, done))
	{
		v1.POST("/attribution/capture", h.Attribution.Capture)
		v1.GET("/attribution", h.Attribution.Get)
		v1.DELETE("/attribution", h.Attribution.Clear)
		v1.GET("/attribution/submission", h.Attribution.Submission)
		v1.GET("/attribution/summary", h.Attribution.Summary)

		v1.POST("/events", h.Events.Track)
		v1.POST("/forms/contact", h.Contact.Submit)
	}

	if h.Admin != nil && cfg.JWTSecret != "" {
		admin := router.Group("/api/v1/admin")
		admin.Use(infrajwt.Middleware(cfg.JWTSecret))
		admin.GET("/events", h.Admin.RecentEvents)
	}

	if cfg.SiteRoot != "" {
		router.NoRoute(session, botFilter, middleware.Capture(observer), siteHandler(cfg.SiteRoot))
	}
}

// siteHandler serves the static brochure site.
func siteHandler(root string) gin.HandlerFunc {
	files := http.FileServer(gin.Dir(root, false))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
