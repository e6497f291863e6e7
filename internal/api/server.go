package api

import (
	"time"

	"github.com/gin-gonic/gin"
	infragin "github.com/performartech/hinis-website/infrastructure/gin"
	infralogger "github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/config"
	"github.com/performartech/hinis-website/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// NewServer creates the HTTP server. checks are added to /health.
func NewServer(
	h Handlers,
	observer middleware.Observer,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
	log infralogger.Logger,
	checks map[string]infragin.HealthChecker,
	done <-chan struct{},
) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout)

	if len(cfg.Service.Origins) > 0 {
		builder = builder.WithCORS(infragin.CORSConfig{
			AllowedOrigins:   cfg.Service.Origins,
			AllowCredentials: true,
		})
	}
	for name, check := range checks {
		builder = builder.WithHealthCheck(name, check)
	}

	routeCfg := RouteConfig{
		Session: middleware.SessionConfig{
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.SecureCookie,
			Domain: cfg.Session.CookieDomain,
		},
		SiteRoot:           cfg.Site.Root,
		APIRequestsPerMin:  cfg.RateLimit.APIRequestsPerMin,
		APIBurst:           cfg.RateLimit.APIBurst,
		VisitorIdleTimeout: cfg.RateLimit.VisitorIdleTimeout,
		JWTSecret:          cfg.Service.JWTSecret,
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, h, observer, gatherer, routeCfg, done)
		}).
		Build()
}
