// Package config loads the lead-gateway configuration.
package config

import (
	"fmt"
	"time"

	infraconfig "github.com/performartech/hinis-website/infrastructure/config"
	infraredis "github.com/performartech/hinis-website/infrastructure/redis"
)

// Default configuration values.
const (
	defaultServiceName  = "lead-gateway"
	defaultServicePort  = 8095
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"

	defaultSessionBackend = SessionBackendMemory
	defaultSessionTTL     = 24 * time.Hour
	defaultSweepInterval  = time.Minute
	defaultRedisAddress   = "localhost:6379"

	defaultAttributionWindow = 30 * time.Minute

	defaultSubmitWindow       = 60 * time.Second
	defaultSubmitMaxAttempts  = 2
	defaultAPIRequestsPerMin  = 60
	defaultAPIBurst           = 20
	defaultVisitorIdleTimeout = 10 * time.Minute

	defaultTransportTimeout = 10 * time.Second
	defaultDialAttempts     = 3
	defaultRetryDelay       = 200 * time.Millisecond
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second

	defaultBufferSize     = 1000
	defaultFlushThreshold = 200
	defaultFlushInterval  = 2 * time.Second

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBName    = "lead_gateway"
	defaultDBUser    = "postgres"
	defaultDBSSLMode = "disable"

	defaultSiteRoot = "public"
)

// Session storage backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Session     SessionConfig     `yaml:"session"`
	Redis       infraredis.Config `yaml:"redis"`
	Attribution AttributionConfig `yaml:"attribution"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Transport   TransportConfig   `yaml:"transport"`
	Analytics   AnalyticsConfig   `yaml:"analytics"`
	Database    DatabaseConfig    `yaml:"database"`
	Site        SiteConfig        `yaml:"site"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name      string   `yaml:"name"`
	Version   string   `yaml:"version"`
	Port      int      `env:"LEAD_GATEWAY_PORT"      yaml:"port"`
	Debug     bool     `env:"APP_DEBUG"              yaml:"debug"`
	Origins   []string `env:"LEAD_GATEWAY_ORIGINS"   yaml:"allowed_origins"`
	JWTSecret string   `env:"AUTH_JWT_SECRET"        yaml:"jwt_secret"`
}

// SessionConfig selects where per-session state lives.
type SessionConfig struct {
	Backend       string        `env:"SESSION_BACKEND"       yaml:"backend"`
	TTL           time.Duration `env:"SESSION_TTL"           yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SecureCookie  bool          `env:"SESSION_SECURE_COOKIE" yaml:"secure_cookie"`
	CookieDomain  string        `env:"SESSION_COOKIE_DOMAIN" yaml:"cookie_domain"`
}

// AttributionConfig holds attribution capture configuration.
type AttributionConfig struct {
	Window time.Duration `yaml:"window"`
}

// RateLimitConfig holds both submission and API rate limits.
type RateLimitConfig struct {
	SubmitWindow       time.Duration `yaml:"submit_window"`
	SubmitMaxAttempts  int           `yaml:"submit_max_attempts"`
	APIRequestsPerMin  int           `yaml:"api_requests_per_minute"`
	APIBurst           int           `yaml:"api_burst"`
	VisitorIdleTimeout time.Duration `yaml:"visitor_idle_timeout"`
}

// TransportConfig holds the delivery endpoint configuration.
type TransportConfig struct {
	EndpointURL      string        `env:"GOOGLE_SCRIPT_URL"   yaml:"endpoint_url"`
	Timeout          time.Duration `env:"TRANSPORT_TIMEOUT"   yaml:"timeout"`
	DialAttempts     int           `yaml:"dial_attempts"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout"`
}

// AnalyticsConfig holds analytics sink configuration.
type AnalyticsConfig struct {
	GA4MeasurementID string        `env:"GA4_MEASUREMENT_ID" yaml:"ga4_measurement_id"`
	GA4APISecret     string        `env:"GA4_API_SECRET"     yaml:"ga4_api_secret"`
	GA4Endpoint      string        `yaml:"ga4_endpoint"`
	ArchiveEnabled   bool          `env:"ANALYTICS_ARCHIVE"  yaml:"archive_enabled"`
	BufferSize       int           `yaml:"buffer_size"`
	FlushThreshold   int           `yaml:"flush_threshold"`
	FlushInterval    time.Duration `yaml:"flush_interval"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_LEAD_GATEWAY_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_LEAD_GATEWAY_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_LEAD_GATEWAY_USER"     yaml:"user"`
	Password string `env:"POSTGRES_LEAD_GATEWAY_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_LEAD_GATEWAY_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_LEAD_GATEWAY_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// URL returns the connection string in URL form, as golang-migrate expects.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// SiteConfig points at the static brochure site.
type SiteConfig struct {
	Root string `env:"SITE_ROOT" yaml:"root"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setSessionDefaults(&cfg.Session, &cfg.Redis)
	setAttributionDefaults(&cfg.Attribution)
	setRateLimitDefaults(&cfg.RateLimit)
	setTransportDefaults(&cfg.Transport)
	setAnalyticsDefaults(&cfg.Analytics)
	setDatabaseDefaults(&cfg.Database)
	if cfg.Site.Root == "" {
		cfg.Site.Root = defaultSiteRoot
	}
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

func setSessionDefaults(s *SessionConfig, r *infraredis.Config) {
	if s.Backend == "" {
		s.Backend = defaultSessionBackend
	}
	if s.TTL == 0 {
		s.TTL = defaultSessionTTL
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = defaultSweepInterval
	}
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
}

func setAttributionDefaults(a *AttributionConfig) {
	if a.Window == 0 {
		a.Window = defaultAttributionWindow
	}
}

func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.SubmitWindow == 0 {
		rl.SubmitWindow = defaultSubmitWindow
	}
	if rl.SubmitMaxAttempts == 0 {
		rl.SubmitMaxAttempts = defaultSubmitMaxAttempts
	}
	if rl.APIRequestsPerMin == 0 {
		rl.APIRequestsPerMin = defaultAPIRequestsPerMin
	}
	if rl.APIBurst == 0 {
		rl.APIBurst = defaultAPIBurst
	}
	if rl.VisitorIdleTimeout == 0 {
		rl.VisitorIdleTimeout = defaultVisitorIdleTimeout
	}
}

func setTransportDefaults(t *TransportConfig) {
	if t.Timeout == 0 {
		t.Timeout = defaultTransportTimeout
	}
	if t.DialAttempts == 0 {
		t.DialAttempts = defaultDialAttempts
	}
	if t.RetryDelay == 0 {
		t.RetryDelay = defaultRetryDelay
	}
	if t.BreakerThreshold == 0 {
		t.BreakerThreshold = defaultBreakerThreshold
	}
	if t.BreakerTimeout == 0 {
		t.BreakerTimeout = defaultBreakerTimeout
	}
}

func setAnalyticsDefaults(a *AnalyticsConfig) {
	if a.BufferSize == 0 {
		a.BufferSize = defaultBufferSize
	}
	if a.FlushThreshold == 0 {
		a.FlushThreshold = defaultFlushThreshold
	}
	if a.FlushInterval == 0 {
		a.FlushInterval = defaultFlushInterval
	}
}

func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration. An unconfigured transport endpoint
// is not an error: the service runs and reports it on every submission.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateOneOf("session.backend", c.Session.Backend,
		SessionBackendMemory, SessionBackendRedis); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositiveDuration("attribution.window", c.Attribution.Window); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("rate_limit.submit_max_attempts", c.RateLimit.SubmitMaxAttempts); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositiveDuration("rate_limit.submit_window", c.RateLimit.SubmitWindow); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("transport.dial_attempts", c.Transport.DialAttempts); err != nil {
		return err
	}
	if err := infraconfig.ValidateLogLevel("logging.level", c.Logging.Level); err != nil {
		return err
	}
	if c.Analytics.GA4MeasurementID != "" && c.Analytics.GA4APISecret == "" {
		return &infraconfig.ValidationError{
			Field:   "analytics.ga4_api_secret",
			Message: "is required when ga4_measurement_id is set",
		}
	}
	return nil
}
