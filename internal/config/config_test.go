package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	infraconfig "github.com/performartech/hinis-website/infrastructure/config"
)

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Service.Name != defaultServiceName {
		t.Errorf("service.name: got %q, want %q", cfg.Service.Name, defaultServiceName)
	}
	if cfg.Service.Port != defaultServicePort {
		t.Errorf("service.port: got %d, want %d", cfg.Service.Port, defaultServicePort)
	}
	if cfg.Session.Backend != SessionBackendMemory {
		t.Errorf("session.backend: got %q, want memory", cfg.Session.Backend)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session.ttl: got %v, want 24h", cfg.Session.TTL)
	}
	if cfg.Attribution.Window != 30*time.Minute {
		t.Errorf("attribution.window: got %v, want 30m", cfg.Attribution.Window)
	}
	if cfg.RateLimit.SubmitWindow != time.Minute || cfg.RateLimit.SubmitMaxAttempts != 2 {
		t.Errorf("rate_limit: got %v/%d, want 1m/2",
			cfg.RateLimit.SubmitWindow, cfg.RateLimit.SubmitMaxAttempts)
	}
	if cfg.Transport.EndpointURL != "" {
		t.Errorf("transport.endpoint_url: got %q, want empty", cfg.Transport.EndpointURL)
	}
	if cfg.Redis.Address != defaultRedisAddress {
		t.Errorf("redis.address: got %q, want %q", cfg.Redis.Address, defaultRedisAddress)
	}
	if cfg.Site.Root != defaultSiteRoot {
		t.Errorf("site.root: got %q, want %q", cfg.Site.Root, defaultSiteRoot)
	}
	if cfg.Logging.Level != defaultLoggingLevel {
		t.Errorf("logging.level: got %q, want %q", cfg.Logging.Level, defaultLoggingLevel)
	}
}

func TestSetDefaults_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Session:   SessionConfig{Backend: SessionBackendRedis, TTL: time.Hour},
		RateLimit: RateLimitConfig{SubmitMaxAttempts: 5},
	}
	setDefaults(cfg)

	if cfg.Session.Backend != SessionBackendRedis {
		t.Errorf("session.backend: got %q, want redis", cfg.Session.Backend)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("session.ttl: got %v, want 1h", cfg.Session.TTL)
	}
	if cfg.RateLimit.SubmitMaxAttempts != 5 {
		t.Errorf("rate_limit.submit_max_attempts: got %d, want 5", cfg.RateLimit.SubmitMaxAttempts)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Session.Backend = "dynamo" }, wantField: "session.backend"},
		{name: "bad port", mutate: func(c *Config) { c.Service.Port = 70000 }, wantField: "service.port"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantField: "logging.level"},
		{
			name:      "ga4 without secret",
			mutate:    func(c *Config) { c.Analytics.GA4MeasurementID = "G-TEST" },
			wantField: "analytics.ga4_api_secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{}
			setDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *infraconfig.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field: got %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yml")
	body := "transport:\n  endpoint_url: https://script.example.com/exec\nsession:\n  backend: redis\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LEAD_GATEWAY_PORT", "9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport.EndpointURL != "https://script.example.com/exec" {
		t.Errorf("transport.endpoint_url: got %q", cfg.Transport.EndpointURL)
	}
	if cfg.Session.Backend != SessionBackendRedis {
		t.Errorf("session.backend: got %q, want redis", cfg.Session.Backend)
	}
	if cfg.Service.Port != 9000 {
		t.Errorf("service.port: got %d, want 9000", cfg.Service.Port)
	}
}

func TestDatabaseURL(t *testing.T) {
	t.Parallel()

	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "leads", SSLMode: "disable"}
	if got, want := db.URL(), "postgres://u:p@db:5432/leads?sslmode=disable"; got != want {
		t.Errorf("URL: got %q, want %q", got, want)
	}
}
