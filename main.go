package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	infraconfig "github.com/performartech/hinis-website/infrastructure/config"
	infragin "github.com/performartech/hinis-website/infrastructure/gin"
	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/infrastructure/profiling"
	infraredis "github.com/performartech/hinis-website/infrastructure/redis"
	"github.com/performartech/hinis-website/internal/analytics"
	"github.com/performartech/hinis-website/internal/api"
	"github.com/performartech/hinis-website/internal/attribution"
	"github.com/performartech/hinis-website/internal/config"
	"github.com/performartech/hinis-website/internal/handler"
	"github.com/performartech/hinis-website/internal/ratelimit"
	"github.com/performartech/hinis-website/internal/session"
	"github.com/performartech/hinis-website/internal/storage"
	"github.com/performartech/hinis-website/internal/submission"
	"github.com/performartech/hinis-website/internal/telemetry"
	"github.com/performartech/hinis-website/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/lib/pq"
)

const (
	serviceName   = "lead-gateway"
	dbPingTimeout = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	profiling.StartPprofServer(log)
	profiler, err := profiling.StartPyroscope(serviceName, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", logger.Error(err))
	}
	if profiler != nil {
		defer func() { _ = profiler.Stop() }()
	}

	return runServer(cfg, log)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(infraconfig.GetConfigPath("config.yml"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", serviceName)), nil
}

// sessionBackend opens the configured session store. The returned checker
// is nil for the in-memory backend.
func sessionBackend(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
	done <-chan struct{},
) (session.Store, infragin.HealthChecker, func(), error) {
	if cfg.Session.Backend != config.SessionBackendRedis {
		store := session.NewMemoryStore(cfg.Session.TTL)
		go store.Run(done, cfg.Session.SweepInterval)
		log.Info("Using in-memory session store")
		return store, nil, func() {}, nil
	}

	client, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info("Using Redis session store", logger.String("address", cfg.Redis.Address))

	closeFn := func() { _ = client.Close() }
	return session.NewRedisStore(client, cfg.Session.TTL),
		infragin.PingHealthChecker(infraredis.Pinger(client), false),
		closeFn, nil
}

// connectDatabase opens the event archive. Archive failures are not fatal.
func connectDatabase(cfg *config.Config, log logger.Logger) *sqlx.DB {
	if !cfg.Analytics.ArchiveEnabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("Event archive unavailable", logger.Error(err))
		return nil
	}

	log.Info("Database connected",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)
	return db
}

func runServer(cfg *config.Config, log logger.Logger) int {
	// done signals background goroutines (janitors, rate limiter) on shutdown
	done := make(chan struct{})
	defer close(done)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	sessions, sessionCheck, closeSessions, err := sessionBackend(context.Background(), cfg, log, done)
	if err != nil {
		log.Error("Failed to open session store", logger.Error(err))
		return 1
	}
	defer closeSessions()

	checks := make(map[string]infragin.HealthChecker)
	if sessionCheck != nil {
		checks["redis"] = sessionCheck
	}

	attrStore := attribution.NewStore(sessions, log, attribution.WithDuration(cfg.Attribution.Window))

	sinks := []analytics.Sink{analytics.NewLogSink(log)}

	ga4Cfg := analytics.GA4Config{
		MeasurementID: cfg.Analytics.GA4MeasurementID,
		APISecret:     cfg.Analytics.GA4APISecret,
		Endpoint:      cfg.Analytics.GA4Endpoint,
	}
	if ga4Cfg.Enabled() {
		ga4 := analytics.NewGA4Sink(ga4Cfg, log)
		ga4.Start()
		defer ga4.Stop()
		sinks = append(sinks, ga4)
	}

	var adminHandler *handler.AdminHandler
	if db := connectDatabase(cfg, log); db != nil {
		defer func() { _ = db.Close() }()

		buf := storage.NewBuffer(cfg.Analytics.BufferSize)
		archive := storage.NewStore(db, buf, log, cfg.Analytics.FlushInterval, cfg.Analytics.FlushThreshold)
		archive.Start()
		defer archive.Stop()

		reader := storage.NewReader(db)
		sinks = append(sinks, buf)
		adminHandler = handler.NewAdminHandler(reader, log)
		checks["database"] = infragin.PingHealthChecker(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
			defer cancel()
			return reader.Ping(ctx)
		}, true)
	}

	tracker := analytics.NewTracker(attrStore, log, metrics, sinks...)
	attrService := attribution.NewService(attrStore, tracker, metrics)

	limits := ratelimit.NewRegistry(cfg.RateLimit.SubmitWindow, cfg.RateLimit.SubmitMaxAttempts)
	go limits.Run(done, cfg.Session.SweepInterval, metrics.SetTrackedSessions)

	endpoint := transport.ParseEndpoint(cfg.Transport.EndpointURL)
	if !endpoint.Configured() {
		log.Warn("Delivery endpoint is not configured; submissions will be rejected")
	}
	dispatcher := transport.NewDispatcher(transport.Config{
		Timeout:          cfg.Transport.Timeout,
		DialAttempts:     cfg.Transport.DialAttempts,
		RetryDelay:       cfg.Transport.RetryDelay,
		BreakerThreshold: cfg.Transport.BreakerThreshold,
		BreakerTimeout:   cfg.Transport.BreakerTimeout,
	}, log, metrics)

	pipeline := submission.NewPipeline(submission.Deps{
		Admission:   limits,
		Attribution: attrStore,
		Endpoint:    endpoint,
		Dispatcher:  dispatcher,
		Tracker:     tracker,
		Log:         log,
		Metrics:     metrics,
	})

	handlers := api.Handlers{
		Attribution: handler.NewAttributionHandler(attrService, log),
		Events:      handler.NewEventsHandler(tracker),
		Contact:     handler.NewContactHandler(pipeline),
		Admin:       adminHandler,
	}

	server := api.NewServer(handlers, attrService, reg, cfg, log, checks, done)

	log.Info("Lead gateway starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("session_backend", cfg.Session.Backend),
		logger.String("endpoint_host", endpoint.Host()),
	)

	if err = server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Lead gateway exited cleanly")
	return 0
}
