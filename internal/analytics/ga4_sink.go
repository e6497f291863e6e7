package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	infraerrors "github.com/performartech/hinis-website/infrastructure/errors"
	infrahttp "github.com/performartech/hinis-website/infrastructure/http"
	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
)

// DefaultGA4Endpoint is the Measurement Protocol collection URL.
const DefaultGA4Endpoint = "https://www.google-analytics.com/mp/collect"

const (
	defaultGA4QueueSize = 256
	defaultGA4Timeout   = 5 * time.Second
)

// ErrQueueFull is returned when a sink cannot accept more events.
var ErrQueueFull = errors.New("analytics queue full")

// GA4Config configures the Measurement Protocol sink.
type GA4Config struct {
	MeasurementID string
	APISecret     string
	Endpoint      string
	QueueSize     int
	Timeout       time.Duration
}

// Enabled reports whether credentials are present.
func (c GA4Config) Enabled() bool {
	return c.MeasurementID != "" && c.APISecret != ""
}

// GA4Sink forwards events to Google Analytics 4 from a background worker.
type GA4Sink struct {
	cfg    GA4Config
	client *http.Client
	log    logger.Logger
	queue  chan domain.AnalyticsEvent
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

type ga4Request struct {
	ClientID string     `json:"client_id"`
	Events   []ga4Event `json:"events"`
}

type ga4Event struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// NewGA4Sink creates a sink. Call Start before emitting.
func NewGA4Sink(cfg GA4Config, log logger.Logger) *GA4Sink {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGA4Endpoint
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultGA4QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGA4Timeout
	}
	return &GA4Sink{
		cfg:    cfg,
		client: infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Timeout}),
		log:    log,
		queue:  make(chan domain.AnalyticsEvent, cfg.QueueSize),
		closed: make(chan struct{}),
	}
}

func (s *GA4Sink) Name() string { return "ga4" }

// Emit queues the event without blocking.
func (s *GA4Sink) Emit(_ context.Context, event domain.AnalyticsEvent) error {
	select {
	case s.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery worker.
func (s *GA4Sink) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop delivers what is queued and waits for the worker.
func (s *GA4Sink) Stop() {
	s.once.Do(func() { close(s.closed) })
	s.wg.Wait()
}

func (s *GA4Sink) run() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.queue:
			s.deliver(event)
		case <-s.closed:
			for {
				select {
				case event := <-s.queue:
					s.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (s *GA4Sink) deliver(event domain.AnalyticsEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	if err := s.send(ctx, event); err != nil {
		s.log.Warn("GA4 delivery failed",
			logger.String("event", event.Name),
			logger.Error(err),
		)
	}
}

func (s *GA4Sink) send(ctx context.Context, event domain.AnalyticsEvent) error {
	body, err := json.Marshal(ga4Request{
		ClientID: event.SessionID,
		Events:   []ga4Event{{Name: event.Name, Params: event.Params}},
	})
	if err != nil {
		return fmt.Errorf("encode ga4 request: %w", err)
	}

	q := url.Values{}
	q.Set("measurement_id", s.cfg.MeasurementID)
	q.Set("api_secret", s.cfg.APISecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ga4 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post ga4 event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return infraerrors.ParseHTTPError(resp)
}
