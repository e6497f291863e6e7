package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/performartech/hinis-website/infrastructure/circuitbreaker"
	infrahttp "github.com/performartech/hinis-website/infrastructure/http"
	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/infrastructure/retry"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/telemetry"
)

// ErrNotConfigured is returned when dispatching to an unconfigured endpoint.
var ErrNotConfigured = errors.New("delivery endpoint not configured")

// Config tunes a Dispatcher.
type Config struct {
	Timeout          time.Duration
	DialAttempts     int
	RetryDelay       time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// Dispatcher posts payloads in opaque mode: a dispatch succeeds when the
// request was issued without a local error, whatever the remote status.
type Dispatcher struct {
	client  *http.Client
	breaker *circuitbreaker.Breaker
	retry   retry.Config
	log     logger.Logger
	metrics *telemetry.Metrics
}

// NewDispatcher creates a Dispatcher with its own HTTP client. Redirects are
// not followed because the request has already been delivered.
func NewDispatcher(cfg Config, log logger.Logger, metrics *telemetry.Metrics) *Dispatcher {
	client := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Timeout})
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	retryCfg := retry.DefaultConfig()
	if cfg.DialAttempts > 0 {
		retryCfg.MaxAttempts = cfg.DialAttempts
	}
	if cfg.RetryDelay > 0 {
		retryCfg.InitialDelay = cfg.RetryDelay
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.BreakerThreshold,
		Timeout:          cfg.BreakerTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Delivery circuit state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.SetBreakerOpen(to == circuitbreaker.StateOpen)
		},
	})

	return &Dispatcher{
		client:  client,
		breaker: breaker,
		retry:   retryCfg,
		log:     log,
		metrics: metrics,
	}
}

// Dispatch sends payload as JSON. Only local failures are returned: dial,
// TLS, timeout, cancellation or an open circuit. Dial failures are retried
// since nothing reached the endpoint; later failures are not, so a payload
// is delivered at most once.
func (d *Dispatcher) Dispatch(ctx context.Context, ep Endpoint, payload domain.FormPayload) error {
	if !ep.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	start := time.Now()
	defer func() { d.metrics.DispatchObserved(time.Since(start)) }()

	err = d.breaker.Execute(func() error {
		return retry.Do(ctx, d.retry, func() error {
			return d.post(ctx, ep, body)
		})
	})
	if err != nil {
		return fmt.Errorf("dispatch to %s: %w", ep.Host(), err)
	}
	return nil
}

func (d *Dispatcher) post(ctx context.Context, ep Endpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	d.log.Debug("Submission dispatched",
		logger.String("host", ep.Host()),
		logger.Int("status", resp.StatusCode),
	)
	return nil
}
