// Package http builds the outbound HTTP clients used for form delivery and
// analytics forwarding.
package http

import (
	"net"
	"net/http"
	"time"
)

const (
	DefaultTimeout               = 15 * time.Second
	DefaultDialTimeout           = 5 * time.Second
	DefaultMaxIdleConns          = 50
	DefaultMaxIdleConnsPerHost   = 10
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultResponseHeaderTimeout = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
)

// ClientConfig configures an HTTP client. Zero values fall back to the
// package defaults.
type ClientConfig struct {
	Timeout               time.Duration
	DialTimeout           time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	ResponseHeaderTimeout time.Duration
	TLSHandshakeTimeout   time.Duration
	DisableKeepAlives     bool
}

func (c *ClientConfig) setDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = DefaultIdleConnTimeout
	}
	if c.ResponseHeaderTimeout == 0 {
		c.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = DefaultTLSHandshakeTimeout
	}
}

// NewClient creates an HTTP client. If cfg is nil, defaults are used.
func NewClient(cfg *ClientConfig) *http.Client {
	var c ClientConfig
	if cfg != nil {
		c = *cfg
	}
	c.setDefaults()

	dialer := &net.Dialer{Timeout: c.DialTimeout}

	return &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          c.MaxIdleConns,
			MaxIdleConnsPerHost:   c.MaxIdleConnsPerHost,
			IdleConnTimeout:       c.IdleConnTimeout,
			ResponseHeaderTimeout: c.ResponseHeaderTimeout,
			TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
			DisableKeepAlives:     c.DisableKeepAlives,
		},
	}
}
