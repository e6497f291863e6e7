// Package transport delivers contact form payloads to the remote endpoint
// without observing the response.
package transport

import (
	"net/url"
	"strings"
)

// Placeholder is the value shipped in sample configuration; it means the
// endpoint was never set.
const Placeholder = "COLE_AQUI_A_URL_DO_SEU_WEB_APP"

// Endpoint is the delivery URL together with its configured state.
type Endpoint struct {
	u *url.URL
}

// ParseEndpoint interprets a configured URL. Empty values, the placeholder
// and anything that is not an absolute http(s) URL yield an unconfigured
// endpoint.
func ParseEndpoint(raw string) Endpoint {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Placeholder {
		return Endpoint{}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Endpoint{}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}
	}
	return Endpoint{u: u}
}

// Configured reports whether submissions can be delivered.
func (e Endpoint) Configured() bool {
	return e.u != nil
}

// String returns the URL, or "" when unconfigured.
func (e Endpoint) String() string {
	if e.u == nil {
		return ""
	}
	return e.u.String()
}

// Host returns the URL host for logging, or "".
func (e Endpoint) Host() string {
	if e.u == nil {
		return ""
	}
	return e.u.Host
}
