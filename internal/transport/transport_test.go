package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/performartech/hinis-website/infrastructure/circuitbreaker"
	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
	"github.com/performartech/hinis-website/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw        string
		configured bool
	}{
		{raw: "", configured: false},
		{raw: "   ", configured: false},
		{raw: transport.Placeholder, configured: false},
		{raw: "script.google.com/macros/s/abc/exec", configured: false},
		{raw: "ftp://example.com/upload", configured: false},
		{raw: "https://script.google.com/macros/s/abc/exec", configured: true},
		{raw: "http://localhost:8080/hook", configured: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			ep := transport.ParseEndpoint(tt.raw)
			assert.Equal(t, tt.configured, ep.Configured())
			if !tt.configured {
				assert.Empty(t, ep.String())
			}
		})
	}
}

func samplePayload() domain.FormPayload {
	return domain.FormPayload{
		Values: domain.FormValues{
			Nome:     "Ana",
			Email:    "ana@example.com",
			Telefone: "21988887777",
			Programa: "essencia",
		},
		Attribution: map[string]string{"utm_source": "ig"},
	}
}

func newDispatcher() *transport.Dispatcher {
	return transport.NewDispatcher(transport.Config{
		Timeout:      2 * time.Second,
		DialAttempts: 2,
		RetryDelay:   time.Millisecond,
	}, logger.NewNop(), nil)
}

func TestDispatch_PostsJSONAndIgnoresStatus(t *testing.T) {
	t.Parallel()

	type received struct {
		contentType string
		fields      map[string]string
	}
	requests := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]string
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &fields)
		requests <- received{contentType: r.Header.Get("Content-Type"), fields: fields}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"script failed"}`))
	}))
	defer srv.Close()

	err := newDispatcher().Dispatch(context.Background(), transport.ParseEndpoint(srv.URL), samplePayload())

	require.NoError(t, err, "remote status is not observable")
	got := <-requests
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "Ana", got.fields["nome"])
	assert.Equal(t, "ig", got.fields["utm_source"])
}

func TestDispatch_DoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	err := newDispatcher().Dispatch(context.Background(), transport.ParseEndpoint(srv.URL), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDispatch_Unconfigured(t *testing.T) {
	t.Parallel()

	err := newDispatcher().Dispatch(context.Background(), transport.ParseEndpoint(transport.Placeholder), samplePayload())
	require.ErrorIs(t, err, transport.ErrNotConfigured)
}

func closedAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestDispatch_UnreachableIsLocalError(t *testing.T) {
	t.Parallel()

	ep := transport.ParseEndpoint("http://" + closedAddr(t) + "/hook")
	err := newDispatcher().Dispatch(context.Background(), ep, samplePayload())
	require.Error(t, err)
}

func TestDispatch_OpenCircuitFailsFast(t *testing.T) {
	t.Parallel()

	d := transport.NewDispatcher(transport.Config{
		Timeout:          time.Second,
		DialAttempts:     1,
		BreakerThreshold: 1,
		BreakerTimeout:   time.Hour,
	}, logger.NewNop(), nil)
	ep := transport.ParseEndpoint("http://" + closedAddr(t) + "/hook")

	require.Error(t, d.Dispatch(context.Background(), ep, samplePayload()))
	err := d.Dispatch(context.Background(), ep, samplePayload())
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}
