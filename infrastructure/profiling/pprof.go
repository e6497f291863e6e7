// Package profiling exposes opt-in runtime profiling.
package profiling

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/performartech/hinis-website/infrastructure/logger"
)

const (
	defaultPprofPort  = "6060"
	readHeaderTimeout = 5 * time.Second
)

// StartPprofServer starts a localhost-only pprof server when
// ENABLE_PROFILING=true. PPROF_PORT overrides the port.
func StartPprofServer(log logger.Logger) {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = defaultPprofPort
	}
	addr := "localhost:" + port

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	go func() {
		log.Info("Starting pprof server", logger.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()
}
