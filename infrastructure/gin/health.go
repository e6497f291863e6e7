package gin

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the status of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const bytesPerMB = 1024 * 1024

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of an individual health check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker performs a health check.
type HealthChecker func() CheckResult

// HealthOptions configures the health endpoints.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	StartTime      time.Time
	Checks         map[string]HealthChecker
}

// MemoryHealth is the /health/memory response body.
type MemoryHealth struct {
	Timestamp    time.Time `json:"timestamp"`
	HeapAllocMB  float64   `json:"heap_alloc_mb"`
	HeapInuseMB  float64   `json:"heap_inuse_mb"`
	StackInuseMB float64   `json:"stack_inuse_mb"`
	NumGC        uint32    `json:"num_gc"`
	NumGoroutine int       `json:"num_goroutine"`
}

// RegisterHealthRoutes adds GET/HEAD /health and GET /health/memory.
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	router.GET("/health", healthHandler(opts))
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health/memory", memoryHandler)
}

func healthHandler(opts HealthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
		}
		if !opts.StartTime.IsZero() {
			response.Uptime = time.Since(opts.StartTime).Round(time.Second).String()
		}

		if len(opts.Checks) > 0 {
			response.Checks = make(map[string]CheckResult, len(opts.Checks))
			for name, checker := range opts.Checks {
				result := checker()
				response.Checks[name] = result
				response.Status = worst(response.Status, result.Status)
			}
		}

		statusCode := http.StatusOK
		if response.Status == HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	}
}

func worst(current, next HealthStatus) HealthStatus {
	switch {
	case current == HealthStatusUnhealthy || next == HealthStatusUnhealthy:
		return HealthStatusUnhealthy
	case current == HealthStatusDegraded || next == HealthStatusDegraded:
		return HealthStatusDegraded
	default:
		return HealthStatusHealthy
	}
}

func memoryHandler(c *gin.Context) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	c.JSON(http.StatusOK, MemoryHealth{
		Timestamp:    time.Now().UTC(),
		HeapAllocMB:  float64(stats.Alloc) / bytesPerMB,
		HeapInuseMB:  float64(stats.HeapInuse) / bytesPerMB,
		StackInuseMB: float64(stats.StackInuse) / bytesPerMB,
		NumGC:        stats.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	})
}

// PingHealthChecker adapts a ping function into a HealthChecker. A failing
// ping reports degraded when optional is set, unhealthy otherwise.
func PingHealthChecker(ping func() error, optional bool) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		err := ping()
		latency := time.Since(start).String()
		if err == nil {
			return CheckResult{Status: HealthStatusHealthy, Latency: latency}
		}

		status := HealthStatusUnhealthy
		if optional {
			status = HealthStatusDegraded
		}
		return CheckResult{Status: status, Message: err.Error(), Latency: latency}
	}
}
