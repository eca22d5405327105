package handlers

import (
	"context"
	"net/http"
	"time"

	"invoicelink/internal/caching"
	"invoicelink/internal/services"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   caching.CacheService
	archive services.InvoiceArchive
	clock   clockwork.Clock
	version string
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance. db may be nil
// when the in-memory repositories are in use.
func NewHealthHandlers(db Pinger, cache caching.CacheService, archive services.InvoiceArchive, clock clockwork.Clock, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		archive: archive,
		clock:   clock,
		version: version,
		started: clock.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

func (h *HealthHandlers) checks(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	results := map[string]error{
		"cache":   h.cache.Ping(ctx),
		"storage": h.archive.Ping(ctx),
	}
	if h.db != nil {
		results["database"] = h.db.Ping(ctx)
	}
	return results
}

// HealthCheck handles GET /health
//
//	@Summary	Dependency health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthStatus
//	@Router		/health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	now := h.clock.Now()
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   h.version,
		Uptime:    now.Sub(h.started).Truncate(time.Second).String(),
	}

	for name, err := range h.checks(c.Request().Context()) {
		if err != nil {
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
			continue
		}
		health.Services[name] = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}

// ReadinessCheck handles GET /health/ready. Only the database and the
// session store are critical.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	results := h.checks(c.Request().Context())
	if results["database"] != nil || results["cache"] != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": h.clock.Now().UTC().Format(time.RFC3339),
	})
}
