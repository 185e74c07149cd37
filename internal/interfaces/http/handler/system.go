package handler

import (
	"context"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"github.com/wmsexpress/backend/internal/infrastructure/logger"
)

// HealthCheck probes one dependency for the health endpoint
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

// SystemHandler handles liveness and build information endpoints
type SystemHandler struct {
	BaseHandler
	catalog   *warehouse.Catalog
	version   string
	checks    []HealthCheck
	startTime time.Time
}

func NewSystemHandler(catalog *warehouse.Catalog, version string, checks ...HealthCheck) *SystemHandler {
	return &SystemHandler{
		catalog:   catalog,
		version:   version,
		checks:    checks,
		startTime: time.Now(),
	}
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Clients   int               `json:"clients"`
	Receipts  int               `json:"receipts"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Health reports liveness and the size of the loaded catalog. Lookups are
// served from memory, so a failing dependency marks the service "degraded"
// without failing the probe.
//
//	GET /api/v1/health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if h.catalog != nil {
		// ListClients includes the "All Clients" entry
		resp.Clients = len(h.catalog.ListClients()) - 1
		resp.Receipts = len(h.catalog.ReceiptsFor(warehouse.AllClientsID))
	}

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		for _, check := range h.checks {
			if err := check.Ping(ctx); err != nil {
				logger.L(ctx).Warn("Health check failed", zap.String("check", check.Name), zap.Error(err))
				resp.Checks[check.Name] = "down"
				resp.Status = "degraded"
				continue
			}
			resp.Checks[check.Name] = "up"
		}
	}

	h.Success(c, resp)
}
