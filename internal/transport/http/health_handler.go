package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"pricescope/pkg/contracts"
)

// ReadinessProbe reports whether a dependency can serve requests
type ReadinessProbe interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	probes  map[string]ReadinessProbe
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. probes are checked by
// the readiness endpoint, keyed by dependency name.
func NewHealthHandler(probes map[string]ReadinessProbe, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		probes:  probes,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthResponse is the body of the health endpoints
type HealthResponse struct {
	Status  string                `json:"status"`
	Uptime  string                `json:"uptime"`
	Version contracts.VersionInfo `json:"version"`
	Checks  map[string]string     `json:"checks,omitempty"`
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.response("healthy", nil))
}

// ReadinessCheck handles GET /api/health/ready
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	checks := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		if err := probe.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed",
				slog.String("dependency", name),
				slog.String("error", err.Error()))
			checks[name] = err.Error()
			status = "not_ready"
			continue
		}
		checks[name] = "ok"
	}

	if status != "ready" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, h.response(status, checks))
}

func (h *HealthHandler) response(status string, checks map[string]string) HealthResponse {
	return HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Version: contracts.GetVersionInfo(),
		Checks:  checks,
	}
}
