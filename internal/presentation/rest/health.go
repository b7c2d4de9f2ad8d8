package rest

import (
	"context"
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"
)

// ServiceName is reported by the health endpoints.
const ServiceName = "loancalc"

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness checks over HTTP.
type HealthHandler struct {
	checks map[string]ReadinessCheck
	logger *slog.Logger
}

// NewHealthHandler creates a health check handler. Every check must pass for
// the service to be ready.
func NewHealthHandler(checks map[string]ReadinessCheck, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{checks: checks, logger: logger}
}

func (h *HealthHandler) liveness(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{
		"status":  "ok",
		"service": ServiceName,
	})
}

func (h *HealthHandler) readiness(ctx *fasthttp.RequestCtx) {
	checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range h.checks {
		if err := check(checkCtx); err != nil {
			h.logger.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"service": ServiceName,
			"failed":  failed,
		})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{
		"status":  "ready",
		"service": ServiceName,
	})
}
