// Package httpapi assembles the HTTP surface: shared middleware chain, module
// handlers, health and metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attest/internal/platform/metrics"
	"attest/internal/platform/middleware"
	"attest/pkg/platform/httputil"
)

// Registrable is any module handler that mounts routes.
type Registrable interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// NewRouter wires the middleware chain and mounts all handlers.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, checks map[string]HealthCheck, handlers ...Registrable) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	if m != nil {
		r.Use(middleware.Latency(m))
	}

	r.Get("/healthz", handleHealth(checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				response.Status = "degraded"
				response.Checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			response.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, response)
	}
}
