// Package httptransport assembles the public HTTP surface.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifeline/internal/transport/http/shared"
)

// Registrar is implemented by feature handlers that mount their own routes
// and middleware.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) error

// NewRouter wires the feature handlers plus the operational endpoints.
// Health checks run on demand; a nil map means the service is always healthy.
func NewRouter(handlers []Registrar, checks map[string]HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		shared.WriteJSON(w, status, body)
	}
}
