// Package http exposes the public alignment API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Vidnolunovich/vo-mfa-service/internal/app"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/metrics"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger(metrics.DefaultMetrics))

	h := &handlers{app: application}

	r.Get("/", h.info)
	r.Get("/health", h.health)
	r.Post("/align", h.align)

	return r
}
