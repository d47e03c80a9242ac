package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prismcart/search/pkg/health"
	"github.com/prismcart/search/pkg/middleware"
)

// NewRouter wires the middleware stack and all routes.
func NewRouter(h *Handler, healthHandler *health.Handler, serviceName string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))

	r.Get("/health/live", healthHandler.LivenessHandler)
	r.Get("/health/ready", healthHandler.ReadinessHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/search", func(r chi.Router) {
		r.With(middleware.CacheControl(30)).Get("/products", h.Search)
		r.Get("/products/{id}/similar", h.Similar)
		r.Get("/facets", h.Facets)
		r.Get("/autocomplete", h.Autocomplete)
		r.Get("/suggest", h.Suggest)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/drift", h.Drift)
			r.Post("/resync", h.Resync)
			r.Post("/indices/rebuild", h.RebuildIndices)
			r.Delete("/indices", h.DeleteIndices)
		})
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Put("/products/{id}/relations/{kind}", h.SetRelations)

		r.Post("/{kind}", h.CreateEntity)
		r.Put("/{kind}/{id}", h.RenameEntity)
		r.Delete("/{kind}/{id}", h.DeleteEntity)
	})

	return r
}
