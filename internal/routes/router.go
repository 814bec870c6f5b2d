package routes

import (
	"net/http"
	"time"

	"scf-community/governor/internal/api"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"
	"scf-community/governor/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Metrics  *metrics.MetricsRegistry
	Gatherer prometheus.Gatherer
	Limiter  *middleware.RateLimiter
	UpSince  time.Time
}

func RegisterRoutes(deps *api.Dependencies, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.InFlightMiddleware(opts.Metrics))
	r.Use(middleware.MetricsMiddleware(opts.Metrics))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(deps, opts.UpSince))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	RegisterAPIRoutes(r, api.NewHandlers(deps), deps)

	logging.Info("Router initialized with metrics and logging middleware")
	return r
}
