package routes

import (
	"net/http"
	"time"

	"autobazar/listing-editor/internal/api"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(deps *api.Dependencies, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.InFlightMiddleware(deps.Metrics))
	r.Use(middleware.MetricsMiddleware(deps.Metrics))
	r.Use(middleware.Logging)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.UIOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	limiter := middleware.NewIPRateLimiter(20, 40)
	r.Use(limiter.Middleware)

	r.Get("/healthCheck", api.HealthCheckHandler(deps, upSince))
	r.Handle("/metrics", promhttp.Handler())

	RegisterAPIRoutes(r, api.NewHandlers(deps), deps)

	logging.Info("Router initialized with metrics and logging middleware")
	return r
}
