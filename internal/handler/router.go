package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/joestump/bookswap/docs/swagger"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	// API is mounted at /api/v1.
	API     http.Handler
	DB      Pinger
	Logger  *slog.Logger
	Metrics bool
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", NewHealthHandler(deps.DB, deps.Logger).ServeHTTP)
	if deps.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Swagger UI, no auth required.
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	r.Mount("/api/v1", deps.API)

	return r
}
