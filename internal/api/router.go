// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/search"
)

// Deps collects everything the router needs so callers wire it in one place.
type Deps struct {
	Alerts   AlertWriter
	Profiles ProfileWriter
	Enqueuer FanOutEnqueuer
	Indexer  *search.AlertIndexer
	Postgres Pinger
	Redis    Pinger
	Logger   logger.Logger
}

// NewRouter builds the ingestion service's HTTP surface.
func NewRouter(deps Deps) http.Handler {
	alerts := &alertsHandler{
		alerts:   deps.Alerts,
		enqueuer: deps.Enqueuer,
		indexer:  deps.Indexer,
		logger:   deps.Logger,
	}
	profiles := &profilesHandler{
		profiles: deps.Profiles,
		logger:   deps.Logger,
	}
	health := &healthHandler{
		postgres: deps.Postgres,
		redis:    deps.Redis,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger(deps.Logger))

	r.Post("/webhooks/alerts/", alerts.ingest)
	r.Post("/profiles/", profiles.create)
	r.Get("/healthz", health.healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request", map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
			})
		})
	}
}
