// Package app wires configuration, adapters and handlers into a runnable
// HTTP application.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/httpserver"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{"*"}
	}
	if s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
// The per-endpoint guards live inside the handlers; the httprate limiter
// here is a coarse per-IP pre-filter across all mutating endpoints.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	// Security & instrumentation middleware
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	// A little above the upstream call budget so the degraded-payload path
	// can still write a body after an upstream timeout.
	r.Use(httpserver.TimeoutMiddleware(cfg.RequestTimeout + 5*time.Second))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Mutating endpoints share a coarse per-IP cap on top of the guards.
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.GlobalRateLimitPerMin, 1*time.Minute))
		wr.Post("/v1/chat/{topic}", srv.ChatHandler())
		wr.Post("/v1/correct", srv.CorrectHandler())
		wr.Post("/v1/translate", srv.TranslateHandler())
		wr.Post("/v1/vocabulary", srv.VocabularyHandler())
	})

	// Read-only endpoints
	r.Get("/v1/topics", srv.TopicsHandler())
	r.Get("/v1/topics/{id}", srv.TopicHandler())

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/readyz", srv.ReadyzHandler())

	// Guard snapshots for operators, only when credentials are configured.
	if cfg.OpsEnabled() {
		r.Group(func(or chi.Router) {
			or.Use(srv.OpsAuth)
			or.Get("/ops/guard", srv.GuardStatsHandler())
		})
	}

	return httpserver.SecurityHeaders(r)
}
