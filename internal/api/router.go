// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storewatch/storewatch/internal/config"
	"github.com/storewatch/storewatch/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// NewRouter assembles the full HTTP surface.
//
//	POST /api/v1/monitor/run   trigger one batch (bearer secret)
//	GET  /api/v1/apps          watch-list view
//	GET  /api/v1/alerts        alert history view
//	GET  /api/v1/health/live   process liveness
//	GET  /api/v1/health/ready  store reachability
//	GET  /metrics              Prometheus metrics
func NewRouter(s *Server, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.Timeout))
	if len(cfg.Security.CORSOrigins) > 0 {
		// An externally hosted dashboard reads the apps/alerts views
		// from the browser; without these headers it cannot.
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Security.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	if !cfg.Security.RateLimitDisabled {
		r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(RequireCronSecret(cfg.Security.CronSecret)).
			Post("/monitor/run", s.handleMonitorRun)

		r.Get("/apps", s.handleListApps)
		r.Get("/alerts", s.handleListAlerts)

		r.Get("/health/live", s.handleHealthLive)
		r.Get("/health/ready", s.handleHealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestIDMiddleware accepts a caller-supplied request ID or mints one,
// stores it in the request context and echoes it in the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// requestLogger emits one structured line per completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("http request")
	})
}
