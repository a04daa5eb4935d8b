// Package api implements the drive HTTP API using chi.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/metrics"
)

// AuthMiddleware returns middleware that validates a Bearer token.
// An empty token disables the check.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// observe records request metrics and writes one access log line per
// request. The route label is the chi pattern, never the raw path, so ids
// do not explode label cardinality.
func observe(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			m.RecordRequestStart()
			defer m.RecordRequestEnd()

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			m.RecordRequest(route, r.Method, status, duration)

			if logger.GetLevel() <= logger.LevelDebug {
				log := logger.With(map[string]any{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"route":      route,
					"status":     status,
					"bytes":      ww.BytesWritten(),
					"duration":   duration.String(),
				})
				log.Debug().Msg("request")
			}
		})
	}
}
