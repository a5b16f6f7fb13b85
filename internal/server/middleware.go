package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// instrument records every request in the Prometheus collectors and logs
// it. The route label is the chi route pattern, so path parameters do not
// explode label cardinality.
func instrument(m *Metrics, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			elapsed := time.Since(start)

			m.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
			m.Duration.WithLabelValues(route).Observe(elapsed.Seconds())

			level := slog.LevelDebug
			if code >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if code >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			log.Log(r.Context(), level, "request",
				"method", r.Method,
				"route", route,
				"code", code,
				"bytes", ww.BytesWritten(),
				"elapsed", elapsed,
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
