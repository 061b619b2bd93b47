package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lexiqai/voice-relay/internal/observability"
)

const requestIDHeader = "X-Request-ID"

type metricsKey struct{}

// requestScope gives every request a correlation ID, a logger carrying it,
// and a metrics tracker, then records the outcome once the handler returns.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = observability.NewCorrelationID()
		}
		w.Header().Set(requestIDHeader, requestID)

		logger := observability.WithCorrelationID(requestID)
		metrics := observability.NewRequestMetrics(requestID)

		ctx := logger.WithContext(r.Context())
		ctx = context.WithValue(ctx, metricsKey{}, metrics)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordRequestEnd(route, status)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func metricsFromContext(ctx context.Context) *observability.Metrics {
	if m, ok := ctx.Value(metricsKey{}).(*observability.Metrics); ok {
		return m
	}
	return observability.NewRequestMetrics("")
}
