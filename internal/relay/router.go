package relay

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexiqai/voice-relay/internal/config"
	"github.com/lexiqai/voice-relay/internal/observability"
)

//go:embed static/index.html
var indexPage []byte

// NewRouter mounts the relay endpoints together with health, readiness and
// (optionally) metrics endpoints.
func NewRouter(cfg *config.Config, h *Handler, readiness map[string]observability.HealthCheckFunc) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RealIP,
		requestScope,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}),
	)

	r.Get("/", serveIndex)
	r.Post("/speech-to-text", h.SpeechToText)
	r.Post("/process-message", h.ProcessMessage)

	r.Get("/health", observability.HealthCheckHandler())
	r.Get("/ready", observability.ReadinessHandler(readiness))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexPage)
}
