package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used as metric labels and log components.
const (
	StageSTT = "stt"
	StageLLM = "llm"
	StageTTS = "tts"
)

var (
	// HTTP metrics
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_relay_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"route"})

	// Per-stage downstream metrics
	stageRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_stage_requests_total",
		Help: "Total number of downstream calls by stage",
	}, []string{"stage", "status"})

	stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_relay_stage_latency_seconds",
		Help:    "Downstream call latency in seconds by stage",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"stage"})

	// Responses that returned text without speech
	degradedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_degraded_responses_total",
		Help: "Total number of process-message responses returned without synthesized audio",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_relay_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// Metrics tracks the stages of a single relay request.
type Metrics struct {
	requestID  string
	startTime  time.Time
	stageStart map[string]time.Time
	mu         sync.Mutex
}

// NewRequestMetrics creates a new metrics tracker for a request
func NewRequestMetrics(requestID string) *Metrics {
	return &Metrics{
		requestID:  requestID,
		startTime:  time.Now(),
		stageStart: make(map[string]time.Time, 3),
	}
}

// RecordStageStart records the start of a downstream call
func (m *Metrics) RecordStageStart(stage string) {
	m.mu.Lock()
	m.stageStart[stage] = time.Now()
	m.mu.Unlock()
}

// RecordStageEnd records the end of a downstream call
func (m *Metrics) RecordStageEnd(stage string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if start, ok := m.stageStart[stage]; ok {
		stageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		delete(m.stageStart, stage)
	}

	status := "success"
	if !success {
		status = "error"
	}
	stageRequests.WithLabelValues(stage, status).Inc()
}

// RecordRequestEnd records the outcome of the HTTP request
func (m *Metrics) RecordRequestEnd(route string, code int) {
	httpRequests.WithLabelValues(route, statusLabel(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(time.Since(m.startTime).Seconds())
}

// RecordDegraded records a response that carried text but no speech
func (m *Metrics) RecordDegraded() {
	degradedResponses.Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
