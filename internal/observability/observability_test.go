package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" Warning ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"CRITICAL", zerolog.FatalLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := zerolog.New(&buf).With().Str("correlation_id", "req-1").Logger()
	ctx := scoped.WithContext(context.Background())

	FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"correlation_id":"req-1"`)

	assert.NotNil(t, FromContext(context.Background()))
}

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheckHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, ServiceName, status.Service)
}

func TestReadinessHandler(t *testing.T) {
	ok := func(context.Context) (bool, error) { return true, nil }
	down := func(context.Context) (bool, error) { return false, errors.New("circuit breaker is open") }

	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ReadinessHandler(map[string]HealthCheckFunc{"stt": ok, "tts": ok, "skipped": nil})(
			rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var status HealthStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.Equal(t, "ready", status.Status)
		assert.Len(t, status.Dependencies, 2)
	})

	t.Run("not ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ReadinessHandler(map[string]HealthCheckFunc{"stt": ok, "tts": down})(
			rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var status HealthStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.Equal(t, "not_ready", status.Status)
		assert.Equal(t, "unhealthy", status.Dependencies["tts"].Status)
		assert.Equal(t, "circuit breaker is open", status.Dependencies["tts"].Message)
		assert.Equal(t, "healthy", status.Dependencies["stt"].Status)
	})
}

func TestMetrics_StageAndDegraded(t *testing.T) {
	before := testutil.ToFloat64(stageRequests.WithLabelValues(StageTTS, "error"))
	degradedBefore := testutil.ToFloat64(degradedResponses)

	m := NewRequestMetrics("req-2")
	m.RecordStageStart(StageTTS)
	m.RecordStageEnd(StageTTS, false)
	m.RecordDegraded()

	assert.Equal(t, before+1, testutil.ToFloat64(stageRequests.WithLabelValues(StageTTS, "error")))
	assert.Equal(t, degradedBefore+1, testutil.ToFloat64(degradedResponses))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "2xx", statusLabel(200))
	assert.Equal(t, "4xx", statusLabel(400))
	assert.Equal(t, "4xx", statusLabel(413))
	assert.Equal(t, "5xx", statusLabel(502))
}
