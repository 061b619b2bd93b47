package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/voice-relay/internal/config"
	"github.com/lexiqai/voice-relay/internal/relayerr"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		OpenAIAPIKey:               "sk-test",
		OpenAIBaseURL:              baseURL + "/v1",
		OpenAIModel:                "gpt-3.5-turbo",
		OpenAISystemPrompt:         "You are a test assistant.",
		OpenAITemperature:          0.7,
		OpenAITimeout:              5,
		CircuitBreakerResetTimeout: 30,
	}
}

func chatServer(t *testing.T, status int, body string, captured *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

func TestComplete_Success(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := chatServer(t, http.StatusOK,
		`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Hello there!  "},"finish_reason":"stop"}]}`,
		&req)
	defer srv.Close()

	reply, err := NewOpenAIClient(testConfig(srv.URL)).Complete(context.Background(), "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", reply)

	assert.Equal(t, "gpt-3.5-turbo", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 0.0001)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "You are a test assistant.", req.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, "hi", req.Messages[1].Content)
}

func TestComplete_EmptyMessage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := NewOpenAIClient(testConfig(srv.URL)).Complete(context.Background(), msg)
		assert.ErrorIs(t, err, relayerr.ErrInvalidInput)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestComplete_EmptyContent(t *testing.T) {
	tests := map[string]string{
		"blank content": `{"choices":[{"index":0,"message":{"role":"assistant","content":"   "}}]}`,
		"no choices":    `{"choices":[]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := chatServer(t, http.StatusOK, body, nil)
			defer srv.Close()

			_, err := NewOpenAIClient(testConfig(srv.URL)).Complete(context.Background(), "hi")
			assert.ErrorIs(t, err, relayerr.ErrEmptyCompletion)
			assert.ErrorIs(t, err, relayerr.ErrCompletionFailed)
		})
	}
}

func TestComplete_APIErrorKeepsCause(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, nil)
	defer srv.Close()

	_, err := NewOpenAIClient(testConfig(srv.URL)).Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, relayerr.ErrCompletionFailed)
	assert.NotErrorIs(t, err, relayerr.ErrEmptyCompletion)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
	assert.Contains(t, err.Error(), "Rate limit reached")
}

func TestComplete_ZeroTemperatureIsSent(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.OpenAITemperature = 0

	_, err := NewOpenAIClient(cfg).Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Contains(t, raw, "temperature")
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.OpenAITimeout = 0.05

	start := time.Now()
	_, err := NewOpenAIClient(cfg).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, relayerr.ErrCompletionFailed)
	assert.NotErrorIs(t, err, relayerr.ErrEmptyCompletion)
	assert.Less(t, time.Since(start), time.Second)
}
