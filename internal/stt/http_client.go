package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-relay/internal/config"
	"github.com/lexiqai/voice-relay/internal/observability"
	"github.com/lexiqai/voice-relay/internal/relayerr"
	"github.com/lexiqai/voice-relay/internal/resilience"
)

const op = "stt.Transcribe"

// HTTPClient implements Transcriber against a REST recognize endpoint that
// takes the raw audio as the request body.
type HTTPClient struct {
	url                string
	defaultContentType string
	authHeader         string
	model              string
	httpClient         *http.Client
	circuitBreaker     *resilience.CircuitBreaker
	logger             zerolog.Logger
}

// NewHTTPClient creates a new speech-to-text client
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		url:                cfg.STTURL,
		defaultContentType: cfg.STTContentType,
		authHeader:         cfg.STTAuthHeader,
		model:              cfg.STTModel,
		httpClient:         &http.Client{Timeout: cfg.STTCallTimeout()},
		circuitBreaker: resilience.NewCircuitBreaker(
			observability.StageSTT,
			cfg.CircuitBreakerMaxFailures,
			cfg.CircuitBreakerReset(),
		),
		logger: observability.GetLogger().With().Str("component", observability.StageSTT).Logger(),
	}
}

// CircuitBreaker exposes the breaker guarding the endpoint for readiness checks.
func (c *HTTPClient) CircuitBreaker() *resilience.CircuitBreaker {
	return c.circuitBreaker
}

// Transcribe implements Transcriber.
func (c *HTTPClient) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", relayerr.Newf(relayerr.KindInvalidInput, op, "no audio supplied for speech-to-text conversion")
	}

	if contentType == "" {
		contentType = c.defaultContentType
	}

	var body []byte
	err := c.circuitBreaker.CallContext(ctx, func() error {
		var callErr error
		body, callErr = c.post(ctx, audio, contentType)
		return callErr
	})
	observability.UpdateCircuitBreakerState(observability.StageSTT, int(c.circuitBreaker.GetState()))
	if err != nil {
		if c.circuitBreaker.CountsAsFailure(ctx, err) {
			observability.IncrementCircuitBreakerFailures(observability.StageSTT)
		}
		c.logger.Error().Err(err).Msg("Speech-to-text request failed")
		return "", relayerr.New(relayerr.KindTranscriptionFailed, op, err)
	}

	var payload recognizeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Error().Err(err).Msg("Speech-to-text response could not be decoded")
		return "", relayerr.New(relayerr.KindTranscriptionFailed, op, fmt.Errorf("decode response: %w", err))
	}

	transcript := payload.transcript()
	if transcript == "" {
		c.logger.Warn().Msg("Speech-to-text response did not contain a transcript")
		return "", relayerr.Newf(relayerr.KindNoTranscript, op, "speech-to-text response did not contain a transcript")
	}

	return transcript, nil
}

// post performs the single outbound call and returns the 2xx response body.
func (c *HTTPClient) post(ctx context.Context, audio []byte, contentType string) ([]byte, error) {
	endpoint, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid speech-to-text url: %w", err)
	}
	if c.model != "" {
		q := endpoint.Query()
		q.Set("model", c.model)
		endpoint.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("speech-to-text service returned status %d: %s", resp.StatusCode, relayerr.BodySnippet(body))
	}

	return body, nil
}

// transcript joins every non-empty alternative in encounter order and falls
// back to the flat text field only when the results yield nothing.
func (r *recognizeResponse) transcript() string {
	var parts []string
	for _, result := range r.Results {
		for _, alt := range result.Alternatives {
			if t := strings.TrimSpace(alt.Transcript); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	return strings.TrimSpace(r.Text)
}
