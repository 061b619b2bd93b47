package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-relay/internal/config"
	"github.com/lexiqai/voice-relay/internal/observability"
	"github.com/lexiqai/voice-relay/internal/relayerr"
	"github.com/lexiqai/voice-relay/internal/resilience"
)

const op = "tts.Synthesize"

// HTTPClient implements Synthesizer against a REST synthesize endpoint that
// answers with raw audio bytes.
type HTTPClient struct {
	url            string
	accept         string
	authHeader     string
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
	logger         zerolog.Logger
}

// NewHTTPClient creates a new text-to-speech client
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		url:        cfg.TTSURL,
		accept:     cfg.TTSAccept,
		authHeader: cfg.TTSAuthHeader,
		httpClient: &http.Client{Timeout: cfg.TTSCallTimeout()},
		circuitBreaker: resilience.NewCircuitBreaker(
			observability.StageTTS,
			cfg.CircuitBreakerMaxFailures,
			cfg.CircuitBreakerReset(),
		),
		logger: observability.GetLogger().With().Str("component", observability.StageTTS).Logger(),
	}
}

// CircuitBreaker exposes the breaker guarding the endpoint for readiness checks.
func (c *HTTPClient) CircuitBreaker() *resilience.CircuitBreaker {
	return c.circuitBreaker
}

// Synthesize implements Synthesizer.
func (c *HTTPClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, relayerr.Newf(relayerr.KindInvalidInput, op, "no text supplied for text-to-speech conversion")
	}

	var audio []byte
	err := c.circuitBreaker.CallContext(ctx, func() error {
		var callErr error
		audio, callErr = c.post(ctx, text, voice)
		return callErr
	})
	observability.UpdateCircuitBreakerState(observability.StageTTS, int(c.circuitBreaker.GetState()))
	if err != nil {
		if c.circuitBreaker.CountsAsFailure(ctx, err) {
			observability.IncrementCircuitBreakerFailures(observability.StageTTS)
		}
		c.logger.Error().Err(err).Str("voice", voice).Msg("Text-to-speech request failed")
		return nil, relayerr.New(relayerr.KindSynthesisFailed, op, err)
	}

	if len(audio) == 0 {
		c.logger.Warn().Str("voice", voice).Msg("Text-to-speech response did not include audio data")
		return nil, relayerr.Newf(relayerr.KindEmptyAudio, op, "text-to-speech response did not include audio data")
	}

	return audio, nil
}

func (c *HTTPClient) post(ctx context.Context, text, voice string) ([]byte, error) {
	endpoint, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid text-to-speech url: %w", err)
	}
	if voice != "" {
		q := endpoint.Query()
		q.Set("voice", voice)
		endpoint.RawQuery = q.Encode()
	}

	jsonData, err := json.Marshal(SynthesizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", c.accept)
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
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("text-to-speech service returned status %d: %s", resp.StatusCode, relayerr.BodySnippet(body))
	}

	return body, nil
}
