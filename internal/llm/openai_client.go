package llm

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lexiqai/voice-relay/internal/config"
	"github.com/lexiqai/voice-relay/internal/observability"
	"github.com/lexiqai/voice-relay/internal/relayerr"
	"github.com/lexiqai/voice-relay/internal/resilience"
)

const op = "llm.Complete"

// OpenAIClient implements Completer with the OpenAI chat completions API.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	systemPrompt   string
	temperature    float32
	hasAPIKey      bool
	circuitBreaker *resilience.CircuitBreaker
	logger         zerolog.Logger
}

// NewOpenAIClient creates a new chat completion client
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.OpenAICallTimeout()}

	temperature := float32(cfg.OpenAITemperature)
	if temperature == 0 {
		// go-openai drops a zero temperature from the request body
		temperature = math.SmallestNonzeroFloat32
	}

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.OpenAIModel,
		systemPrompt: cfg.OpenAISystemPrompt,
		temperature:  temperature,
		hasAPIKey:    cfg.OpenAIAPIKey != "",
		circuitBreaker: resilience.NewCircuitBreaker(
			observability.StageLLM,
			cfg.CircuitBreakerMaxFailures,
			cfg.CircuitBreakerReset(),
		),
		logger: observability.GetLogger().With().Str("component", observability.StageLLM).Logger(),
	}
}

// CircuitBreaker exposes the breaker guarding the API for readiness checks.
func (c *OpenAIClient) CircuitBreaker() *resilience.CircuitBreaker {
	return c.circuitBreaker
}

// HasAPIKey reports whether a credential was configured.
func (c *OpenAIClient) HasAPIKey() bool {
	return c.hasAPIKey
}

// Complete implements Completer.
func (c *OpenAIClient) Complete(ctx context.Context, userMessage string) (string, error) {
	message := strings.TrimSpace(userMessage)
	if message == "" {
		return "", relayerr.Newf(relayerr.KindInvalidInput, op, "empty user message provided to completion")
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: c.temperature,
	}

	var resp openai.ChatCompletionResponse
	err := c.circuitBreaker.CallContext(ctx, func() error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	observability.UpdateCircuitBreakerState(observability.StageLLM, int(c.circuitBreaker.GetState()))
	if err != nil {
		if c.circuitBreaker.CountsAsFailure(ctx, err) {
			observability.IncrementCircuitBreakerFailures(observability.StageLLM)
		}
		c.logger.Error().Err(err).Str("model", c.model).Msg("OpenAI chat completion failed")
		return "", relayerr.New(relayerr.KindCompletionFailed, op, err)
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn().Str("model", c.model).Msg("OpenAI response contained no choices")
		return "", relayerr.Newf(relayerr.KindEmptyCompletion, op, "completion response did not include any choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		c.logger.Warn().Str("model", c.model).Msg("OpenAI response did not include assistant content")
		return "", relayerr.Newf(relayerr.KindEmptyCompletion, op, "completion response did not include assistant content")
	}

	return content, nil
}
