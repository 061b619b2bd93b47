package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice relay service.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	// Server configuration
	Port               string   `envconfig:"PORT" default:"8000"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MaxAudioBytes      int64    `envconfig:"MAX_AUDIO_BYTES" default:"26214400"` // 25 MiB

	// Speech-to-text endpoint configuration
	STTURL         string  `envconfig:"STT_URL" default:"http://localhost:1080/speech-to-text/api/v1/recognize"`
	STTContentType string  `envconfig:"STT_CONTENT_TYPE" default:"application/octet-stream"`
	STTAuthHeader  string  `envconfig:"STT_AUTH_HEADER" default:""` // Sent verbatim as Authorization
	STTModel       string  `envconfig:"STT_MODEL" default:""`       // Optional ?model= query parameter
	STTTimeout     float64 `envconfig:"STT_TIMEOUT" default:"30"`   // seconds

	// Text-to-speech endpoint configuration
	TTSURL        string  `envconfig:"TTS_URL" default:"http://localhost:1081/text-to-speech/api/v1/synthesize"`
	TTSAccept     string  `envconfig:"TTS_ACCEPT" default:"audio/wav"`
	TTSAuthHeader string  `envconfig:"TTS_AUTH_HEADER" default:""`
	TTSTimeout    float64 `envconfig:"TTS_TIMEOUT" default:"30"` // seconds

	// OpenAI chat completion configuration
	OpenAIAPIKey       string  `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL      string  `envconfig:"OPENAI_BASE_URL" default:""` // OpenAI-compatible gateway override
	OpenAIModel        string  `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAISystemPrompt string  `envconfig:"OPENAI_SYSTEM_PROMPT" default:"You are a helpful AI voice assistant that responds clearly and concisely."`
	OpenAITemperature  float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
	OpenAITimeout      float64 `envconfig:"OPENAI_TIMEOUT" default:"30"` // seconds

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // 0 disables the breaker
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"STT_URL": c.STTURL, "TTS_URL": c.TTSURL} {
		if err := validateHTTPURL(raw); err != nil {
			return fmt.Errorf("%s is invalid: %w", name, err)
		}
	}
	if c.OpenAIBaseURL != "" {
		if err := validateHTTPURL(c.OpenAIBaseURL); err != nil {
			return fmt.Errorf("OPENAI_BASE_URL is invalid: %w", err)
		}
	}

	for name, timeout := range map[string]float64{
		"STT_TIMEOUT":    c.STTTimeout,
		"TTS_TIMEOUT":    c.TTSTimeout,
		"OPENAI_TIMEOUT": c.OpenAITimeout,
	} {
		if timeout <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, timeout)
		}
	}
	if c.OpenAITemperature < 0 || c.OpenAITemperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2, got %v", c.OpenAITemperature)
	}
	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_BYTES must be positive, got %d", c.MaxAudioBytes)
	}
	if c.CircuitBreakerMaxFailures < 0 {
		return fmt.Errorf("CIRCUIT_BREAKER_MAX_FAILURES must not be negative")
	}

	return nil
}

// STTCallTimeout returns the speech-to-text call timeout.
func (c *Config) STTCallTimeout() time.Duration { return seconds(c.STTTimeout) }

// TTSCallTimeout returns the text-to-speech call timeout.
func (c *Config) TTSCallTimeout() time.Duration { return seconds(c.TTSTimeout) }

// OpenAICallTimeout returns the chat completion call timeout.
func (c *Config) OpenAICallTimeout() time.Duration { return seconds(c.OpenAITimeout) }

// CircuitBreakerReset returns the open-state duration of the circuit breakers.
func (c *Config) CircuitBreakerReset() time.Duration {
	return time.Duration(c.CircuitBreakerResetTimeout) * time.Second
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
