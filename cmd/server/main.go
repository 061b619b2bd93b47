package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiqai/voice-relay/internal/config"
	"github.com/lexiqai/voice-relay/internal/llm"
	"github.com/lexiqai/voice-relay/internal/observability"
	"github.com/lexiqai/voice-relay/internal/relay"
	"github.com/lexiqai/voice-relay/internal/stt"
	"github.com/lexiqai/voice-relay/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("stt_url", cfg.STTURL).
		Str("tts_url", cfg.TTSURL).
		Str("openai_model", cfg.OpenAIModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice Relay Service starting")

	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY is not set, /process-message will fail until it is configured")
	}

	// Downstream clients
	sttClient := stt.NewHTTPClient(cfg)
	llmClient := llm.NewOpenAIClient(cfg)
	ttsClient := tts.NewHTTPClient(cfg)

	handler := relay.NewHandler(sttClient, llmClient, ttsClient, cfg.MaxAudioBytes)

	readiness := map[string]observability.HealthCheckFunc{
		"stt":            relay.BreakerCheck(sttClient.CircuitBreaker()),
		"tts":            relay.BreakerCheck(ttsClient.CircuitBreaker()),
		"openai":         relay.BreakerCheck(llmClient.CircuitBreaker()),
		"openai_api_key": relay.CredentialCheck(llmClient.HasAPIKey(), "OPENAI_API_KEY"),
	}

	// Outbound calls run sequentially on /process-message, so the write
	// timeout has to cover a completion plus a synthesis.
	writeTimeout := cfg.OpenAICallTimeout() + cfg.TTSCallTimeout() + 10*time.Second
	if sttBudget := cfg.STTCallTimeout() + 10*time.Second; sttBudget > writeTimeout {
		writeTimeout = sttBudget
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      relay.NewRouter(cfg, handler, readiness),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Dur("write_timeout", writeTimeout).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
