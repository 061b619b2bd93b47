// Package relay is the HTTP face of the service. It validates input, calls
// the speech-to-text, completion and text-to-speech clients in order and
// assembles their results into JSON responses.
package relay

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/lexiqai/voice-relay/internal/llm"
	"github.com/lexiqai/voice-relay/internal/observability"
	"github.com/lexiqai/voice-relay/internal/relayerr"
	"github.com/lexiqai/voice-relay/internal/stt"
	"github.com/lexiqai/voice-relay/internal/tts"
)

// maxMessageBytes bounds /process-message request bodies.
const maxMessageBytes = 1 << 20

// Client-facing error messages. Consumers match on these, keep them stable.
const (
	msgNoAudio          = "No audio payload provided"
	msgAudioTooLarge    = "Audio payload too large"
	msgTranscribeFailed = "Speech-to-text conversion failed"
	msgMessageRequired  = "userMessage is required"
	msgProcessFailed    = "Unable to process user message"
)

// Handler serves the relay endpoints.
type Handler struct {
	transcriber   stt.Transcriber
	completer     llm.Completer
	synthesizer   tts.Synthesizer
	maxAudioBytes int64
}

// NewHandler wires the three downstream clients into a Handler.
func NewHandler(transcriber stt.Transcriber, completer llm.Completer, synthesizer tts.Synthesizer, maxAudioBytes int64) *Handler {
	return &Handler{
		transcriber:   transcriber,
		completer:     completer,
		synthesizer:   synthesizer,
		maxAudioBytes: maxAudioBytes,
	}
}

type transcriptResponse struct {
	Text string `json:"text"`
}

type processMessageRequest struct {
	UserMessage string `json:"userMessage"`
	Voice       string `json:"voice"`
}

type processMessageResponse struct {
	Text   string `json:"openaiResponseText"`
	Speech string `json:"openaiResponseSpeech"`
}

// SpeechToText handles POST /speech-to-text. The body is the raw audio clip.
func (h *Handler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	metrics := metricsFromContext(ctx)

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxAudioBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn().Int64("limit", tooLarge.Limit).Msg("Audio payload rejected as too large")
			writeError(w, http.StatusRequestEntityTooLarge, msgAudioTooLarge, nil)
			return
		}
		logger.Warn().Err(err).Msg("Failed to read audio payload")
		writeError(w, http.StatusBadRequest, msgNoAudio, nil)
		return
	}

	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, msgNoAudio, nil)
		return
	}
	metrics.RecordAudioBytes("in", int64(len(audio)))

	metrics.RecordStageStart(observability.StageSTT)
	text, err := h.transcriber.Transcribe(ctx, audio, r.Header.Get("Content-Type"))
	metrics.RecordStageEnd(observability.StageSTT, err == nil)
	if err != nil {
		metrics.RecordError(relayerr.KindOf(err).String(), observability.StageSTT)
		logger.Error().Err(err).Msg(msgTranscribeFailed)
		writeError(w, http.StatusBadGateway, msgTranscribeFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, transcriptResponse{Text: text})
}

// ProcessMessage handles POST /process-message. A completion failure fails
// the request; a synthesis failure only drops the audio from the response.
func (h *Handler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	metrics := metricsFromContext(ctx)

	var req processMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		// An unreadable payload is treated like an empty one
		logger.Debug().Err(err).Msg("Ignoring undecodable process-message payload")
		req = processMessageRequest{}
	}

	message := strings.TrimSpace(req.UserMessage)
	voice := strings.TrimSpace(req.Voice)
	if message == "" {
		writeError(w, http.StatusBadRequest, msgMessageRequired, nil)
		return
	}

	metrics.RecordStageStart(observability.StageLLM)
	reply, err := h.completer.Complete(ctx, message)
	metrics.RecordStageEnd(observability.StageLLM, err == nil)
	if err != nil {
		metrics.RecordError(relayerr.KindOf(err).String(), observability.StageLLM)
		logger.Error().Err(err).Msg("OpenAI processing failed")
		writeError(w, http.StatusBadGateway, msgProcessFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, processMessageResponse{
		Text:   reply,
		Speech: h.speak(r, reply, voice),
	})
}

// speak synthesizes reply and returns it base64 encoded, or "" if any step
// fails. Failures are logged and counted but never surface to the caller.
func (h *Handler) speak(r *http.Request, reply, voice string) string {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	metrics := metricsFromContext(ctx)

	metrics.RecordStageStart(observability.StageTTS)
	audio, err := h.synthesizer.Synthesize(ctx, reply, voice)
	metrics.RecordStageEnd(observability.StageTTS, err == nil)

	var speech string
	if err == nil {
		speech, err = tts.EncodeToTransportText(audio)
	}
	if err != nil {
		metrics.RecordError(relayerr.KindOf(err).String(), observability.StageTTS)
		metrics.RecordDegraded()
		logger.Warn().Err(err).Str("voice", voice).Msg("Text-to-speech synthesis failed, responding without audio")
		return ""
	}

	metrics.RecordAudioBytes("out", int64(len(audio)))
	return speech
}
