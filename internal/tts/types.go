package tts

import "context"

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize returns the raw audio bytes for text. voice is optional.
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// SynthesizeRequest represents the request payload for the TTS endpoint
type SynthesizeRequest struct {
	Text string `json:"text"`
}
