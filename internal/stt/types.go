package stt

import "context"

// Transcriber turns an audio clip into text.
type Transcriber interface {
	// Transcribe sends audio to the speech-to-text service and returns the
	// trimmed transcript. contentType may be empty to use the configured default.
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// recognizeResponse covers both response shapes we accept: a results ->
// alternatives -> transcript tree, and a flat top-level text field.
type recognizeResponse struct {
	Results []recognizeResult `json:"results"`
	Text    string            `json:"text"`
}

type recognizeResult struct {
	Alternatives []recognizeAlternative `json:"alternatives"`
}

type recognizeAlternative struct {
	Transcript string `json:"transcript"`
}
