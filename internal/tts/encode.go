package tts

import (
	"encoding/base64"

	"github.com/lexiqai/voice-relay/internal/relayerr"
)

// EncodeToTransportText returns the standard base64 form of audio so it can
// travel inside a JSON response.
func EncodeToTransportText(audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", relayerr.Newf(relayerr.KindInvalidInput, "tts.EncodeToTransportText", "no audio bytes provided for encoding")
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}
