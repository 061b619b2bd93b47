package tts

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/voice-relay/internal/relayerr"
)

func TestEncodeToTransportText_RoundTrip(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0xff, 0x10, 0x80, 0x7f}

	encoded, err := EncodeToTransportText(audio)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, audio, decoded)

	again, err := EncodeToTransportText(audio)
	require.NoError(t, err)
	assert.Equal(t, encoded, again)
}

func TestEncodeToTransportText_Empty(t *testing.T) {
	for _, audio := range [][]byte{nil, {}} {
		encoded, err := EncodeToTransportText(audio)
		assert.Empty(t, encoded)
		assert.ErrorIs(t, err, relayerr.ErrInvalidInput)
	}
}
