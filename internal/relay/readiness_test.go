package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lexiqai/voice-relay/internal/resilience"
)

func TestBreakerCheck(t *testing.T) {
	cb := resilience.NewCircuitBreaker("tts", 1, time.Minute)
	check := BreakerCheck(cb)

	ok, err := check(context.Background())
	assert.True(t, ok)
	assert.NoError(t, err)

	cb.RecordResult(true)
	cb.RecordResult(false)

	ok, err = check(context.Background())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Contains(t, err.Error(), "tts")
	assert.Contains(t, err.Error(), "1 of 2 requests failed, 50.0%")
}

func TestBreakerCheck_Disabled(t *testing.T) {
	ok, err := BreakerCheck(nil)(context.Background())
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestCredentialCheck(t *testing.T) {
	ok, err := CredentialCheck(true, "OPENAI_API_KEY")(context.Background())
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = CredentialCheck(false, "OPENAI_API_KEY")(context.Background())
	assert.False(t, ok)
	assert.EqualError(t, err, "OPENAI_API_KEY is not configured")
}
