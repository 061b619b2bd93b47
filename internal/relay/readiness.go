package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexiqai/voice-relay/internal/observability"
	"github.com/lexiqai/voice-relay/internal/resilience"
)

// BreakerCheck reports a dependency unhealthy while its circuit breaker is
// open, with the breaker's lifetime counts in the message.
func BreakerCheck(cb *resilience.CircuitBreaker) observability.HealthCheckFunc {
	return func(ctx context.Context) (bool, error) {
		state, requests, failures, rate := cb.GetStats()
		if state == resilience.StateOpen {
			return false, fmt.Errorf("%s: %w (%d of %d requests failed, %.1f%%)",
				cb.Name(), resilience.ErrCircuitOpen, failures, requests, rate)
		}
		return true, nil
	}
}

// CredentialCheck reports a dependency unhealthy when its credential is missing.
func CredentialCheck(present bool, name string) observability.HealthCheckFunc {
	return func(ctx context.Context) (bool, error) {
		if !present {
			return false, errors.New(name + " is not configured")
		}
		return true, nil
	}
}
