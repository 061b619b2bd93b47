package llm

import "context"

// Completer produces an assistant reply for a single user message.
type Completer interface {
	Complete(ctx context.Context, userMessage string) (string, error)
}
