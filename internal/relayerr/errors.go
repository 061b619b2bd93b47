// Package relayerr defines the failure taxonomy shared by the downstream
// clients and the HTTP layer.
package relayerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a relay failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindTranscriptionFailed
	KindNoTranscript
	KindCompletionFailed
	KindEmptyCompletion
	KindSynthesisFailed
	KindEmptyAudio
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindTranscriptionFailed:
		return "transcription failed"
	case KindNoTranscript:
		return "no transcript"
	case KindCompletionFailed:
		return "completion failed"
	case KindEmptyCompletion:
		return "empty completion"
	case KindSynthesisFailed:
		return "synthesis failed"
	case KindEmptyAudio:
		return "empty audio"
	default:
		return "unknown"
	}
}

// Parent returns the broader category of k. The "empty" kinds are subtypes
// of the matching "failed" kind; every other kind is its own parent.
func (k Kind) Parent() Kind {
	switch k {
	case KindNoTranscript:
		return KindTranscriptionFailed
	case KindEmptyCompletion:
		return KindCompletionFailed
	case KindEmptyAudio:
		return KindSynthesisFailed
	default:
		return k
	}
}

// Sentinels for errors.Is. They carry no cause and match any *Error of the
// same kind, or of a subtype kind.
var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrTranscriptionFailed = &Error{Kind: KindTranscriptionFailed}
	ErrNoTranscript        = &Error{Kind: KindNoTranscript}
	ErrCompletionFailed    = &Error{Kind: KindCompletionFailed}
	ErrEmptyCompletion     = &Error{Kind: KindEmptyCompletion}
	ErrSynthesisFailed     = &Error{Kind: KindSynthesisFailed}
	ErrEmptyAudio          = &Error{Kind: KindEmptyAudio}
)

// Error is a classified failure. Op names the operation that failed and Err
// is the underlying cause, left untouched so callers can errors.As into it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New returns an *Error of the given kind wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf returns an *Error of the given kind with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel for e's kind or e's parent kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind || t.Kind == e.Kind.Parent()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCode maps err to the HTTP status the relay answers with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
