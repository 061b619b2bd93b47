package relayerr

import (
	"strings"
	"unicode/utf8"
)

// MaxBodySnippet bounds how much of a downstream error body is carried into
// error details.
const MaxBodySnippet = 512

// BodySnippet returns the trimmed body, cut to at most MaxBodySnippet bytes
// on a rune boundary.
func BodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= MaxBodySnippet {
		return s
	}

	cut := MaxBodySnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
