package relayerr

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBodySnippet(t *testing.T) {
	assert.Equal(t, "voice not found", BodySnippet([]byte("  voice not found\n")))

	exact := strings.Repeat("a", MaxBodySnippet)
	assert.Equal(t, exact, BodySnippet([]byte(exact)))

	long := BodySnippet([]byte(strings.Repeat("b", MaxBodySnippet+10)))
	assert.Equal(t, strings.Repeat("b", MaxBodySnippet)+"...", long)
}

func TestBodySnippet_KeepsRunesWhole(t *testing.T) {
	// "é" is two bytes, so byte MaxBodySnippet falls inside a rune
	body := "x" + strings.Repeat("é", MaxBodySnippet)

	got := BodySnippet([]byte(body))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "é..."))
	assert.LessOrEqual(t, len(got), MaxBodySnippet+len("..."))
}
