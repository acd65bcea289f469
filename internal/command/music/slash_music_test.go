package music

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	got := truncate(strings.Repeat("x", 20), 10)
	assert.Equal(t, "xxxxxxxxx…", got)
	assert.Equal(t, 10, utf8.RuneCountInString(got))

	// multibyte titles must be cut on rune boundaries, not bytes
	got = truncate(strings.Repeat("日", 20), 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "日日日日日日日日日…", got)
	assert.Equal(t, 10, utf8.RuneCountInString(got))
}
