package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "LIVE", FormatDuration(0))
	assert.Equal(t, "LIVE", FormatDuration(-10))
	assert.Equal(t, "0:07", FormatDuration(7))
	assert.Equal(t, "3:20", FormatDuration(200))
	assert.Equal(t, "1:05:20", FormatDuration(3920))
}

func TestString(t *testing.T) {
	assert.Equal(t, "Waterloo - ABBA", Track{Title: "Waterloo", Artist: "ABBA"}.String())
	assert.Equal(t, "Waterloo", Track{Title: "Waterloo"}.String())
}
