package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClockDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3:20", 200},
		{"0:07", 7},
		{"10:00", 600},
		{"1:05:20", 3920},
		{"2:00:00", 7200},
		{" 3:20 ", 200},
		{"3", 0},
		{"", 0},
		{"LIVE", 0},
		{"1:2:3:4", 0},
		{"-1:30", 0},
		{"a:bc", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseClockDuration(c.in), "input %q", c.in)
	}
}

func TestThumbnailURL(t *testing.T) {
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", ThumbnailURL("dQw4w9WgXcQ"))
}
