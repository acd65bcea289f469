package track

import "fmt"

// Source identifies the search backend a track was resolved from.
type Source string

const (
	SourceYouTube Source = "youtube"
	SourceSpotify Source = "spotify"
	SourceAny     Source = "any"
)

// Track is a resolved piece of media. It is a plain value and is never
// mutated after it has been placed in a queue.
type Track struct {
	Title           string
	Artist          string
	DurationSeconds int
	ThumbnailURL    string
	PlayableURL     string
	Source          Source
}

// FormatDuration renders a track length as m:ss or h:mm:ss.
// Zero means the length is unknown (live streams, radio).
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "LIVE"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " - " + t.Artist
}
