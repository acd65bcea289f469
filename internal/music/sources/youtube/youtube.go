package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ppalone/ytsearch"

	"sonora/internal/music/sources"
	"sonora/internal/music/track"
)

const watchURL = "https://www.youtube.com/watch?v="

// YouTubeSource searches YouTube by scraping the results page through
// the ytsearch client. It needs no credentials and is always available.
type YouTubeSource struct {
	client *ytsearch.Client
}

func New() *YouTubeSource {
	return &YouTubeSource{
		client: ytsearch.NewClient(&http.Client{Timeout: 10 * time.Second}),
	}
}

func (y *YouTubeSource) SourceName() track.Source { return track.SourceYouTube }

func (y *YouTubeSource) Available() bool { return true }

func (y *YouTubeSource) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	res, err := y.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	tracks := make([]track.Track, 0, limit)
	for _, r := range res.Results {
		if r.VideoID == "" {
			continue
		}
		tracks = append(tracks, track.Track{
			Title:           r.Title,
			Artist:          r.Channel,
			DurationSeconds: ParseClockDuration(r.Duration),
			ThumbnailURL:    ThumbnailURL(r.VideoID),
			PlayableURL:     watchURL + r.VideoID,
			Source:          track.SourceYouTube,
		})
		if len(tracks) == limit {
			break
		}
	}

	if len(tracks) == 0 {
		return nil, sources.ErrNotFound
	}
	return tracks, nil
}

// ParseClockDuration converts strings like "3:20" or "1:05:20" into
// seconds. Returns 0 for live streams and anything unparseable.
func ParseClockDuration(s string) int {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// ThumbnailURL builds the stable thumbnail location for a video ID.
func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}
