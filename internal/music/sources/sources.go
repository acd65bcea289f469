package sources

import (
	"context"
	"errors"

	"sonora/internal/music/track"
)

var (
	// ErrNotFound is returned when a backend has no results for a query.
	// Network and timeout failures are reported the same way.
	ErrNotFound = errors.New("no tracks found")

	// ErrUnavailable is returned by a backend that has no credentials
	// configured and therefore cannot serve queries at all.
	ErrUnavailable = errors.New("source is not configured")
)

// Searcher is a single search backend capable of turning a free-text
// query into playable tracks.
type Searcher interface {
	// SourceName returns the backend identifier ("youtube", "spotify").
	SourceName() track.Source

	// Available reports whether the backend can serve queries.
	Available() bool

	// Search returns up to limit tracks in backend-native ranking order.
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
}
