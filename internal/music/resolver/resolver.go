package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"sonora/internal/music/sources"
	"sonora/internal/music/track"
)

const (
	// searchTimeout bounds every resolve so a hung backend can never
	// leave a command waiting forever.
	searchTimeout = 30 * time.Second

	// PreviewLimit is the default number of candidates for search previews.
	PreviewLimit = 5
)

// ErrNotFound is what the command layer sees for every failed resolve:
// empty results, unconfigured backends, network errors and timeouts alike.
var ErrNotFound = errors.New("track not found")

// Resolver turns free-text queries into playable tracks by composing the
// configured search backends with a fallback policy.
type Resolver struct {
	backends map[track.Source]sources.Searcher
	limiter  *rate.Limiter
	timeout  time.Duration
	log      zerolog.Logger
}

func New(log zerolog.Logger, backends ...sources.Searcher) *Resolver {
	m := make(map[track.Source]sources.Searcher, len(backends))
	for _, b := range backends {
		m[b.SourceName()] = b
	}
	return &Resolver{
		backends: m,
		limiter:  rate.NewLimiter(rate.Limit(5), 10),
		timeout:  searchTimeout,
		log:      log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the single best match for the query from the preferred
// backend, falling back from YouTube to Spotify when preferred is
// track.SourceAny.
func (r *Resolver) Resolve(ctx context.Context, query string, preferred track.Source) (track.Track, error) {
	results, err := r.Search(ctx, query, preferred, 1)
	if err != nil {
		return track.Track{}, err
	}
	return results[0], nil
}

// Search returns up to limit candidates in backend ranking order, for
// search-preview UX. No re-ranking is performed.
func (r *Resolver) Search(ctx context.Context, query string, preferred track.Source, limit int) ([]track.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrNotFound
	}
	if limit < 1 {
		limit = 1
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	switch preferred {
	case track.SourceYouTube:
		return r.searchBackend(ctx, track.SourceYouTube, query, limit)
	case track.SourceSpotify:
		return r.searchSpotify(ctx, query, limit)
	default:
		results, err := r.searchBackend(ctx, track.SourceYouTube, query, limit)
		if err == nil {
			return results, nil
		}
		r.log.Debug().Str("query", query).Msg("youtube search empty, falling back to spotify")
		return r.searchSpotify(ctx, query, limit)
	}
}

func (r *Resolver) searchBackend(ctx context.Context, src track.Source, query string, limit int) ([]track.Track, error) {
	backend, ok := r.backends[src]
	if !ok || !backend.Available() {
		return nil, fmt.Errorf("%w: %s backend unavailable", ErrNotFound, src)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	results, err := backend.Search(ctx, query, limit)
	if err != nil {
		r.log.Warn().Err(err).Str("source", string(src)).Str("query", query).Msg("search failed")
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no %s results for %q", ErrNotFound, src, query)
	}
	return results, nil
}

// searchSpotify queries the catalog backend and then fills each result's
// playable URL through a secondary YouTube lookup, since the catalog API
// exposes no streamable URLs. A track whose lookup fails keeps an empty
// URL and is skipped at playback time.
func (r *Resolver) searchSpotify(ctx context.Context, query string, limit int) ([]track.Track, error) {
	results, err := r.searchBackend(ctx, track.SourceSpotify, query, limit)
	if err != nil {
		return nil, err
	}

	for i := range results {
		if results[i].PlayableURL != "" {
			continue
		}
		lookup := results[i].Title
		if results[i].Artist != "" {
			lookup += " " + results[i].Artist
		}
		yt, err := r.searchBackend(ctx, track.SourceYouTube, lookup, 1)
		if err != nil {
			r.log.Warn().Str("track", results[i].String()).Msg("no playable url for spotify track")
			continue
		}
		results[i].PlayableURL = yt[0].PlayableURL
	}
	return results, nil
}
