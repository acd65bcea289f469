package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonora/internal/music/sources"
	"sonora/internal/music/track"
)

type stubBackend struct {
	name      track.Source
	available bool
	results   map[string][]track.Track
	err       error
	queries   []string
}

func (s *stubBackend) SourceName() track.Source { return s.name }
func (s *stubBackend) Available() bool          { return s.available }

func (s *stubBackend) Search(_ context.Context, query string, limit int) ([]track.Track, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	results := s.results[query]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func ytTrack(title string) track.Track {
	return track.Track{
		Title:       title,
		Source:      track.SourceYouTube,
		PlayableURL: "https://www.youtube.com/watch?v=" + title,
	}
}

func spTrack(title, artist string) track.Track {
	return track.Track{Title: title, Artist: artist, Source: track.SourceSpotify}
}

func TestResolvePrefersYouTube(t *testing.T) {
	yt := &stubBackend{
		name: track.SourceYouTube, available: true,
		results: map[string][]track.Track{"dancing queen": {ytTrack("abc")}},
	}
	sp := &stubBackend{name: track.SourceSpotify, available: true}
	r := New(zerolog.Nop(), yt, sp)

	got, err := r.Resolve(context.Background(), "dancing queen", track.SourceAny)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Title)
	assert.Empty(t, sp.queries)
}

func TestResolveFallsBackToSpotify(t *testing.T) {
	yt := &stubBackend{
		name: track.SourceYouTube, available: true,
		results: map[string][]track.Track{"abba abba": {ytTrack("fill")}},
	}
	sp := &stubBackend{
		name: track.SourceSpotify, available: true,
		results: map[string][]track.Track{"obscure song": {spTrack("abba", "abba")}},
	}
	r := New(zerolog.Nop(), yt, sp)

	got, err := r.Resolve(context.Background(), "obscure song", track.SourceAny)
	require.NoError(t, err)
	assert.Equal(t, track.SourceSpotify, got.Source)
	// the catalog hit gets its playable URL from a secondary lookup
	assert.Equal(t, "https://www.youtube.com/watch?v=fill", got.PlayableURL)
}

func TestSpotifyTrackKeepsEmptyURLWhenLookupFails(t *testing.T) {
	yt := &stubBackend{name: track.SourceYouTube, available: true}
	sp := &stubBackend{
		name: track.SourceSpotify, available: true,
		results: map[string][]track.Track{"rare b-side": {spTrack("rare", "nobody")}},
	}
	r := New(zerolog.Nop(), yt, sp)

	got, err := r.Resolve(context.Background(), "rare b-side", track.SourceSpotify)
	require.NoError(t, err)
	assert.Empty(t, got.PlayableURL)
}

func TestResolveUnconfiguredSpotifyFailsFast(t *testing.T) {
	yt := &stubBackend{name: track.SourceYouTube, available: true}
	sp := &stubBackend{name: track.SourceSpotify, available: false}
	r := New(zerolog.Nop(), yt, sp)

	_, err := r.Resolve(context.Background(), "anything", track.SourceSpotify)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, sp.queries)
}

func TestResolveNoResultsAnywhere(t *testing.T) {
	yt := &stubBackend{name: track.SourceYouTube, available: true}
	sp := &stubBackend{name: track.SourceSpotify, available: true}
	r := New(zerolog.Nop(), yt, sp)

	_, err := r.Resolve(context.Background(), "nothing matches this", track.SourceAny)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveBackendErrorWrappedAsNotFound(t *testing.T) {
	yt := &stubBackend{name: track.SourceYouTube, available: true, err: errors.New("connection refused")}
	r := New(zerolog.Nop(), yt)

	_, err := r.Resolve(context.Background(), "query", track.SourceYouTube)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	r := New(zerolog.Nop(), &stubBackend{name: track.SourceYouTube, available: true})

	_, err := r.Search(context.Background(), "   ", track.SourceAny, 5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchHonorsLimit(t *testing.T) {
	yt := &stubBackend{
		name: track.SourceYouTube, available: true,
		results: map[string][]track.Track{"hits": {ytTrack("a"), ytTrack("b"), ytTrack("c")}},
	}
	r := New(zerolog.Nop(), yt)

	results, err := r.Search(context.Background(), "hits", track.SourceYouTube, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

var _ sources.Searcher = (*stubBackend)(nil)
