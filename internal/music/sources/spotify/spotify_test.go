package spotify

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonora/internal/music/sources"
	"sonora/internal/music/track"
)

const searchBody = `{
	"tracks": {
		"items": [
			{
				"id": "track-id-1",
				"name": "Dancing Queen",
				"duration_ms": 230000,
				"artists": [{"id": "a1", "name": "ABBA"}],
				"album": {"images": [{"url": "https://img.example/cover.jpg"}]}
			}
		]
	}
}`

func newTestSource(t *testing.T, apiHandler http.HandlerFunc) (*SpotifySource, *atomic.Int64) {
	t.Helper()

	var tokenCalls atomic.Int64
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)

		creds := base64.StdEncoding.EncodeToString([]byte("id:secret"))
		assert.Equal(t, "Basic "+creds, r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "test-token", "expires_in": 3600}`))
	}))
	t.Cleanup(tokenSrv.Close)

	apiSrv := httptest.NewServer(apiHandler)
	t.Cleanup(apiSrv.Close)

	s := New("id", "secret")
	s.tokenURL = tokenSrv.URL
	s.apiURL = apiSrv.URL
	return s, &tokenCalls
}

func TestSearchMapsCatalogTracks(t *testing.T) {
	s, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "dancing queen", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(searchBody))
	})

	tracks, err := s.Search(context.Background(), "dancing queen", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	got := tracks[0]
	assert.Equal(t, "Dancing Queen", got.Title)
	assert.Equal(t, "ABBA", got.Artist)
	assert.Equal(t, 230, got.DurationSeconds)
	assert.Equal(t, "https://img.example/cover.jpg", got.ThumbnailURL)
	assert.Equal(t, track.SourceSpotify, got.Source)
	assert.Empty(t, got.PlayableURL)
}

func TestTokenIsReusedAcrossRequests(t *testing.T) {
	s, tokenCalls := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	})

	ctx := context.Background()
	_, err := s.Search(ctx, "one", 1)
	require.NoError(t, err)
	_, err = s.Search(ctx, "two", 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), tokenCalls.Load())
}

func TestSearchEmptyResults(t *testing.T) {
	s, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tracks": {"items": []}}`))
	})

	_, err := s.Search(context.Background(), "nothing", 5)
	require.ErrorIs(t, err, sources.ErrNotFound)
}

func TestSearchAPIErrorSurfaces(t *testing.T) {
	s, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := s.Search(context.Background(), "query", 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, sources.ErrNotFound)
}

func TestUnconfiguredSourceNeverTouchesNetwork(t *testing.T) {
	s := New("", "")

	assert.False(t, s.Available())
	_, err := s.Search(context.Background(), "query", 5)
	require.ErrorIs(t, err, sources.ErrUnavailable)
	_, err = s.Recommendations(context.Background(), "seed", 5)
	require.ErrorIs(t, err, sources.ErrUnavailable)
	_, err = s.SeedIDFor(context.Background(), "query")
	require.ErrorIs(t, err, sources.ErrUnavailable)
}

func TestSeedIDFor(t *testing.T) {
	s, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(searchBody))
	})

	id, err := s.SeedIDFor(context.Background(), "dancing queen")
	require.NoError(t, err)
	assert.Equal(t, "track-id-1", id)
}

func TestRecommendations(t *testing.T) {
	s, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommendations", r.URL.Path)
		assert.Equal(t, "track-id-1", r.URL.Query().Get("seed_tracks"))
		_, _ = w.Write([]byte(`{
			"tracks": [
				{"id": "r1", "name": "Waterloo", "duration_ms": 165000, "artists": [{"id": "a1", "name": "ABBA"}]}
			]
		}`))
	})

	tracks, err := s.Recommendations(context.Background(), "track-id-1", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Waterloo", tracks[0].Title)
	assert.Equal(t, 165, tracks[0].DurationSeconds)
}
