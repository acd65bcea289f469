package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"sonora/internal/music/sources"
	"sonora/internal/music/track"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL   = "https://api.spotify.com/v1"
)

// SpotifySource queries the Spotify Web API with the client-credentials
// flow. Without credentials the source reports itself unavailable and
// never touches the network.
//
// Spotify does not expose streamable URLs, so tracks come back with an
// empty PlayableURL; the resolver fills it in with a YouTube lookup.
type SpotifySource struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	tokenURL string
	apiURL   string

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
}

func New(clientID, clientSecret string) *SpotifySource {
	return &SpotifySource{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     defaultTokenURL,
		apiURL:       defaultAPIURL,
	}
}

func (s *SpotifySource) SourceName() track.Source { return track.SourceSpotify }

func (s *SpotifySource) Available() bool {
	return s.clientID != "" && s.clientSecret != ""
}

// API response shapes, trimmed to what the bot reads.

type searchResponse struct {
	Tracks struct {
		Items []apiTrack `json:"items"`
	} `json:"tracks"`
}

type recommendationsResponse struct {
	Tracks []apiTrack `json:"tracks"`
}

type apiTrack struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	DurationMs int         `json:"duration_ms"`
	Artists    []apiArtist `json:"artists"`
	Album      struct {
		Images []apiImage `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type apiArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiImage struct {
	URL string `json:"url"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// authenticate obtains or refreshes the client-credentials access token.
func (s *SpotifySource) authenticate(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("token decode: %w", err)
	}

	s.accessToken = tok.AccessToken
	// renew a minute early so in-flight requests never carry a dead token
	s.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return s.accessToken, nil
}

func (s *SpotifySource) get(ctx context.Context, endpoint string, out any) error {
	token, err := s.authenticate(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("spotify api status %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *SpotifySource) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if !s.Available() {
		return nil, sources.ErrUnavailable
	}
	if limit < 1 {
		limit = 1
	}

	endpoint := "/search?q=" + url.QueryEscape(query) + "&type=track&limit=" + strconv.Itoa(limit)
	var res searchResponse
	if err := s.get(ctx, endpoint, &res); err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}

	if len(res.Tracks.Items) == 0 {
		return nil, sources.ErrNotFound
	}

	tracks := make([]track.Track, 0, len(res.Tracks.Items))
	for _, it := range res.Tracks.Items {
		tracks = append(tracks, mapTrack(it))
	}
	return tracks, nil
}

// Recommendations returns catalog suggestions seeded by a track ID.
func (s *SpotifySource) Recommendations(ctx context.Context, seedTrackID string, limit int) ([]track.Track, error) {
	if !s.Available() {
		return nil, sources.ErrUnavailable
	}
	if limit < 1 {
		limit = 5
	}

	endpoint := "/recommendations?seed_tracks=" + url.QueryEscape(seedTrackID) + "&limit=" + strconv.Itoa(limit)
	var res recommendationsResponse
	if err := s.get(ctx, endpoint, &res); err != nil {
		return nil, fmt.Errorf("spotify recommendations: %w", err)
	}

	if len(res.Tracks) == 0 {
		return nil, sources.ErrNotFound
	}

	tracks := make([]track.Track, 0, len(res.Tracks))
	for _, it := range res.Tracks {
		tracks = append(tracks, mapTrack(it))
	}
	return tracks, nil
}

// SeedIDFor returns the catalog ID of the best track match for a query,
// for use as a recommendation seed.
func (s *SpotifySource) SeedIDFor(ctx context.Context, query string) (string, error) {
	if !s.Available() {
		return "", sources.ErrUnavailable
	}

	endpoint := "/search?q=" + url.QueryEscape(query) + "&type=track&limit=1"
	var res searchResponse
	if err := s.get(ctx, endpoint, &res); err != nil {
		return "", fmt.Errorf("spotify search: %w", err)
	}
	if len(res.Tracks.Items) == 0 {
		return "", sources.ErrNotFound
	}
	return res.Tracks.Items[0].ID, nil
}

func mapTrack(it apiTrack) track.Track {
	names := make([]string, 0, len(it.Artists))
	for _, a := range it.Artists {
		names = append(names, a.Name)
	}

	thumbnail := ""
	if len(it.Album.Images) > 0 {
		thumbnail = it.Album.Images[0].URL
	}

	return track.Track{
		Title:           it.Name,
		Artist:          strings.Join(names, ", "),
		DurationSeconds: it.DurationMs / 1000,
		ThumbnailURL:    thumbnail,
		Source:          track.SourceSpotify,
	}
}
