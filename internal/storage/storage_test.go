package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonora/internal/music/track"
)

const user = "user-1"

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample(title string) track.Track {
	return track.Track{
		Title:           title,
		Artist:          "ABBA",
		DurationSeconds: 200,
		PlayableURL:     "https://example.com/" + title,
		Source:          track.SourceYouTube,
	}
}

func TestFavoritesRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.AddFavorite(user, sample("Waterloo")))
	require.NoError(t, s.AddFavorite(user, sample("SOS")))

	favs, err := s.Favorites(user)
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "Waterloo", favs[0].Title)
	assert.Equal(t, "https://example.com/Waterloo", favs[0].URL)
}

func TestAddFavoriteRejectsDuplicateURL(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.AddFavorite(user, sample("Waterloo")))
	err := s.AddFavorite(user, sample("Waterloo"))
	assert.ErrorIs(t, err, ErrFavoriteExists)
}

func TestRemoveFavoriteCaseInsensitive(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.AddFavorite(user, sample("Waterloo")))
	require.NoError(t, s.RemoveFavorite(user, "wAtErLoO"))

	favs, err := s.Favorites(user)
	require.NoError(t, err)
	assert.Empty(t, favs)

	assert.ErrorIs(t, s.RemoveFavorite(user, "Waterloo"), ErrFavoriteNotFound)
}

func TestFavoritesCap(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < favoritesLimit; i++ {
		require.NoError(t, s.AddFavorite(user, sample(fmt.Sprintf("track-%d", i))))
	}
	assert.ErrorIs(t, s.AddFavorite(user, sample("one-too-many")), ErrFavoritesFull)
}

func TestPlaylistLifecycle(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.CreatePlaylist(user, "Road trip", "windows down"))
	assert.ErrorIs(t, s.CreatePlaylist(user, "Road trip", ""), ErrPlaylistExists)

	require.NoError(t, s.AddToPlaylist(user, "Road trip", sample("Waterloo")))
	assert.ErrorIs(t, s.AddToPlaylist(user, "missing", sample("SOS")), ErrPlaylistNotFound)

	lists, err := s.Playlists(user)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Road trip", lists[0].Name)
	assert.Equal(t, "windows down", lists[0].Description)
	require.Len(t, lists[0].Tracks, 1)
	assert.Equal(t, "Waterloo", lists[0].Tracks[0].Title)

	require.NoError(t, s.DeletePlaylist(user, "Road trip"))
	assert.ErrorIs(t, s.DeletePlaylist(user, "Road trip"), ErrPlaylistNotFound)
}

func TestFreePlaylistLimitLiftedByPremium(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < freePlaylistLimit; i++ {
		require.NoError(t, s.CreatePlaylist(user, fmt.Sprintf("list-%d", i), ""))
	}
	assert.ErrorIs(t, s.CreatePlaylist(user, "over the cap", ""), ErrPlaylistLimit)

	code, err := s.GeneratePremiumKey(30)
	require.NoError(t, err)
	_, err = s.RedeemPremiumKey(user, code)
	require.NoError(t, err)

	assert.NoError(t, s.CreatePlaylist(user, "over the cap", ""))
}

func TestPremiumKeyRedemption(t *testing.T) {
	s := newTestStorage(t)

	code, err := s.GeneratePremiumKey(30)
	require.NoError(t, err)

	premium, err := s.IsPremium(user)
	require.NoError(t, err)
	assert.False(t, premium)

	expiry, err := s.RedeemPremiumKey(user, code)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), expiry, time.Minute)

	premium, err = s.IsPremium(user)
	require.NoError(t, err)
	assert.True(t, premium)

	info, err := s.PremiumInfo(user)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, code, info.Key)
}

func TestRedeemKeyTwiceFails(t *testing.T) {
	s := newTestStorage(t)

	code, err := s.GeneratePremiumKey(30)
	require.NoError(t, err)

	_, err = s.RedeemPremiumKey(user, code)
	require.NoError(t, err)

	_, err = s.RedeemPremiumKey("user-2", code)
	assert.ErrorIs(t, err, ErrKeyUsed)
}

func TestRedeemUnknownKey(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.RedeemPremiumKey(user, "not-a-key")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedeemExtendsActivePremium(t *testing.T) {
	s := newTestStorage(t)

	first, err := s.GeneratePremiumKey(30)
	require.NoError(t, err)
	second, err := s.GeneratePremiumKey(30)
	require.NoError(t, err)

	_, err = s.RedeemPremiumKey(user, first)
	require.NoError(t, err)
	expiry, err := s.RedeemPremiumKey(user, second)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().AddDate(0, 0, 60), expiry, time.Minute)
}

func TestRecordPlayUpdatesHistoryAndStats(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.RecordPlay(user, sample("Waterloo")))
	require.NoError(t, s.RecordPlay(user, sample("SOS")))

	history, err := s.History(user, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// newest first
	assert.Equal(t, "SOS", history[0].Title)
	assert.Equal(t, "Waterloo", history[1].Title)

	stats, err := s.Stats(user)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPlays)
	assert.Equal(t, 400, stats.TotalSecondsPlayed)
}

func TestHistoryCapped(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < playHistoryLimit+10; i++ {
		require.NoError(t, s.RecordPlay(user, sample(fmt.Sprintf("track-%d", i))))
	}

	history, err := s.History(user, playHistoryLimit*2)
	require.NoError(t, err)
	assert.Len(t, history, playHistoryLimit)

	stats, err := s.Stats(user)
	require.NoError(t, err)
	assert.Equal(t, playHistoryLimit+10, stats.TotalPlays)
}

func TestConcurrentRecordPlaysAllCounted(t *testing.T) {
	s := newTestStorage(t)

	const plays = 50
	var wg sync.WaitGroup
	for i := 0; i < plays; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.RecordPlay(user, sample(fmt.Sprintf("track-%d", i))))
		}(i)
	}
	wg.Wait()

	stats, err := s.Stats(user)
	require.NoError(t, err)
	assert.Equal(t, plays, stats.TotalPlays)
	assert.Equal(t, plays*200, stats.TotalSecondsPlayed)
}

func TestLeaderboardRanksByPlays(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.RecordPlay("heavy", sample("a")))
	require.NoError(t, s.RecordPlay("heavy", sample("b")))
	require.NoError(t, s.RecordPlay("light", sample("c")))

	entries, err := s.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "heavy", entries[0].UserID)
	assert.Equal(t, 2, entries[0].Stats.TotalPlays)
	assert.Equal(t, "light", entries[1].UserID)
}

func TestSettingsDefaultsAndSave(t *testing.T) {
	s := newTestStorage(t)

	settings, err := s.Settings(user)
	require.NoError(t, err)
	assert.Equal(t, "en", settings.Language)
	assert.True(t, settings.Notifications)
	assert.True(t, settings.Autoplay)

	settings.Language = "de"
	settings.Autoplay = false
	require.NoError(t, s.SaveSettings(user, settings))

	got, err := s.Settings(user)
	require.NoError(t, err)
	assert.Equal(t, "de", got.Language)
	assert.False(t, got.Autoplay)
	assert.True(t, got.Notifications)
}

func TestRecordsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datastore.json")

	s, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AddFavorite(user, sample("Waterloo")))
	require.NoError(t, s.Close())

	reopened, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	favs, err := reopened.Favorites(user)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "Waterloo", favs[0].Title)
}
