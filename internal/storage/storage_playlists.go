package storage

import (
	"errors"
	"time"

	"sonora/internal/music/track"
)

const freePlaylistLimit = 5

var (
	ErrPlaylistExists   = errors.New("a playlist with that name already exists")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrPlaylistLimit    = errors.New("playlist limit reached")
)

// CreatePlaylist makes an empty named playlist. Non-premium users are
// capped at freePlaylistLimit.
func (s *Storage) CreatePlaylist(userID, name, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return err
	}

	if record.Playlists == nil {
		record.Playlists = make(map[string]Playlist)
	}
	if _, ok := record.Playlists[name]; ok {
		return ErrPlaylistExists
	}
	if len(record.Playlists) >= freePlaylistLimit && !s.premiumActive(record) {
		return ErrPlaylistLimit
	}

	record.Playlists[name] = Playlist{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
	s.saveUserRecord(userID, record)
	return nil
}

func (s *Storage) Playlists(userID string) ([]Playlist, error) {
	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return nil, err
	}

	lists := make([]Playlist, 0, len(record.Playlists))
	for _, p := range record.Playlists {
		lists = append(lists, p)
	}
	return lists, nil
}

func (s *Storage) DeletePlaylist(userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return err
	}

	if _, ok := record.Playlists[name]; !ok {
		return ErrPlaylistNotFound
	}
	delete(record.Playlists, name)
	s.saveUserRecord(userID, record)
	return nil
}

// AddToPlaylist appends a resolved track to an existing playlist.
func (s *Storage) AddToPlaylist(userID, name string, t track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return err
	}

	playlist, ok := record.Playlists[name]
	if !ok {
		return ErrPlaylistNotFound
	}

	playlist.Tracks = append(playlist.Tracks, PlaylistTrack{
		Title:           t.Title,
		Artist:          t.Artist,
		URL:             t.PlayableURL,
		Source:          string(t.Source),
		DurationSeconds: t.DurationSeconds,
		ThumbnailURL:    t.ThumbnailURL,
		AddedAt:         time.Now(),
	})
	record.Playlists[name] = playlist
	s.saveUserRecord(userID, record)
	return nil
}
