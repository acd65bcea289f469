package storage

import (
	"errors"
	"strings"
	"time"

	"sonora/internal/music/track"
)

var (
	ErrFavoriteExists   = errors.New("track is already in favorites")
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrFavoritesFull    = errors.New("favorites list is full")
)

// AddFavorite saves a track to the user's favorites, keyed by URL.
func (s *Storage) AddFavorite(userID string, t track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return err
	}

	for _, f := range record.Favorites {
		if f.URL == t.PlayableURL {
			return ErrFavoriteExists
		}
	}
	if len(record.Favorites) >= favoritesLimit {
		return ErrFavoritesFull
	}

	record.Favorites = append(record.Favorites, FavoriteTrack{
		Title:        t.Title,
		Artist:       t.Artist,
		URL:          t.PlayableURL,
		Source:       string(t.Source),
		ThumbnailURL: t.ThumbnailURL,
		AddedAt:      time.Now(),
	})
	s.saveUserRecord(userID, record)
	return nil
}

func (s *Storage) Favorites(userID string) ([]FavoriteTrack, error) {
	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return nil, err
	}
	return record.Favorites, nil
}

// RemoveFavorite deletes the first favorite whose title matches,
// case-insensitively.
func (s *Storage) RemoveFavorite(userID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return err
	}

	for i, f := range record.Favorites {
		if strings.EqualFold(f.Title, title) {
			record.Favorites = append(record.Favorites[:i], record.Favorites[i+1:]...)
			s.saveUserRecord(userID, record)
			return nil
		}
	}
	return ErrFavoriteNotFound
}
