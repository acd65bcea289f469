package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sonora/datastore"
)

const (
	userKeyPrefix    = "user:"
	premiumLedgerKey = "premium_keys"

	playHistoryLimit = 50
	favoritesLimit   = 100
)

// Storage is the typed access layer over the JSON datastore. Records are
// keyed per user; the premium-key ledger lives under its own key.
//
// mu serializes every load-mutate-save cycle. The datastore only guards
// individual operations, so without it two concurrent writers for the
// same user would overwrite each other's changes.
type Storage struct {
	ds  *datastore.DataStore
	log zerolog.Logger
	mu  sync.Mutex
}

type FavoriteTrack struct {
	Title        string    `json:"title"`
	Artist       string    `json:"artist,omitempty"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	ThumbnailURL string    `json:"thumbnail,omitempty"`
	AddedAt      time.Time `json:"added_at"`
}

type PlaylistTrack struct {
	Title           string    `json:"title"`
	Artist          string    `json:"artist,omitempty"`
	URL             string    `json:"url"`
	Source          string    `json:"source"`
	DurationSeconds int       `json:"duration,omitempty"`
	ThumbnailURL    string    `json:"thumbnail,omitempty"`
	AddedAt         time.Time `json:"added_at"`
}

type Playlist struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Tracks      []PlaylistTrack `json:"tracks,omitempty"`
}

type PlayRecord struct {
	Title           string    `json:"title"`
	Artist          string    `json:"artist,omitempty"`
	Source          string    `json:"source"`
	DurationSeconds int       `json:"duration,omitempty"`
	PlayedAt        time.Time `json:"played_at"`
}

type UserStats struct {
	TotalPlays         int `json:"total_plays"`
	TotalSecondsPlayed int `json:"total_time_played"`
}

type PremiumStatus struct {
	Key         string    `json:"key"`
	ActivatedAt time.Time `json:"activated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UserSettings struct {
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
	Autoplay      bool   `json:"autoplay"`
}

// UserRecord is everything the bot persists for one user.
type UserRecord struct {
	Favorites []FavoriteTrack     `json:"favorites,omitempty"`
	Playlists map[string]Playlist `json:"playlists,omitempty"`
	History   []PlayRecord        `json:"play_history,omitempty"`
	Stats     UserStats           `json:"stats"`
	Premium   *PremiumStatus      `json:"premium,omitempty"`
	Settings  *UserSettings       `json:"settings,omitempty"`
}

func New(filePath string, log zerolog.Logger) (*Storage, error) {
	ds, err := datastore.New(filePath, log)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds, log: log.With().Str("component", "storage").Logger()}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateUserRecord loads a user's record, creating an empty one on
// first access. Values loaded from disk arrive as generic maps, so they
// round-trip through JSON into the typed struct.
func (s *Storage) getOrCreateUserRecord(userID string) (*UserRecord, error) {
	data, exists := s.ds.Get(userKeyPrefix + userID)
	if !exists {
		return &UserRecord{}, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal user record: %w", err)
	}

	var record UserRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal user record: %w", err)
	}
	return &record, nil
}

func (s *Storage) saveUserRecord(userID string, record *UserRecord) {
	s.ds.Add(userKeyPrefix+userID, record)
}

// userIDs lists every user that has a stored record.
func (s *Storage) userIDs() []string {
	var ids []string
	for _, key := range s.ds.Keys() {
		if id, ok := strings.CutPrefix(key, userKeyPrefix); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
