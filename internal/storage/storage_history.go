package storage

import (
	"sort"
	"time"

	"sonora/internal/music/track"
)

// RecordPlay appends a play-history entry and bumps the user's counters.
// Satisfies the player's HistoryRecorder.
func (s *Storage) RecordPlay(userID string, t track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return err
	}

	record.History = append(record.History, PlayRecord{
		Title:           t.Title,
		Artist:          t.Artist,
		Source:          string(t.Source),
		DurationSeconds: t.DurationSeconds,
		PlayedAt:        time.Now(),
	})
	if len(record.History) > playHistoryLimit {
		record.History = record.History[len(record.History)-playHistoryLimit:]
	}

	record.Stats.TotalPlays++
	record.Stats.TotalSecondsPlayed += t.DurationSeconds

	s.saveUserRecord(userID, record)
	return nil
}

// History returns the user's most recent plays, newest first.
func (s *Storage) History(userID string, limit int) ([]PlayRecord, error) {
	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return nil, err
	}

	history := record.History
	out := make([]PlayRecord, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (s *Storage) Stats(userID string) (UserStats, error) {
	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return UserStats{}, err
	}
	return record.Stats, nil
}

// LeaderboardEntry pairs a user with their listening totals.
type LeaderboardEntry struct {
	UserID string
	Stats  UserStats
}

// Leaderboard ranks all known users by total plays.
func (s *Storage) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	for _, id := range s.userIDs() {
		record, err := s.getOrCreateUserRecord(id)
		if err != nil {
			s.log.Warn().Err(err).Str("user", id).Msg("skipping unreadable record")
			continue
		}
		if record.Stats.TotalPlays == 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{UserID: id, Stats: record.Stats})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Stats.TotalPlays > entries[j].Stats.TotalPlays
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
