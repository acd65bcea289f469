package queue

import (
	"math/rand"
	"slices"
	"sync"

	"sonora/internal/music/track"
)

// LoopMode is the per-guild repeat policy.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopOne
	LoopAll
)

func (m LoopMode) String() string {
	switch m {
	case LoopOne:
		return "one"
	case LoopAll:
		return "all"
	default:
		return "off"
	}
}

const DefaultVolume = 50

// guildState holds one guild's queue and playback flags. The original
// slice remembers every track enqueued since the last clear so LoopAll
// can reseed the queue after it drains.
type guildState struct {
	mu       sync.Mutex
	tracks   []track.Track
	original []track.Track
	loop     LoopMode
	shuffle  bool
	volume   int
}

// Store owns all per-guild queue state, keyed by guild ID. States are
// created lazily and never removed; Clear resets them in place.
type Store struct {
	mu     sync.RWMutex
	guilds map[string]*guildState
}

func NewStore() *Store {
	return &Store{guilds: make(map[string]*guildState)}
}

func (s *Store) state(guildID string) *guildState {
	s.mu.RLock()
	g, ok := s.guilds[guildID]
	s.mu.RUnlock()
	if ok {
		return g
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.guilds[guildID]; ok {
		return g
	}
	g = &guildState{volume: DefaultVolume}
	s.guilds[guildID] = g
	return g
}

// Enqueue appends a track and returns its 1-based queue position.
func (s *Store) Enqueue(guildID string, t track.Track) int {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tracks = append(g.tracks, t)
	g.original = append(g.original, t)
	return len(g.tracks)
}

// Snapshot returns a copy of the queue; callers never see the live slice.
func (s *Store) Snapshot(guildID string) []track.Track {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.tracks)
}

// PushFront returns a track to the head of the queue. Used when a
// stream could not start on a dying connection and the track should not
// be lost.
func (s *Store) PushFront(guildID string, t track.Track) {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tracks = append([]track.Track{t}, g.tracks...)
}

// DequeueFront pops and returns the head of the queue.
func (s *Store) DequeueFront(guildID string) (track.Track, bool) {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.tracks) == 0 {
		return track.Track{}, false
	}
	t := g.tracks[0]
	g.tracks = g.tracks[1:]
	return t, true
}

// Clear empties the queue and the LoopAll memory.
func (s *Store) Clear(guildID string) {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tracks = nil
	g.original = nil
}

// Len reports the number of queued tracks.
func (s *Store) Len(guildID string) int {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tracks)
}

// Shuffle randomly permutes the queued tracks in place.
func (s *Store) Shuffle(guildID string) {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	rand.Shuffle(len(g.tracks), func(i, j int) {
		g.tracks[i], g.tracks[j] = g.tracks[j], g.tracks[i]
	})
}

// ToggleShuffle flips the shuffle flag and returns the new value.
func (s *Store) ToggleShuffle(guildID string) bool {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shuffle = !g.shuffle
	return g.shuffle
}

func (s *Store) ShuffleEnabled(guildID string) bool {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shuffle
}

// ToggleLoop cycles off -> one -> all -> off and returns the new mode.
func (s *Store) ToggleLoop(guildID string) LoopMode {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.loop {
	case LoopOff:
		g.loop = LoopOne
	case LoopOne:
		g.loop = LoopAll
	default:
		g.loop = LoopOff
	}
	return g.loop
}

func (s *Store) Loop(guildID string) LoopMode {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loop
}

// SetVolume clamps v into [0,100], stores it and returns the stored value.
func (s *Store) SetVolume(guildID string, v int) int {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.volume = max(0, min(100, v))
	return g.volume
}

func (s *Store) Volume(guildID string) int {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.volume
}

// RestoreOriginal reseeds an empty queue from the LoopAll memory and
// returns how many tracks were restored. A no-op when the queue still
// has tracks or nothing was ever enqueued.
func (s *Store) RestoreOriginal(guildID string) int {
	g := s.state(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.tracks) > 0 || len(g.original) == 0 {
		return 0
	}
	g.tracks = slices.Clone(g.original)
	return len(g.tracks)
}
