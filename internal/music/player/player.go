package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sonora/internal/music/queue"
	"sonora/internal/music/track"
	"sonora/internal/music/voice"
)

// Status is a guild's playback state.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

const connectTimeout = 20 * time.Second

// TrackResolver turns a free-text query into a playable track.
// *resolver.Resolver satisfies this.
type TrackResolver interface {
	Resolve(ctx context.Context, query string, preferred track.Source) (track.Track, error)
}

// HistoryRecorder persists play-history entries. Recording runs
// fire-and-forget; failures are logged and never block playback.
type HistoryRecorder interface {
	RecordPlay(userID string, t track.Track) error
}

// session is one guild's playback state. Everything in it is guarded by
// its mutex; commands for a guild serialize through it.
type session struct {
	mu        sync.Mutex
	status    Status
	now       *track.Track
	conn      voice.Conn
	channelID string
	requester string

	// gen increments every time a new stream starts or the current one
	// is deliberately abandoned (skip, stop, forced disconnect), so
	// completion callbacks from dead streams are ignored.
	gen uint64
}

// Controller owns every guild's playback session and drives the
// idle / connecting / playing / paused state machine.
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*session

	queues    *queue.Store
	resolver  TrackResolver
	transport voice.Transport
	history   HistoryRecorder
	log       zerolog.Logger
}

func New(queues *queue.Store, res TrackResolver, transport voice.Transport, history HistoryRecorder, log zerolog.Logger) *Controller {
	c := &Controller{
		sessions:  make(map[string]*session),
		queues:    queues,
		resolver:  res,
		transport: transport,
		history:   history,
		log:       log.With().Str("component", "player").Logger(),
	}
	go c.consumeTransportEvents()
	return c
}

func (c *Controller) session(guildID string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[guildID]
	if !ok {
		s = &session{}
		c.sessions[guildID] = s
	}
	return s
}

// EnqueueResult reports what Enqueue did with the resolved track.
type EnqueueResult struct {
	Track    track.Track
	Position int
	Started  bool
}

// Enqueue resolves the query and appends the result to the guild's
// queue. If the guild is idle, playback starts; if a track is already
// active the call only appends.
func (c *Controller) Enqueue(ctx context.Context, guildID, channelID, userID, query string, preferred track.Source) (EnqueueResult, error) {
	t, err := c.resolver.Resolve(ctx, query, preferred)
	if err != nil {
		return EnqueueResult{}, err
	}

	pos := c.queues.Enqueue(guildID, t)
	c.log.Info().Str("guild", guildID).Str("track", t.String()).Int("position", pos).Msg("track enqueued")

	res := EnqueueResult{Track: t, Position: pos}

	s := c.session(guildID)
	s.mu.Lock()
	if s.status == StatusIdle {
		s.status = StatusConnecting
		s.channelID = channelID
		s.requester = userID
		res.Started = true
		go c.connectAndPlay(guildID)
	}
	s.mu.Unlock()

	return res, nil
}

// connectAndPlay joins the voice channel recorded on the session and
// starts the queue head. Runs off the command goroutine.
func (c *Controller) connectAndPlay(guildID string) {
	s := c.session(guildID)

	s.mu.Lock()
	channelID := s.channelID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn, err := c.transport.Join(ctx, guildID, channelID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusConnecting {
		// a stop or forced disconnect won the race
		if err == nil {
			go func() { _ = conn.Disconnect() }()
		}
		return
	}

	if err != nil {
		c.log.Error().Err(err).Str("guild", guildID).Msg("voice join failed")
		s.status = StatusIdle
		return
	}

	s.conn = conn
	c.advanceLocked(s, guildID, nil)
}

// advanceLocked moves the session to its next track, or to idle when
// nothing is left. Must be called with s.mu held. finished is the track
// whose stream just ended (nil when starting fresh or skipping past a
// failed start); RepeatOne replays it without a second history record.
func (c *Controller) advanceLocked(s *session, guildID string, finished *track.Track) {
	for {
		var next *track.Track
		recordHistory := true

		switch {
		case finished != nil && c.queues.Loop(guildID) == queue.LoopOne:
			next = finished
			recordHistory = false
		default:
			if t, ok := c.queues.DequeueFront(guildID); ok {
				next = &t
			} else if c.queues.Loop(guildID) == queue.LoopAll && c.queues.RestoreOriginal(guildID) > 0 {
				t, _ := c.queues.DequeueFront(guildID)
				next = &t
			}
		}

		if next == nil {
			c.idleLocked(s, guildID)
			return
		}

		if next.PlayableURL == "" {
			c.log.Warn().Str("guild", guildID).Str("track", next.String()).Msg("track has no playable url, skipping")
			finished = nil
			continue
		}

		s.gen++
		gen := s.gen
		err := s.conn.Play(next.PlayableURL, voice.PlayOptions{Volume: c.queues.Volume(guildID)}, func(err error) {
			c.onTrackComplete(guildID, gen, err)
		})
		if err != nil {
			if errors.Is(err, voice.ErrConnClosed) {
				// the connection died under us; keep the track for the
				// next play command and let the forced-disconnect event
				// finish resetting the session
				c.queues.PushFront(guildID, *next)
				c.idleLocked(s, guildID)
				return
			}
			c.log.Warn().Err(err).Str("guild", guildID).Str("track", next.String()).Msg("stream start failed, skipping track")
			finished = nil
			continue
		}

		s.now = next
		s.status = StatusPlaying
		c.log.Info().Str("guild", guildID).Str("track", next.String()).Msg("now playing")

		if recordHistory && c.history != nil {
			userID, t := s.requester, *next
			go func() {
				if err := c.history.RecordPlay(userID, t); err != nil {
					c.log.Warn().Err(err).Msg("failed to record play history")
				}
			}()
		}
		return
	}
}

// idleLocked resets the session to idle and releases the voice
// connection. The queue is left to the caller: stop clears it, a
// normally drained queue is already empty.
func (c *Controller) idleLocked(s *session, guildID string) {
	s.now = nil
	s.status = StatusIdle
	s.gen++
	if s.conn != nil {
		conn := s.conn
		s.conn = nil
		go func() { _ = conn.Disconnect() }()
	}
	c.log.Info().Str("guild", guildID).Msg("playback idle, disconnecting")
}

// onTrackComplete is invoked by the transport exactly once per stream.
// Stale generations mean the controller already moved on (skip, stop,
// forced disconnect) and the event is dropped.
func (c *Controller) onTrackComplete(guildID string, gen uint64, err error) {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	if err != nil {
		c.log.Warn().Err(err).Str("guild", guildID).Msg("track ended with error")
	}

	finished := s.now
	s.now = nil
	c.advanceLocked(s, guildID, finished)
}

// SkipResult reports the outcome of a skip command.
type SkipResult struct {
	Skipped bool
	Now     *track.Track
}

// Skip advances to the next queued track. A skip with nothing queued is
// a no-op, which also makes near-simultaneous skips advance only once:
// the loser of the race finds the queue already drained.
func (c *Controller) Skip(guildID string) SkipResult {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.queues.Len(guildID) == 0 {
		return SkipResult{}
	}

	if s.conn == nil {
		// not connected (idle or still joining): just drop the head
		_, ok := c.queues.DequeueFront(guildID)
		return SkipResult{Skipped: ok}
	}

	s.gen++
	s.conn.Stop()

	// An explicit skip always moves on, even under repeat-one; only a
	// natural completion replays the current track.
	s.now = nil
	c.advanceLocked(s, guildID, nil)
	return SkipResult{Skipped: true, Now: s.now}
}

// Stop clears the queue, halts playback and disconnects. Safe to call
// in any state.
func (c *Controller) Stop(guildID string) {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()

	c.queues.Clear(guildID)
	s.gen++
	if s.conn != nil {
		s.conn.Stop()
	}
	c.idleLocked(s, guildID)
	c.log.Info().Str("guild", guildID).Msg("playback stopped")
}

// Pause suspends the current stream. Reports false when nothing is playing.
func (c *Controller) Pause(guildID string) bool {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying || s.conn == nil {
		return false
	}
	s.conn.Pause()
	s.status = StatusPaused
	return true
}

// Resume continues a paused stream. Reports false when nothing is paused.
func (c *Controller) Resume(guildID string) bool {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPaused || s.conn == nil {
		return false
	}
	s.conn.Resume()
	s.status = StatusPlaying
	return true
}

// ToggleShuffle flips shuffle mode; enabling it permutes the queue once,
// matching how the queue behaves for listeners.
func (c *Controller) ToggleShuffle(guildID string) bool {
	on := c.queues.ToggleShuffle(guildID)
	if on {
		c.queues.Shuffle(guildID)
	}
	return on
}

func (c *Controller) ToggleLoop(guildID string) queue.LoopMode {
	return c.queues.ToggleLoop(guildID)
}

// SetVolume clamps and stores the guild volume. The new value applies
// from the next stream start.
func (c *Controller) SetVolume(guildID string, v int) int {
	return c.queues.SetVolume(guildID, v)
}

func (c *Controller) Volume(guildID string) int {
	return c.queues.Volume(guildID)
}

func (c *Controller) QueueSnapshot(guildID string) []track.Track {
	return c.queues.Snapshot(guildID)
}

// NowPlaying returns the active track, if any.
func (c *Controller) NowPlaying(guildID string) (track.Track, bool) {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now == nil {
		return track.Track{}, false
	}
	return *s.now, true
}

func (c *Controller) StatusOf(guildID string) Status {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// HandleForcedDisconnect resets a guild to idle after the bot was
// removed from its voice channel. The queue is retained; the next play
// command picks it back up.
func (c *Controller) HandleForcedDisconnect(guildID string) {
	s := c.session(guildID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.now = nil
	s.status = StatusIdle
	s.conn = nil
	c.log.Info().Str("guild", guildID).Msg("session reset after forced disconnect")
}

func (c *Controller) consumeTransportEvents() {
	for ev := range c.transport.Events() {
		if ev.Kind == voice.EventForcedDisconnect {
			c.HandleForcedDisconnect(ev.GuildID)
		}
	}
}
