package voice

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"layeh.com/gopus"
)

var ErrConnClosed = errors.New("voice connection closed")

// DiscordTransport implements Transport over a discordgo session. It is
// the sole owner of voice connect/disconnect calls and translates bot
// voice-state updates into forced-disconnect events.
type DiscordTransport struct {
	session *discordgo.Session
	log     zerolog.Logger
	events  chan Event

	mu    sync.Mutex
	conns map[string]*discordConn
}

func NewDiscordTransport(session *discordgo.Session, log zerolog.Logger) *DiscordTransport {
	t := &DiscordTransport{
		session: session,
		log:     log.With().Str("component", "voice").Logger(),
		events:  make(chan Event, 16),
		conns:   make(map[string]*discordConn),
	}
	session.AddHandler(t.onVoiceStateUpdate)
	return t
}

func (t *DiscordTransport) Join(ctx context.Context, guildID, channelID string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if c, ok := t.conns[guildID]; ok && !c.isClosing() && c.ChannelID() == channelID {
		t.mu.Unlock()
		return c, nil
	}
	t.mu.Unlock()

	vc, err := t.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	c := &discordConn{
		guildID:   guildID,
		transport: t,
		vc:        vc,
		log:       t.log.With().Str("guild", guildID).Logger(),
	}

	t.mu.Lock()
	t.conns[guildID] = c
	t.mu.Unlock()

	t.log.Info().Str("guild", guildID).Str("channel", channelID).Msg("joined voice channel")
	return c, nil
}

func (t *DiscordTransport) Events() <-chan Event { return t.events }

func (t *DiscordTransport) drop(guildID string) {
	t.mu.Lock()
	delete(t.conns, guildID)
	t.mu.Unlock()
}

// onVoiceStateUpdate watches for the bot itself losing its channel. A
// cleared channel on a live connection means someone kicked the bot.
func (t *DiscordTransport) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || vs.UserID != s.State.User.ID || vs.ChannelID != "" {
		return
	}

	t.mu.Lock()
	c, ok := t.conns[vs.GuildID]
	t.mu.Unlock()
	if !ok || c.isClosing() {
		return
	}

	t.log.Warn().Str("guild", vs.GuildID).Msg("bot removed from voice channel")
	c.markClosing()
	c.Stop()
	t.drop(vs.GuildID)

	select {
	case t.events <- Event{GuildID: vs.GuildID, Kind: EventForcedDisconnect}:
	default:
		t.log.Warn().Str("guild", vs.GuildID).Msg("transport event dropped (channel full)")
	}
}

// discordConn streams PCM through an Opus encoder into a single guild's
// voice connection.
type discordConn struct {
	guildID   string
	transport *DiscordTransport
	log       zerolog.Logger

	mu      sync.Mutex
	vc      *discordgo.VoiceConnection
	paused  bool
	stop    chan struct{}
	closing bool
}

func (c *discordConn) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return ""
	}
	return c.vc.ChannelID
}

func (c *discordConn) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func (c *discordConn) markClosing() {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()
}

func (c *discordConn) Play(url string, opts PlayOptions, onComplete func(err error)) error {
	pcm, cleanup, err := openPCM(url, opts.Volume)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		cleanup()
		pcm.Close()
		return ErrConnClosed
	}
	stop := make(chan struct{})
	c.stop = stop
	c.paused = false
	vc := c.vc
	c.mu.Unlock()

	var once sync.Once
	done := func(err error) { once.Do(func() { onComplete(err) }) }

	go c.stream(vc, pcm, cleanup, stop, done)
	return nil
}

func (c *discordConn) stream(vc *discordgo.VoiceConnection, pcm io.ReadCloser, cleanup func(), stop chan struct{}, done func(error)) {
	defer cleanup()
	defer pcm.Close()

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		done(fmt.Errorf("opus encoder: %w", err))
		return
	}

	_ = vc.Speaking(true)
	defer func() { _ = vc.Speaking(false) }()

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-stop:
			done(nil)
			return
		default:
		}

		if c.isPaused() {
			select {
			case <-stop:
				done(nil)
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		if _, err := io.ReadFull(pcm, pcmBuf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				done(nil)
			} else {
				done(fmt.Errorf("pcm read: %w", err))
			}
			return
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		frame, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			done(fmt.Errorf("opus encode: %w", err))
			return
		}

		select {
		case vc.OpusSend <- frame:
		case <-stop:
			done(nil)
			return
		}
	}
}

func (c *discordConn) isPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *discordConn) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *discordConn) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

func (c *discordConn) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *discordConn) Disconnect() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	vc := c.vc
	c.vc = nil
	c.mu.Unlock()

	c.transport.drop(c.guildID)

	if vc == nil {
		return nil
	}
	if err := vc.Disconnect(); err != nil {
		return fmt.Errorf("voice disconnect: %w", err)
	}
	c.log.Info().Msg("left voice channel")
	return nil
}
