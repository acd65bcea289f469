package voice

import "context"

// PlayOptions carries per-stream parameters applied when the audio
// pipeline opens.
type PlayOptions struct {
	Volume int // 0-100
}

// Conn is an established voice connection for a single guild.
type Conn interface {
	// Play begins streaming url and invokes onComplete exactly once when
	// the stream finishes, fails, or is stopped. A non-nil error return
	// means the stream never started and onComplete will not fire.
	Play(url string, opts PlayOptions, onComplete func(err error)) error

	Pause()
	Resume()

	// Stop halts the current stream, if any. Safe to call when idle.
	Stop()

	// Disconnect tears the connection down. Idempotent.
	Disconnect() error

	ChannelID() string
}

// Transport owns the voice connection lifecycle for all guilds. At most
// one connection exists per guild.
type Transport interface {
	Join(ctx context.Context, guildID, channelID string) (Conn, error)

	// Events emits transport-level notifications, such as the bot being
	// forcibly removed from a voice channel.
	Events() <-chan Event
}

type EventKind int

const (
	EventForcedDisconnect EventKind = iota
)

type Event struct {
	GuildID string
	Kind    EventKind
}
