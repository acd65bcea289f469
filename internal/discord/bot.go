package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"sonora/internal/command"
	"sonora/internal/command/favorites"
	"sonora/internal/command/music"
	"sonora/internal/command/playlist"
	"sonora/internal/command/premium"
	"sonora/internal/command/recommend"
	"sonora/internal/command/settings"
	"sonora/internal/command/stats"
	"sonora/internal/config"
	"sonora/internal/music/player"
	"sonora/internal/music/queue"
	"sonora/internal/music/resolver"
	"sonora/internal/music/sources"
	"sonora/internal/music/sources/spotify"
	"sonora/internal/music/sources/youtube"
	"sonora/internal/music/voice"
	"sonora/internal/storage"
	"sonora/internal/version"
)

// Bot owns the Discord session and the per-guild playback machinery.
type Bot struct {
	dg      *discordgo.Session
	cfg     *config.Config
	storage *storage.Storage
	players *player.Controller
	log     zerolog.Logger

	mu         sync.Mutex
	registered map[string]bool
}

// StartBot connects to Discord and blocks until ctx is cancelled.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage, log zerolog.Logger) error {
	b := &Bot{
		cfg:        cfg,
		storage:    store,
		log:        log.With().Str("component", "discord").Logger(),
		registered: make(map[string]bool),
	}
	return b.run(ctx)
}

func (b *Bot) run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages

	spotifySource := spotify.New(b.cfg.SpotifyClientID, b.cfg.SpotifyClientSecret)
	backends := []sources.Searcher{youtube.New()}
	if b.cfg.SpotifyConfigured() {
		backends = append(backends, spotifySource)
	} else {
		b.log.Info().Msg("spotify credentials missing, spotify backend disabled")
	}
	res := resolver.New(b.log, backends...)

	transport := voice.NewDiscordTransport(dg, b.log)
	b.players = player.New(queue.NewStore(), res, transport, b.storage, b.log)

	b.registerCommandHandlers(res, spotifySource)

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, disconnecting")
	b.stopAllPlayers()
	return nil
}

// registerCommandHandlers builds each command and places it in the
// global registry behind the shared middleware chain.
func (b *Bot) registerCommandHandlers(res *resolver.Resolver, sp *spotify.SpotifySource) {
	cmds := []command.Command{
		&music.MusicCommand{Players: b.players, Searcher: res, Finder: b},
		&recommend.RecommendCommand{Spotify: sp},
		&favorites.FavoritesCommand{Players: b.players, Storage: b.storage},
		&playlist.PlaylistCommand{Players: b.players, Storage: b.storage},
		&premium.PremiumCommand{Storage: b.storage},
		&stats.StatsCommand{Storage: b.storage},
		&settings.SettingsCommand{Storage: b.storage},
	}

	for _, cmd := range cmds {
		command.Register(command.Apply(cmd,
			command.WithGuildOnly(),
			command.WithCommandLogger(b.log),
		))
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().
		Str("username", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msgf("%s %s is running", version.AppName, version.Version)

	for _, g := range r.Guilds {
		if err := b.registerSlashCommands(g.ID); err != nil {
			b.log.Error().Err(err).Str("guild", g.ID).Msg("failed to register slash commands")
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild", g.ID).Str("name", g.Name).Msg("joined guild")
	if err := b.registerSlashCommands(g.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.ID).Msg("failed to register slash commands")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		cmd, ok := command.Get(name)
		if !ok {
			b.log.Warn().Str("command", name).Msg("unknown command")
			return
		}

		ctx := &command.SlashContext{Session: s, Event: i, Storage: b.storage, Config: b.cfg}
		if err := cmd.Run(ctx); err != nil {
			b.log.Error().Err(err).Str("command", name).Msg("command failed")
			_ = command.RespondEmbedEphemeral(s, i, command.ErrorEmbed("Error", "Something went wrong running that command."))
		}

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		name, _, found := strings.Cut(customID, ":")
		if !found {
			return
		}

		cmd, ok := command.Get(name)
		if !ok {
			b.log.Warn().Str("custom_id", customID).Msg("component for unknown command")
			return
		}
		handler, ok := cmd.(command.ComponentHandler)
		if !ok {
			return
		}

		ctx := &command.ComponentContext{Session: s, Event: i, Storage: b.storage, Config: b.cfg}
		if err := handler.HandleComponent(ctx); err != nil {
			b.log.Error().Err(err).Str("custom_id", customID).Msg("component handler failed")
			_ = command.RespondEmbedEphemeral(s, i, command.ErrorEmbed("Error", "Something went wrong handling that interaction."))
		}
	}
}

// registerSlashCommands overwrites the guild's command set with the
// current registry. Bulk overwrite is a single call and Discord
// reconciles creations and deletions itself.
func (b *Bot) registerSlashCommands(guildID string) error {
	b.mu.Lock()
	if b.registered[guildID] {
		b.mu.Unlock()
		return nil
	}
	b.registered[guildID] = true
	b.mu.Unlock()

	var defs []*discordgo.ApplicationCommand
	for _, cmd := range command.All() {
		if slash, ok := cmd.(command.SlashProvider); ok {
			if def := slash.SlashDefinition(); def != nil {
				defs = append(defs, def)
			}
		}
	}

	_, err := b.dg.ApplicationCommandBulkOverwrite(b.dg.State.User.ID, guildID, defs)
	return err
}

// FindUserVoiceState reports the voice channel the user currently sits
// in, looked up from the session state cache.
func (b *Bot) FindUserVoiceState(guildID, userID string) (string, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("guild not in state cache: %w", err)
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}
	return "", errors.New("user is not in a voice channel")
}

func (b *Bot) stopAllPlayers() {
	if b.dg == nil {
		return
	}
	for _, g := range b.dg.State.Guilds {
		b.players.Stop(g.ID)
	}
}
