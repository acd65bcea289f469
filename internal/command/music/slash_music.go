package music

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"sonora/internal/command"
	"sonora/internal/music/player"
	"sonora/internal/music/queue"
	"sonora/internal/music/track"
)

const previewLimit = 5

// VoiceStateFinder locates the voice channel a user currently occupies.
type VoiceStateFinder interface {
	FindUserVoiceState(guildID, userID string) (string, error)
}

// Previewer returns ranked candidates for the search subcommand.
type Previewer interface {
	Search(ctx context.Context, query string, preferred track.Source, limit int) ([]track.Track, error)
}

type MusicCommand struct {
	Players  *player.Controller
	Searcher Previewer
	Finder   VoiceStateFinder
}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Play and control music" }
func (c *MusicCommand) Category() string    { return "🎵 Music" }

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	sourceChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Any", Value: string(track.SourceAny)},
		{Name: "YouTube", Value: string(track.SourceYouTube)},
		{Name: "Spotify", Value: string(track.SourceSpotify)},
	}

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Search for a track and add it to the queue",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "query",
						Description: "Song name or link",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "source",
						Description: "Preferred search backend",
						Choices:     sourceChoices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "search",
				Description: "Preview search results and pick one",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "query",
						Description: "Song name to look up",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "source",
						Description: "Preferred search backend",
						Choices:     sourceChoices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "queue",
				Description: "Show the playback queue",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "nowplaying",
				Description: "Show the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "skip",
				Description: "Skip to the next track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop playback, clear the queue and disconnect",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pause",
				Description: "Pause the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "resume",
				Description: "Resume a paused track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "shuffle",
				Description: "Toggle shuffle mode",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "loop",
				Description: "Cycle the repeat mode (off / one / all)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "volume",
				Description: "Set the playback volume (0-100)",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "level",
						Description: "Volume percentage",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *MusicCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s, e := sctx.Session, sctx.Event
	opts := e.ApplicationCommandData().Options
	if len(opts) == 0 {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Error", "Missing subcommand."))
	}

	sub := opts[0]
	switch sub.Name {
	case "play":
		return c.runPlay(sctx, sub)
	case "search":
		return c.runSearch(sctx, sub)
	case "queue":
		return c.runQueue(sctx)
	case "nowplaying":
		return c.runNowPlaying(sctx)
	case "skip":
		return c.runSkip(sctx)
	case "stop":
		return c.runStop(sctx)
	case "pause":
		return c.runPause(sctx)
	case "resume":
		return c.runResume(sctx)
	case "shuffle":
		return c.runShuffle(sctx)
	case "loop":
		return c.runLoop(sctx)
	case "volume":
		return c.runVolume(sctx, sub)
	default:
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Error", fmt.Sprintf("Unknown subcommand: %s", sub.Name)))
	}
}

func subOptions(sub *discordgo.ApplicationCommandInteractionDataOption) (query string, source track.Source) {
	source = track.SourceAny
	for _, opt := range sub.Options {
		switch opt.Name {
		case "query":
			query = opt.StringValue()
		case "source":
			source = track.Source(opt.StringValue())
		}
	}
	return query, source
}

func (c *MusicCommand) runPlay(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event
	query, source := subOptions(sub)

	channelID, err := c.Finder.FindUserVoiceState(e.GuildID, sctx.UserID())
	if err != nil {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Not connected", "Join a voice channel first."))
	}

	if err := command.Defer(s, e); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	res, err := c.Players.Enqueue(context.Background(), e.GuildID, channelID, sctx.UserID(), query, source)
	if err != nil {
		return command.FollowupEmbedEphemeral(s, e, command.ErrorEmbed("Search failed", fmt.Sprintf("Nothing found for **%s**.", query)))
	}

	embed := command.SuccessEmbed("🎶 Added to queue", fmt.Sprintf(
		"**%s**\n\n🎤 %s\n⏱ %s\n📍 Position: #%d",
		truncate(res.Track.Title, 60),
		artistOrUnknown(res.Track),
		track.FormatDuration(res.Track.DurationSeconds),
		res.Position,
	))
	if res.Track.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: res.Track.ThumbnailURL}
	}
	return command.FollowupEmbed(s, e, embed)
}

func (c *MusicCommand) runSearch(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event
	query, source := subOptions(sub)

	if err := command.Defer(s, e); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()

	results, err := c.Searcher.Search(ctx, query, source, previewLimit)
	if err != nil {
		return command.FollowupEmbedEphemeral(s, e, command.ErrorEmbed("Search failed", fmt.Sprintf("Nothing found for **%s**.", query)))
	}

	var b strings.Builder
	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    "music:pick",
		Placeholder: "Pick a track to queue",
	}
	for i, t := range results {
		fmt.Fprintf(&b, "**%d.** %s `%s`\n", i+1, truncate(t.String(), 80), track.FormatDuration(t.DurationSeconds))
		menu.Options = append(menu.Options, discordgo.SelectMenuOption{
			Label: truncate(t.Title, 90),
			// the pick is re-resolved as a query, so the value only
			// needs to identify the track well enough to find it again
			Value:       truncate(t.String(), 95),
			Description: truncate(artistOrUnknown(t), 90),
		})
	}

	embed := command.InfoEmbed("🔎 Search results", b.String())
	_, err = s.FollowupMessageCreate(e.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}},
		},
	})
	return err
}

// HandleComponent queues the track picked from a search preview.
func (c *MusicCommand) HandleComponent(cctx *command.ComponentContext) error {
	s, e := cctx.Session, cctx.Event
	data := e.MessageComponentData()
	if data.CustomID != "music:pick" || len(data.Values) == 0 {
		return nil
	}

	userID := ""
	if e.Member != nil && e.Member.User != nil {
		userID = e.Member.User.ID
	}

	channelID, err := c.Finder.FindUserVoiceState(e.GuildID, userID)
	if err != nil {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Not connected", "Join a voice channel first."))
	}

	if err := command.Defer(s, e); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	res, err := c.Players.Enqueue(context.Background(), e.GuildID, channelID, userID, data.Values[0], track.SourceAny)
	if err != nil {
		return command.FollowupEmbedEphemeral(s, e, command.ErrorEmbed("Search failed", "That track could not be resolved."))
	}

	return command.FollowupEmbed(s, e, command.SuccessEmbed("🎶 Added to queue",
		fmt.Sprintf("**%s** at position #%d", truncate(res.Track.Title, 60), res.Position)))
}

func (c *MusicCommand) runQueue(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	tracks := c.Players.QueueSnapshot(e.GuildID)
	if len(tracks) == 0 {
		return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("Queue", "The queue is empty."))
	}

	var b strings.Builder
	for i, t := range tracks {
		if i == 15 {
			fmt.Fprintf(&b, "...and %d more", len(tracks)-i)
			break
		}
		fmt.Fprintf(&b, "**%d.** %s `%s`\n", i+1, truncate(t.String(), 70), track.FormatDuration(t.DurationSeconds))
	}

	return command.RespondEmbed(s, e, command.InfoEmbed(fmt.Sprintf("📜 Queue (%d tracks)", len(tracks)), b.String()))
}

func (c *MusicCommand) runNowPlaying(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	t, ok := c.Players.NowPlaying(e.GuildID)
	if !ok {
		return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("Now playing", "Nothing is playing."))
	}

	embed := command.InfoEmbed("▶️ Now playing", fmt.Sprintf(
		"**%s**\n\n🎤 %s\n⏱ %s",
		truncate(t.Title, 60), artistOrUnknown(t), track.FormatDuration(t.DurationSeconds),
	))
	if t.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ThumbnailURL}
	}
	return command.RespondEmbed(s, e, embed)
}

func (c *MusicCommand) runSkip(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	res := c.Players.Skip(e.GuildID)
	if !res.Skipped {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Queue empty", "No tracks left to skip to."))
	}
	if res.Now != nil {
		return command.RespondEmbed(s, e, command.SuccessEmbed("⏭ Skipped", fmt.Sprintf("Now playing **%s**.", truncate(res.Now.Title, 60))))
	}
	return command.RespondEmbed(s, e, command.SuccessEmbed("⏭ Skipped", ""))
}

func (c *MusicCommand) runStop(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event
	c.Players.Stop(e.GuildID)
	return command.RespondEmbed(s, e, command.SuccessEmbed("⏹ Stopped", "Playback stopped and queue cleared."))
}

func (c *MusicCommand) runPause(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event
	if !c.Players.Pause(e.GuildID) {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Pause", "Nothing is playing."))
	}
	return command.RespondEmbed(s, e, command.SuccessEmbed("⏸ Paused", ""))
}

func (c *MusicCommand) runResume(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event
	if !c.Players.Resume(e.GuildID) {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Resume", "Nothing is paused."))
	}
	return command.RespondEmbed(s, e, command.SuccessEmbed("▶ Resumed", ""))
}

func (c *MusicCommand) runShuffle(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event
	if c.Players.ToggleShuffle(e.GuildID) {
		return command.RespondEmbed(s, e, command.SuccessEmbed("🔀 Shuffle", "Shuffle enabled."))
	}
	return command.RespondEmbed(s, e, command.SuccessEmbed("🔀 Shuffle", "Shuffle disabled."))
}

func (c *MusicCommand) runLoop(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	labels := map[queue.LoopMode]string{
		queue.LoopOff: "❌ Off",
		queue.LoopOne: "🔂 Repeat one",
		queue.LoopAll: "🔁 Repeat all",
	}
	mode := c.Players.ToggleLoop(e.GuildID)
	return command.RespondEmbed(s, e, command.SuccessEmbed("🔁 Loop", "Repeat mode: "+labels[mode]))
}

func (c *MusicCommand) runVolume(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event

	level := 0
	for _, opt := range sub.Options {
		if opt.Name == "level" {
			level = int(opt.IntValue())
		}
	}

	stored := c.Players.SetVolume(e.GuildID, level)
	return command.RespondEmbed(s, e, command.SuccessEmbed("🔊 Volume", fmt.Sprintf("Volume set to **%d%%**.", stored)))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func artistOrUnknown(t track.Track) string {
	if t.Artist == "" {
		return "Unknown"
	}
	return t.Artist
}
