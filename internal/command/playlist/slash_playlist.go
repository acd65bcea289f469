package playlist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"sonora/internal/command"
	"sonora/internal/music/player"
	"sonora/internal/music/track"
	"sonora/internal/storage"
)

type PlaylistCommand struct {
	Players *player.Controller
	Storage *storage.Storage
}

func (c *PlaylistCommand) Name() string        { return "playlist" }
func (c *PlaylistCommand) Description() string { return "Create and manage personal playlists" }
func (c *PlaylistCommand) Category() string    { return "📼 Playlists" }

func (c *PlaylistCommand) SlashDefinition() *discordgo.ApplicationCommand {
	nameOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: "Playlist name",
		Required:    true,
	}

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Create a new playlist",
				Options: []*discordgo.ApplicationCommandOption{
					nameOption,
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "description",
						Description: "What this playlist is about",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Show your playlists",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Delete a playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add the currently playing track to a playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOption},
			},
		},
	}
}

func (c *PlaylistCommand) Run(ctx interface{}) error {
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
	case "create":
		return c.runCreate(sctx, sub)
	case "list":
		return c.runList(sctx)
	case "delete":
		return c.runDelete(sctx, sub)
	case "add":
		return c.runAdd(sctx, sub)
	}
	return nil
}

func subStrings(sub *discordgo.ApplicationCommandInteractionDataOption) (name, description string) {
	for _, opt := range sub.Options {
		switch opt.Name {
		case "name":
			name = opt.StringValue()
		case "description":
			description = opt.StringValue()
		}
	}
	return name, description
}

func (c *PlaylistCommand) runCreate(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event
	name, description := subStrings(sub)

	err := c.Storage.CreatePlaylist(sctx.UserID(), name, description)
	switch {
	case errors.Is(err, storage.ErrPlaylistExists):
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Playlists", fmt.Sprintf("You already have a playlist named **%s**.", name)))
	case errors.Is(err, storage.ErrPlaylistLimit):
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Playlists",
			"You have reached the free playlist limit. Redeem a premium key with `/premium redeem` to create more."))
	case err != nil:
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	return command.RespondEmbed(s, e, command.SuccessEmbed("📼 Playlist created", fmt.Sprintf("**%s** is ready for tracks.", name)))
}

func (c *PlaylistCommand) runList(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	playlists, err := c.Storage.Playlists(sctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}
	if len(playlists) == 0 {
		return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("Playlists", "You have no playlists yet. Create one with `/playlist create`."))
	}

	var b strings.Builder
	for _, p := range playlists {
		fmt.Fprintf(&b, "**%s** (%d tracks)", p.Name, len(p.Tracks))
		if p.Description != "" {
			fmt.Fprintf(&b, " - %s", p.Description)
		}
		b.WriteString("\n")
	}

	return command.RespondEmbedEphemeral(s, e, command.InfoEmbed(fmt.Sprintf("📼 Playlists (%d)", len(playlists)), b.String()))
}

func (c *PlaylistCommand) runDelete(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event
	name, _ := subStrings(sub)

	err := c.Storage.DeletePlaylist(sctx.UserID(), name)
	if errors.Is(err, storage.ErrPlaylistNotFound) {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Playlists", fmt.Sprintf("No playlist named **%s**.", name)))
	}
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return command.RespondEmbed(s, e, command.SuccessEmbed("🗑 Deleted", fmt.Sprintf("Playlist **%s** removed.", name)))
}

func (c *PlaylistCommand) runAdd(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event
	name, _ := subStrings(sub)

	t, playing := c.Players.NowPlaying(e.GuildID)
	if !playing {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Playlists", "Nothing is playing right now."))
	}

	err := c.Storage.AddToPlaylist(sctx.UserID(), name, t)
	if errors.Is(err, storage.ErrPlaylistNotFound) {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Playlists", fmt.Sprintf("No playlist named **%s**.", name)))
	}
	if err != nil {
		return fmt.Errorf("failed to add to playlist: %w", err)
	}

	return command.RespondEmbed(s, e, command.SuccessEmbed("📼 Added",
		fmt.Sprintf("**%s** `%s` added to **%s**.", t.Title, track.FormatDuration(t.DurationSeconds), name)))
}
