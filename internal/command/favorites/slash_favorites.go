package favorites

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"sonora/internal/command"
	"sonora/internal/music/player"
	"sonora/internal/storage"
)

type FavoritesCommand struct {
	Players *player.Controller
	Storage *storage.Storage
}

func (c *FavoritesCommand) Name() string        { return "favorites" }
func (c *FavoritesCommand) Description() string { return "Manage your favorite tracks" }
func (c *FavoritesCommand) Category() string    { return "⭐ Favorites" }

func (c *FavoritesCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Save the currently playing track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Show your saved tracks",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a saved track by title",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "title",
						Description: "Title of the track to remove",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *FavoritesCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s, e := sctx.Session, sctx.Event
	opts := e.ApplicationCommandData().Options
	if len(opts) == 0 {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Error", "Missing subcommand."))
	}

	switch opts[0].Name {
	case "add":
		return c.runAdd(sctx)
	case "list":
		return c.runList(sctx)
	case "remove":
		return c.runRemove(sctx, opts[0])
	}
	return nil
}

func (c *FavoritesCommand) runAdd(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	t, playing := c.Players.NowPlaying(e.GuildID)
	if !playing {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Favorites", "Nothing is playing right now."))
	}

	err := c.Storage.AddFavorite(sctx.UserID(), t)
	switch {
	case errors.Is(err, storage.ErrFavoriteExists):
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Favorites", "That track is already saved."))
	case errors.Is(err, storage.ErrFavoritesFull):
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Favorites", "Your favorites list is full."))
	case err != nil:
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	return command.RespondEmbed(s, e, command.SuccessEmbed("⭐ Saved", fmt.Sprintf("**%s** added to favorites.", t.Title)))
}

func (c *FavoritesCommand) runList(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	favs, err := c.Storage.Favorites(sctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	if len(favs) == 0 {
		return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("Favorites", "You have no saved tracks yet."))
	}

	var b strings.Builder
	for i, f := range favs {
		if i == 20 {
			fmt.Fprintf(&b, "...and %d more", len(favs)-i)
			break
		}
		line := f.Title
		if f.Artist != "" {
			line += " - " + f.Artist
		}
		fmt.Fprintf(&b, "**%d.** %s\n", i+1, line)
	}

	return command.RespondEmbedEphemeral(s, e, command.InfoEmbed(fmt.Sprintf("⭐ Favorites (%d)", len(favs)), b.String()))
}

func (c *FavoritesCommand) runRemove(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event

	title := ""
	for _, opt := range sub.Options {
		if opt.Name == "title" {
			title = opt.StringValue()
		}
	}

	err := c.Storage.RemoveFavorite(sctx.UserID(), title)
	if errors.Is(err, storage.ErrFavoriteNotFound) {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Favorites", fmt.Sprintf("No favorite matching **%s**.", title)))
	}
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	return command.RespondEmbed(s, e, command.SuccessEmbed("🗑 Removed", fmt.Sprintf("**%s** removed from favorites.", title)))
}
