package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"sonora/internal/command"
	"sonora/internal/music/sources/spotify"
	"sonora/internal/music/track"
)

const recommendLimit = 5

type RecommendCommand struct {
	Spotify *spotify.SpotifySource
}

func (c *RecommendCommand) Name() string        { return "recommend" }
func (c *RecommendCommand) Description() string { return "Get track recommendations from Spotify" }
func (c *RecommendCommand) Category() string    { return "🎵 Music" }

func (c *RecommendCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "seed",
				Description: "A track you like",
				Required:    true,
			},
		},
	}
}

func (c *RecommendCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s, e := sctx.Session, sctx.Event

	if !c.Spotify.Available() {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Recommendations",
			"Spotify is not configured on this bot."))
	}

	seed := ""
	for _, opt := range e.ApplicationCommandData().Options {
		if opt.Name == "seed" {
			seed = opt.StringValue()
		}
	}

	if err := command.Defer(s, e); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seedID, err := c.Spotify.SeedIDFor(reqCtx, seed)
	if err != nil {
		return command.FollowupEmbedEphemeral(s, e, command.ErrorEmbed("Recommendations",
			fmt.Sprintf("Could not find **%s** on Spotify.", seed)))
	}

	tracks, err := c.Spotify.Recommendations(reqCtx, seedID, recommendLimit)
	if err != nil || len(tracks) == 0 {
		return command.FollowupEmbedEphemeral(s, e, command.ErrorEmbed("Recommendations",
			"Spotify returned no recommendations for that seed."))
	}

	var b strings.Builder
	for i, t := range tracks {
		fmt.Fprintf(&b, "**%d.** %s `%s`\n", i+1, t.String(), track.FormatDuration(t.DurationSeconds))
	}
	b.WriteString("\nQueue any of these with `/music play`.")

	return command.FollowupEmbed(s, e, command.InfoEmbed(fmt.Sprintf("💡 Based on %s", seed), b.String()))
}
