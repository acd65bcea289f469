package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"sonora/internal/command"
	"sonora/internal/music/track"
	"sonora/internal/storage"
)

const historyPageSize = 10

type StatsCommand struct {
	Storage *storage.Storage
}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Listening history and statistics" }
func (c *StatsCommand) Category() string    { return "📊 Stats" }

func (c *StatsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "me",
				Description: "Your listening statistics",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "history",
				Description: "Your recently played tracks",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "leaderboard",
				Description: "Top listeners across the bot",
			},
		},
	}
}

func (c *StatsCommand) Run(ctx interface{}) error {
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
	case "me":
		return c.runMe(sctx)
	case "history":
		return c.runHistory(sctx)
	case "leaderboard":
		return c.runLeaderboard(sctx)
	}
	return nil
}

func (c *StatsCommand) runMe(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	stats, err := c.Storage.Stats(sctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	listened := time.Duration(stats.TotalSecondsPlayed) * time.Second
	return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("📊 Your stats", fmt.Sprintf(
		"🎵 Tracks played: **%d**\n⏱ Time listened: **%s**",
		stats.TotalPlays, listened.Round(time.Minute),
	)))
}

func (c *StatsCommand) runHistory(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	records, err := c.Storage.History(sctx.UserID(), historyPageSize)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(records) == 0 {
		return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("History", "You have not played anything yet."))
	}

	var b strings.Builder
	for i, r := range records {
		line := r.Title
		if r.Artist != "" {
			line += " - " + r.Artist
		}
		fmt.Fprintf(&b, "**%d.** %s `%s`\n", i+1, line, track.FormatDuration(r.DurationSeconds))
	}

	return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("🕘 Recently played", b.String()))
}

func (c *StatsCommand) runLeaderboard(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	entries, err := c.Storage.Leaderboard(historyPageSize)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	if len(entries) == 0 {
		return command.RespondEmbed(s, e, command.InfoEmbed("Leaderboard", "No plays recorded yet."))
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	for i, entry := range entries {
		rank := fmt.Sprintf("**%d.**", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		fmt.Fprintf(&b, "%s <@%s> - %d plays\n", rank, entry.UserID, entry.Stats.TotalPlays)
	}

	return command.RespondEmbed(s, e, command.InfoEmbed("🏆 Top listeners", b.String()))
}
