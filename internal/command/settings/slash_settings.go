package settings

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"sonora/internal/command"
	"sonora/internal/storage"
)

type SettingsCommand struct {
	Storage *storage.Storage
}

func (c *SettingsCommand) Name() string        { return "settings" }
func (c *SettingsCommand) Description() string { return "Personal bot preferences" }
func (c *SettingsCommand) Category() string    { return "⚙️ Settings" }

func (c *SettingsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show your current settings",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "language",
				Description: "Set your preferred language",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "code",
						Description: "Language code, e.g. en or de",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "notifications",
				Description: "Toggle now-playing notifications",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "autoplay",
				Description: "Toggle related-track autoplay",
			},
		},
	}
}

func (c *SettingsCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s, e := sctx.Session, sctx.Event
	opts := e.ApplicationCommandData().Options
	if len(opts) == 0 {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Error", "Missing subcommand."))
	}

	current, err := c.Storage.Settings(sctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	sub := opts[0]
	switch sub.Name {
	case "show":
		return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("⚙️ Your settings", fmt.Sprintf(
			"🌐 Language: **%s**\n🔔 Notifications: **%s**\n▶️ Autoplay: **%s**",
			current.Language, onOff(current.Notifications), onOff(current.Autoplay),
		)))
	case "language":
		for _, opt := range sub.Options {
			if opt.Name == "code" {
				current.Language = opt.StringValue()
			}
		}
		if err := c.Storage.SaveSettings(sctx.UserID(), current); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return command.RespondEmbedEphemeral(s, e, command.SuccessEmbed("⚙️ Saved", fmt.Sprintf("Language set to **%s**.", current.Language)))
	case "notifications":
		current.Notifications = !current.Notifications
		if err := c.Storage.SaveSettings(sctx.UserID(), current); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return command.RespondEmbedEphemeral(s, e, command.SuccessEmbed("⚙️ Saved", fmt.Sprintf("Notifications **%s**.", onOff(current.Notifications))))
	case "autoplay":
		current.Autoplay = !current.Autoplay
		if err := c.Storage.SaveSettings(sctx.UserID(), current); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return command.RespondEmbedEphemeral(s, e, command.SuccessEmbed("⚙️ Saved", fmt.Sprintf("Autoplay **%s**.", onOff(current.Autoplay))))
	}
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
