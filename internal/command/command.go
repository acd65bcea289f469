package command

import (
	"github.com/bwmarrin/discordgo"

	"sonora/internal/config"
	"sonora/internal/storage"
)

// Command is a single slash command the bot exposes.
type Command interface {
	Name() string
	Description() string
	Category() string
	Run(ctx interface{}) error
}

// SlashProvider is implemented by commands that register a slash
// definition with Discord.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// ComponentHandler is implemented by commands that react to message
// component interactions (buttons, select menus) whose custom ID is
// prefixed with the command name.
type ComponentHandler interface {
	HandleComponent(ctx *ComponentContext) error
}

// SlashContext is handed to a command for an application-command
// interaction.
type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	Config  *config.Config
}

// ComponentContext is handed to a command for a component interaction.
type ComponentContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	Config  *config.Config
}

// UserID returns the invoking user regardless of guild or DM context.
func (c *SlashContext) UserID() string {
	if c.Event.Member != nil && c.Event.Member.User != nil {
		return c.Event.Member.User.ID
	}
	if c.Event.User != nil {
		return c.Event.User.ID
	}
	return ""
}
