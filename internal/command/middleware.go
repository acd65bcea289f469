package command

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	return w.wrap(ctx)
}

// SlashDefinition forwards to the wrapped command so middleware does
// not hide it from registration.
func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// HandleComponent forwards component interactions to the wrapped
// command when it handles them.
func (w *wrappedCommand) HandleComponent(ctx *ComponentContext) error {
	if h, ok := w.Command.(ComponentHandler); ok {
		return h.HandleComponent(ctx)
	}
	return nil
}

// Apply wraps cmd in the given middlewares, outermost last.
func Apply(cmd Command, middlewares ...Middleware) Command {
	for _, m := range middlewares {
		cmd = m(cmd)
	}
	return cmd
}

// WithGuildOnly rejects invocations from DMs.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok && v.Event.GuildID == "" {
					return RespondEmbedEphemeral(v.Session, v.Event, ErrorEmbed("Guild only", "This command only works inside a server."))
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// WithCommandLogger records every invocation.
func WithCommandLogger(log zerolog.Logger) Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok {
					log.Info().
						Str("command", cmd.Name()).
						Str("guild", v.Event.GuildID).
						Str("user", v.UserID()).
						Msg("command invoked")
				}
				return cmd.Run(ctx)
			},
		}
	}
}
