package premium

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"sonora/internal/command"
	"sonora/internal/storage"
)

const defaultKeyDays = 30

type PremiumCommand struct {
	Storage *storage.Storage
}

func (c *PremiumCommand) Name() string        { return "premium" }
func (c *PremiumCommand) Description() string { return "Premium keys and status" }
func (c *PremiumCommand) Category() string    { return "👑 Premium" }

func (c *PremiumCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "redeem",
				Description: "Activate a premium key",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "key",
						Description: "The key you received",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show your premium status",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "generate",
				Description: "Generate a new premium key (bot owner only)",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "days",
						Description: "How many days the key grants",
					},
				},
			},
		},
	}
}

func (c *PremiumCommand) Run(ctx interface{}) error {
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
	case "redeem":
		return c.runRedeem(sctx, sub)
	case "status":
		return c.runStatus(sctx)
	case "generate":
		return c.runGenerate(sctx, sub)
	}
	return nil
}

func (c *PremiumCommand) runRedeem(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event

	code := ""
	for _, opt := range sub.Options {
		if opt.Name == "key" {
			code = opt.StringValue()
		}
	}

	expiry, err := c.Storage.RedeemPremiumKey(sctx.UserID(), code)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Premium", "That key does not exist."))
	case errors.Is(err, storage.ErrKeyUsed):
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Premium", "That key has already been redeemed."))
	case err != nil:
		return fmt.Errorf("failed to redeem key: %w", err)
	}

	embed := command.SuccessEmbed("👑 Premium activated",
		fmt.Sprintf("Your premium access runs until **%s**.", expiry.Format("2 Jan 2006")))
	embed.Color = command.ColorPremium
	return command.RespondEmbedEphemeral(s, e, embed)
}

func (c *PremiumCommand) runStatus(sctx *command.SlashContext) error {
	s, e := sctx.Session, sctx.Event

	info, err := c.Storage.PremiumInfo(sctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to load premium status: %w", err)
	}

	active, err := c.Storage.IsPremium(sctx.UserID())
	if err != nil {
		return fmt.Errorf("failed to check premium status: %w", err)
	}

	if info == nil || !active {
		return command.RespondEmbedEphemeral(s, e, command.InfoEmbed("Premium",
			"You do not have an active premium subscription. Redeem a key with `/premium redeem`."))
	}

	embed := command.InfoEmbed("👑 Premium status", fmt.Sprintf(
		"Active since **%s**\nExpires on **%s**",
		info.ActivatedAt.Format("2 Jan 2006"),
		info.ExpiresAt.Format("2 Jan 2006"),
	))
	embed.Color = command.ColorPremium
	return command.RespondEmbedEphemeral(s, e, embed)
}

func (c *PremiumCommand) runGenerate(sctx *command.SlashContext, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	s, e := sctx.Session, sctx.Event

	if !sctx.Config.IsOwner(sctx.UserID()) {
		return command.RespondEmbedEphemeral(s, e, command.ErrorEmbed("Premium", "Only the bot owner can generate keys."))
	}

	days := defaultKeyDays
	for _, opt := range sub.Options {
		if opt.Name == "days" {
			days = int(opt.IntValue())
		}
	}

	code, err := c.Storage.GeneratePremiumKey(days)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	embed := command.SuccessEmbed("🔑 Key generated",
		fmt.Sprintf("`%s`\n\nGrants **%d days** of premium.", code, days))
	embed.Color = command.ColorPremium
	return command.RespondEmbedEphemeral(s, e, embed)
}
