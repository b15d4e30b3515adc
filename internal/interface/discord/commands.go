package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/afk-bro/discord-bot/config"
	"github.com/afk-bro/discord-bot/internal/application/command"
	"github.com/afk-bro/discord-bot/internal/interface/discord/handler"
)

// ══════════════════════════════════════════════════════════════════════════════
// SLASH COMMAND DEFINITIONS
// Registered by cmd/deploy. Option names match the names handlers read.
// ══════════════════════════════════════════════════════════════════════════════

var (
	minDiceSides = 2.0
	minBooster   = 0.01
	minMinutes   = 1.0

	adminPermission int64 = discordgo.PermissionAdministrator
)

// SlashCommands returns the application command set.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "hello", Description: "Replies with a friendly greeting"},
		{
			Name:        "8ball",
			Description: "Ask the magic 8-ball a question",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "question",
				Description: "Your question for the 8-ball",
				Required:    true,
			}},
		},
		{Name: "joke", Description: "Get a random programming joke"},
		{Name: "quote", Description: "Get an inspiring quote"},
		{Name: "coinflip", Description: "Flip a coin (heads or tails)"},
		{
			Name:        "dice",
			Description: "Roll a dice",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "sides",
				Description: "Number of sides on the dice (default: 6, max: 100)",
				MinValue:    &minDiceSides,
				MaxValue:    100,
			}},
		},
		{
			Name:        "rank",
			Description: "Show your level, XP and rank",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Member to look up (default: you)",
			}},
		},
		{
			Name:        "leaderboard",
			Description: "Show the server leaderboard",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "weekly",
				Description: "Rank by XP earned this week",
			}},
		},
		{Name: "daily", Description: "Claim your daily XP bonus"},
		{Name: "prestige", Description: "Reset your level for a prestige rank"},
		{
			Name:        "title",
			Description: "Show a member's title",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Member to look up (default: you)",
			}},
		},
		{
			Name:                     "setprefix",
			Description:              "Change the prefix for text commands",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prefix",
				Description: "New prefix, up to 5 characters",
			}},
		},
		{
			Name:                     "booster",
			Description:              "Grant a temporary XP booster",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "multiplier",
					Description: "Extra multiplier on top of 1.0",
					Required:    true,
					MinValue:    &minBooster,
					MaxValue:    10,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "minutes",
					Description: "Duration in minutes (default: 60)",
					MinValue:    &minMinutes,
					MaxValue:    command.MaxBoosterMinutes,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member receiving the booster (default: you)",
				},
			},
		},
	}
}

// Handlers groups the command handlers mounted on the router.
type Handlers struct {
	Fun      *handler.FunHandler
	Leveling *handler.LevelingHandler
	Settings *handler.SettingsHandler
}

// RegisterRoutes mounts every command on the router.
func RegisterRoutes(r *Router, h Handlers) {
	fun := config.FeatureFunCommands

	r.Handle(Route{Name: "ping", Handler: h.Fun.Ping})
	r.Handle(Route{Name: "hello", Handler: h.Fun.Hello})
	r.Handle(Route{Name: "8ball", Handler: h.Fun.EightBall, Feature: fun})
	r.Handle(Route{Name: "joke", Handler: h.Fun.Joke, Feature: fun})
	r.Handle(Route{Name: "quote", Handler: h.Fun.Quote, Feature: fun})
	r.Handle(Route{Name: "coinflip", Aliases: []string{"flip"}, Handler: h.Fun.CoinFlip, Feature: fun})
	r.Handle(Route{Name: "dice", Aliases: []string{"roll"}, Handler: h.Fun.Dice, Feature: fun})

	r.Handle(Route{Name: "rank", Handler: h.Leveling.Rank})
	r.Handle(Route{Name: "leaderboard", Aliases: []string{"top"}, Handler: h.Leveling.Leaderboard})
	r.Handle(Route{Name: "daily", Handler: h.Leveling.Daily})
	r.Handle(Route{Name: "prestige", Handler: h.Leveling.Prestige})
	r.Handle(Route{Name: "title", Handler: h.Leveling.Title})
	r.Handle(Route{Name: "booster", Handler: h.Leveling.Booster, AdminOnly: true})

	r.Handle(Route{Name: "setprefix", Handler: h.Settings.SetPrefix})
}
