package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/afk-bro/discord-bot/config"
	"github.com/afk-bro/discord-bot/internal/application/command"
	"github.com/afk-bro/discord-bot/internal/application/query"
	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/internal/interface/discord/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVELING COMMANDS
// rank, leaderboard/top, daily, prestige, title, booster.
// ══════════════════════════════════════════════════════════════════════════════

const guildOnlyMessage = "❌ This command can only be used in a server."

// FeatureChecker reports per-guild feature flags.
type FeatureChecker interface {
	IsEnabled(featureName, guildID string) bool
}

// LevelingHandler serves the leveling commands.
type LevelingHandler struct {
	profile     *query.GetProfileHandler
	leaderboard *query.GetLeaderboardHandler
	daily       *command.ClaimDailyHandler
	prestige    *command.PrestigeHandler
	booster     *command.AddBoosterHandler
	rules       progression.Rules
	features    FeatureChecker
	location    *time.Location
}

// LevelingDeps groups the LevelingHandler dependencies.
type LevelingDeps struct {
	Profile     *query.GetProfileHandler
	Leaderboard *query.GetLeaderboardHandler
	Daily       *command.ClaimDailyHandler
	Prestige    *command.PrestigeHandler
	Booster     *command.AddBoosterHandler
	Rules       progression.Rules
	Features    FeatureChecker
	Location    *time.Location
}

// NewLevelingHandler creates a LevelingHandler.
func NewLevelingHandler(deps LevelingDeps) *LevelingHandler {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &LevelingHandler{
		profile:     deps.Profile,
		leaderboard: deps.Leaderboard,
		daily:       deps.Daily,
		prestige:    deps.Prestige,
		booster:     deps.Booster,
		rules:       deps.Rules,
		features:    deps.Features,
		location:    deps.Location,
	}
}

// Rank handles "rank [@user]".
func (h *LevelingHandler) Rank(ctx context.Context, c *Context) (*Response, error) {
	if !c.InGuild() {
		return Ephemeral(guildOnlyMessage), nil
	}
	target := c.TargetUser("user")
	p, err := h.profile.Handle(ctx, query.GetProfileQuery{UserID: target, GuildID: c.GuildID})
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	return Embed(presenter.RankEmbed(p, target)), nil
}

// Leaderboard handles "leaderboard [weekly]" and "top [weekly]".
func (h *LevelingHandler) Leaderboard(ctx context.Context, c *Context) (*Response, error) {
	if !c.InGuild() {
		return Ephemeral(guildOnlyMessage), nil
	}
	weekly := c.Flag("weekly", "weekly")
	if weekly && h.features != nil && !h.features.IsEnabled(config.FeatureWeeklyLeaderboard, c.GuildID) {
		return Ephemeral("📅 The weekly leaderboard is disabled on this server."), nil
	}
	res, err := h.leaderboard.Handle(ctx, query.GetLeaderboardQuery{
		GuildID: c.GuildID,
		Limit:   query.DefaultLeaderboardLimit,
		Weekly:  weekly,
	})
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return Embed(presenter.LeaderboardEmbed(res)), nil
}

// Daily handles "daily".
func (h *LevelingHandler) Daily(ctx context.Context, c *Context) (*Response, error) {
	if !c.InGuild() {
		return Ephemeral(guildOnlyMessage), nil
	}
	res, err := h.daily.Handle(ctx, command.ClaimDailyCommand{UserID: c.UserID, GuildID: c.GuildID})
	if err != nil {
		return nil, fmt.Errorf("daily: %w", err)
	}
	return Embed(presenter.DailyEmbed(res)), nil
}

// Prestige handles "prestige".
func (h *LevelingHandler) Prestige(ctx context.Context, c *Context) (*Response, error) {
	if !c.InGuild() {
		return Ephemeral(guildOnlyMessage), nil
	}
	res, err := h.prestige.Handle(ctx, command.PrestigeCommand{UserID: c.UserID, GuildID: c.GuildID})
	if err != nil {
		return nil, fmt.Errorf("prestige: %w", err)
	}
	return Embed(presenter.PrestigeEmbed(res, h.rules.PrestigeLevel)), nil
}

// Title handles "title [@user]".
func (h *LevelingHandler) Title(ctx context.Context, c *Context) (*Response, error) {
	if !c.InGuild() {
		return Ephemeral(guildOnlyMessage), nil
	}
	target := c.TargetUser("user")
	p, err := h.profile.Handle(ctx, query.GetProfileQuery{UserID: target, GuildID: c.GuildID})
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	return Embed(presenter.TitleEmbed(p.Title, target)), nil
}

// Booster handles "booster <multiplier> [minutes] [@user]". Admin only; the
// router enforces that.
func (h *LevelingHandler) Booster(ctx context.Context, c *Context) (*Response, error) {
	if !c.InGuild() {
		return Ephemeral(guildOnlyMessage), nil
	}
	multiplier, ok := c.Float("multiplier", 0)
	if !ok {
		return Ephemeral(fmt.Sprintf("Usage: %sbooster <multiplier> [minutes] [@user]", c.Prefix)), nil
	}
	var duration time.Duration
	if minutes, ok := c.Int("minutes", 1); ok && minutes > 0 {
		if minutes > command.MaxBoosterMinutes {
			return Ephemeral(fmt.Sprintf("❌ A booster can last at most %d minutes (30 days).", command.MaxBoosterMinutes)), nil
		}
		duration = time.Duration(minutes) * time.Minute
	}
	target := c.TargetUser("user")

	b, err := h.booster.Handle(ctx, command.AddBoosterCommand{
		UserID:     target,
		GuildID:    c.GuildID,
		Multiplier: multiplier,
		Duration:   duration,
		GrantedBy:  c.UserID,
	})
	if shared.IsValidation(err) {
		return Ephemeral("❌ The multiplier must be a positive number."), nil
	}
	if err != nil {
		return nil, fmt.Errorf("booster: %w", err)
	}
	return Embed(presenter.BoosterEmbed(b, target, h.location)), nil
}
