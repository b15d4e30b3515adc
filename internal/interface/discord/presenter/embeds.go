// Package presenter форматирует данные прогресса для отображения в Discord.
// Презентеры превращают DTO запросов и результаты команд в embed-сообщения.
package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/afk-bro/discord-bot/internal/application/eventhandler"
	"github.com/afk-bro/discord-bot/internal/application/query"
	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// Цвета embed-сообщений.
const (
	ColorLevel    = 0x5865F2
	ColorGold     = 0xF1C40F
	ColorSuccess  = 0x2ECC71
	ColorWarning  = 0xE67E22
	ColorPrestige = 0x9B59B6
)

const progressBarWidth = 12

// ═══════════════════════════════════════════════════════════════════════════
// RANK CARD
// ═══════════════════════════════════════════════════════════════════════════

// RankEmbed форматирует карточку участника.
func RankEmbed(p *query.ProfileDTO, userID string) *discordgo.MessageEmbed {
	rec := p.Record
	embed := &discordgo.MessageEmbed{
		Title:       p.Title.Title,
		Description: fmt.Sprintf("<@%s>", userID),
		Color:       ColorLevel,
	}
	if !p.Found {
		embed.Description += "\nNo XP yet. Start chatting to earn some!"
		return embed
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Level", Value: fmt.Sprintf("%d", rec.Level), Inline: true},
		{Name: "Rank", Value: formatRank(p.Rank, p.TotalMembers), Inline: true},
		{Name: "Weekly", Value: formatRank(p.WeeklyRank, p.TotalMembers), Inline: true},
		{
			Name:  "Progress",
			Value: fmt.Sprintf("%s %d / %d XP", ProgressBar(p.Progress, progressBarWidth), rec.XP, p.NextLevelXP),
		},
		{Name: "Total XP", Value: fmt.Sprintf("%d", rec.TotalXP), Inline: true},
		{Name: "Weekly XP", Value: fmt.Sprintf("%d", rec.WeeklyXP), Inline: true},
		{Name: "Messages", Value: fmt.Sprintf("%d", rec.Messages), Inline: true},
	}
	if rec.Prestige > 0 {
		embed.Color = ColorPrestige
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Prestige", Value: fmt.Sprintf("%d", rec.Prestige), Inline: true,
		})
	}
	if p.Multiplier > 1 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Booster", Value: fmt.Sprintf("x%.2f", p.Multiplier), Inline: true,
		})
	}

	var footer []string
	if p.DailyAvailable {
		footer = append(footer, "Daily bonus ready")
	} else {
		footer = append(footer, "Daily in "+timeutil.FormatCountdown(p.DailyTimeLeft))
	}
	if p.CanPrestige {
		footer = append(footer, "Prestige available")
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: strings.Join(footer, " • ")}
	return embed
}

func formatRank(rank, total int) string {
	if rank == 0 {
		return "-"
	}
	return fmt.Sprintf("#%d of %d", rank, total)
}

// ProgressBar рисует полосу прогресса из width сегментов.
func ProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

// ═══════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ═══════════════════════════════════════════════════════════════════════════

var medals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// LeaderboardEmbed форматирует таблицу лидеров.
func LeaderboardEmbed(res *query.GetLeaderboardResult) *discordgo.MessageEmbed {
	title := "🏆 Leaderboard"
	if res.Window == progression.WindowWeekly {
		title = "📅 Weekly Leaderboard"
	}
	embed := &discordgo.MessageEmbed{
		Title:     title,
		Color:     ColorGold,
		Timestamp: res.GeneratedAt.Format(time.RFC3339),
	}
	if len(res.Entries) == 0 {
		embed.Description = "Nobody has earned XP yet."
		return embed
	}

	var sb strings.Builder
	for _, e := range res.Entries {
		marker, ok := medals[e.Rank]
		if !ok {
			marker = fmt.Sprintf("`#%d`", e.Rank)
		}
		if res.Window == progression.WindowWeekly {
			fmt.Fprintf(&sb, "%s <@%s> • %d XP this week\n", marker, e.UserID, e.WeeklyXP)
			continue
		}
		fmt.Fprintf(&sb, "%s <@%s> • Level %d • %d XP", marker, e.UserID, e.Level, e.TotalXP)
		if e.Prestige > 0 {
			fmt.Fprintf(&sb, " • %s P%d", e.Title.Emoji, e.Prestige)
		}
		sb.WriteString("\n")
	}
	embed.Description = sb.String()
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d members ranked", res.TotalCount)}
	return embed
}

// ═══════════════════════════════════════════════════════════════════════════
// COMMAND RESULTS
// ═══════════════════════════════════════════════════════════════════════════

// DailyEmbed форматирует результат ежедневного бонуса.
func DailyEmbed(res *progression.DailyResult) *discordgo.MessageEmbed {
	if !res.Claimed {
		return &discordgo.MessageEmbed{
			Title:       "⏱️ Daily already claimed",
			Description: "Come back in " + timeutil.FormatCountdown(res.TimeLeft) + ".",
			Color:       ColorWarning,
		}
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🎁 Daily bonus claimed",
		Description: fmt.Sprintf("You received **%d XP**.", res.XPGained),
		Color:       ColorSuccess,
	}
	if res.LeveledUp {
		embed.Description += fmt.Sprintf("\nLevel up! %d → **%d**", res.OldLevel, res.NewLevel)
	}
	return embed
}

// PrestigeEmbed форматирует результат престижа.
func PrestigeEmbed(res *progression.PrestigeResult, requiredLevel int) *discordgo.MessageEmbed {
	if !res.Success {
		return &discordgo.MessageEmbed{
			Title:       "🔒 Prestige locked",
			Description: fmt.Sprintf("%s. Reach level %d to prestige.", res.Reason, requiredLevel),
			Color:       ColorWarning,
		}
	}
	t := progression.PrestigeTitle(res.NewPrestige)
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s Prestige %d", t.Emoji, res.NewPrestige),
		Description: fmt.Sprintf("You are now **%s**.\nKept %d XP and restarted at level %d.",
			t.Title, res.RetainedXP, res.NewLevel),
		Color: ColorPrestige,
	}
}

// TitleEmbed форматирует титул участника.
func TitleEmbed(title progression.Title, userID string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title.Title,
		Description: fmt.Sprintf("<@%s>", userID),
		Color:       ColorLevel,
	}
	if title.Prestige > 0 {
		embed.Color = ColorPrestige
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Prestige %d", title.Prestige)}
	}
	return embed
}

// BoosterEmbed форматирует выданный бустер.
func BoosterEmbed(b *progression.Booster, userID string, loc *time.Location) *discordgo.MessageEmbed {
	expires := timeutil.FromMillis(b.ExpiresAt, loc)
	return &discordgo.MessageEmbed{
		Title:       "🚀 XP booster granted",
		Description: fmt.Sprintf("<@%s> gets **+%.2fx** XP until <t:%d:t>.", userID, b.Multiplier, expires.Unix()),
		Color:       ColorSuccess,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// LEVEL UP
// ═══════════════════════════════════════════════════════════════════════════

// LevelUpMessage форматирует поздравление с новым уровнем.
func LevelUpMessage(n eventhandler.LevelUpNotice) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       "⬆️ Level up!",
		Description: fmt.Sprintf("<@%s> reached **level %d**!\n%s", n.UserID, n.NewLevel, n.Title.Title),
		Color:       ColorLevel,
	}
	if len(n.Roles) > 0 {
		roles := make([]string, len(n.Roles))
		for i, id := range n.Roles {
			roles[i] = fmt.Sprintf("<@&%s>", id)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "New roles", Value: strings.Join(roles, " "),
		})
	}
	if n.CanPrestige {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Prestige is now available!"}
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Users: []string{n.UserID},
		},
	}
}
