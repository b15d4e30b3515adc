package handler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/application/command"
	"github.com/afk-bro/discord-bot/internal/application/query"
	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/settings"
	"github.com/afk-bro/discord-bot/internal/infrastructure/persistence/file"
	"github.com/afk-bro/discord-bot/internal/infrastructure/persistence/ledger"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

var now = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

type fixedRand int

func (f fixedRand) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

func prefixCtx(args ...string) *Context {
	return &Context{GuildID: "g1", ChannelID: "c1", UserID: "u1", Prefix: "!", Args: args}
}

// ─────────────────────────────────────────────────────────────────────────────
// fun
// ─────────────────────────────────────────────────────────────────────────────

func TestFun_Dice(t *testing.T) {
	h := NewFunHandler(fixedRand(3))
	ctx := context.Background()

	resp, err := h.Dice(ctx, prefixCtx())
	require.NoError(t, err)
	assert.Equal(t, "🎲 You rolled a **4** (1-6)", resp.Content)

	resp, _ = h.Dice(ctx, prefixCtx("20"))
	assert.Equal(t, "🎲 You rolled a **4** (1-20)", resp.Content)

	resp, _ = h.Dice(ctx, prefixCtx("abc"))
	assert.Equal(t, "🎲 You rolled a **4** (1-6)", resp.Content)

	resp, _ = h.Dice(ctx, prefixCtx("101"))
	assert.Equal(t, "🎲 Please specify a number between 2 and 100!", resp.Content)

	resp, _ = h.Dice(ctx, prefixCtx("1"))
	assert.Equal(t, "🎲 Please specify a number between 2 and 100!", resp.Content)

	slash := &Context{Options: map[string]interface{}{"sides": int64(12)}}
	resp, _ = h.Dice(ctx, slash)
	assert.Equal(t, "🎲 You rolled a **4** (1-12)", resp.Content)
}

func TestFun_EightBall(t *testing.T) {
	h := NewFunHandler(fixedRand(0))

	resp, err := h.EightBall(context.Background(), prefixCtx())
	require.NoError(t, err)
	assert.Equal(t, "❓ Please ask a question! Usage: !8ball <question>", resp.Content)

	resp, _ = h.EightBall(context.Background(), prefixCtx("will", "it", "build?"))
	assert.Equal(t, "**Question:** will it build?\n🎱 It is certain.", resp.Content)
}

func TestFun_CoinFlipAndQuotes(t *testing.T) {
	ctx := context.Background()

	resp, _ := NewFunHandler(fixedRand(0)).CoinFlip(ctx, prefixCtx())
	assert.Equal(t, "🪙 The coin landed on: **Heads**!", resp.Content)
	resp, _ = NewFunHandler(fixedRand(1)).CoinFlip(ctx, prefixCtx())
	assert.Equal(t, "🪙 The coin landed on: **Tails**!", resp.Content)

	resp, _ = NewFunHandler(fixedRand(9)).Quote(ctx, prefixCtx())
	assert.Equal(t, `💭 "Talk is cheap. Show me the code." - Linus Torvalds`, resp.Content)

	resp, _ = NewFunHandler(fixedRand(0)).Ping(ctx, prefixCtx())
	assert.Equal(t, "Pong! 🏓", resp.Content)
}

// ─────────────────────────────────────────────────────────────────────────────
// context helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestContext_Arguments(t *testing.T) {
	c := &Context{UserID: "me", Args: []string{"1.5", "30", "<@42>"}, Mentions: []string{"42"}}
	f, ok := c.Float("multiplier", 0)
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)
	n, ok := c.Int("minutes", 1)
	assert.True(t, ok)
	assert.Equal(t, 30, n)
	assert.Equal(t, "42", c.TargetUser("user"))
	assert.False(t, c.Flag("weekly", "weekly"))

	slash := &Context{UserID: "me", Options: map[string]interface{}{"weekly": true}}
	assert.True(t, slash.Slash())
	assert.True(t, slash.Flag("weekly", "weekly"))
	assert.Equal(t, "me", slash.TargetUser("user"))
	_, ok = slash.Int("minutes", 0)
	assert.False(t, ok)
}

// ─────────────────────────────────────────────────────────────────────────────
// leveling
// ─────────────────────────────────────────────────────────────────────────────

func newLeveling(t *testing.T) (*LevelingHandler, *ledger.Store) {
	t.Helper()
	rules := progression.DefaultRules()
	clock := timeutil.NewManualClock(now)
	store := ledger.NewStore(file.NewSnapshotStore(filepath.Join(t.TempDir(), "levels.json")), clock, nil)
	require.NoError(t, store.Initialize(context.Background()))

	h := NewLevelingHandler(LevelingDeps{
		Profile:     query.NewGetProfileHandler(store, rules, nil, clock, nil),
		Leaderboard: query.NewGetLeaderboardHandler(store, nil, clock, nil),
		Daily:       command.NewClaimDailyHandler(store, rules, clock, nil, nil),
		Prestige:    command.NewPrestigeHandler(store, rules, clock, nil, nil),
		Booster:     command.NewAddBoosterHandler(store, rules, clock, nil, nil),
		Rules:       rules,
	})
	return h, store
}

func TestLeveling_DailyThenCooldown(t *testing.T) {
	h, _ := newLeveling(t)
	ctx := context.Background()

	resp, err := h.Daily(ctx, prefixCtx())
	require.NoError(t, err)
	assert.Equal(t, "🎁 Daily bonus claimed", resp.Embed.Title)
	assert.Contains(t, resp.Embed.Description, "100 XP")

	resp, err = h.Daily(ctx, prefixCtx())
	require.NoError(t, err)
	assert.Equal(t, "⏱️ Daily already claimed", resp.Embed.Title)
	assert.Contains(t, resp.Embed.Description, "24h 0m")
}

func TestLeveling_RankAndLeaderboard(t *testing.T) {
	h, store := newLeveling(t)
	ctx := context.Background()

	resp, err := h.Rank(ctx, prefixCtx())
	require.NoError(t, err)
	assert.Contains(t, resp.Embed.Description, "No XP yet")

	_, err = h.Daily(ctx, prefixCtx())
	require.NoError(t, err)
	_, found := store.View("u1", "g1")
	require.True(t, found)

	resp, err = h.Rank(ctx, prefixCtx())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Embed.Fields)
	assert.Equal(t, "Level", resp.Embed.Fields[0].Name)

	resp, err = h.Leaderboard(ctx, prefixCtx("weekly"))
	require.NoError(t, err)
	assert.Equal(t, "📅 Weekly Leaderboard", resp.Embed.Title)
	assert.Contains(t, resp.Embed.Description, "<@u1>")
}

func TestLeveling_PrestigeLocked(t *testing.T) {
	h, _ := newLeveling(t)

	resp, err := h.Prestige(context.Background(), prefixCtx())

	require.NoError(t, err)
	assert.Equal(t, "🔒 Prestige locked", resp.Embed.Title)
	assert.Contains(t, resp.Embed.Description, "level 50")
}

func TestLeveling_Booster(t *testing.T) {
	h, store := newLeveling(t)
	ctx := context.Background()

	resp, err := h.Booster(ctx, prefixCtx())
	require.NoError(t, err)
	assert.True(t, resp.Ephemeral)

	resp, err = h.Booster(ctx, prefixCtx("-1"))
	require.NoError(t, err)
	assert.Equal(t, "❌ The multiplier must be a positive number.", resp.Content)

	resp, err = h.Booster(ctx, prefixCtx("0.5", "43201"))
	require.NoError(t, err)
	assert.Equal(t, "❌ A booster can last at most 43200 minutes (30 days).", resp.Content)

	c := prefixCtx("0.5", "30", "<@u2>")
	c.Mentions = []string{"u2"}
	resp, err = h.Booster(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "🚀 XP booster granted", resp.Embed.Title)

	rec, ok := store.View("u2", "g1")
	require.True(t, ok)
	require.Len(t, rec.ActiveBoosters, 1)
	assert.Equal(t, now.Add(30*time.Minute).UnixMilli(), rec.ActiveBoosters[0].ExpiresAt)
}

func TestLeveling_GuildOnly(t *testing.T) {
	h, _ := newLeveling(t)
	dm := &Context{UserID: "u1"}

	resp, err := h.Daily(context.Background(), dm)

	require.NoError(t, err)
	assert.Equal(t, guildOnlyMessage, resp.Content)
}

// ─────────────────────────────────────────────────────────────────────────────
// settings
// ─────────────────────────────────────────────────────────────────────────────

type memSettings map[string]string

func (m memSettings) Prefix(_ context.Context, guildID string) string {
	if p, ok := m[guildID]; ok {
		return p
	}
	return settings.DefaultPrefix
}

func (m memSettings) Set(_ context.Context, guildID, key, value string) (*settings.ServerSettings, error) {
	s := settings.Defaults(guildID)
	if err := s.Set(key, value); err != nil {
		return nil, err
	}
	m[guildID] = s.Prefix
	return s, nil
}

func TestSettings_SetPrefix(t *testing.T) {
	store := memSettings{}
	h := NewSettingsHandler(command.NewSetPrefixHandler(store), "⛔ no")
	ctx := context.Background()

	resp, err := h.SetPrefix(ctx, prefixCtx("?"))
	require.NoError(t, err)
	assert.Equal(t, "⛔ no", resp.Content)

	admin := prefixCtx()
	admin.IsAdmin = true
	resp, err = h.SetPrefix(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "Current prefix: `!`\nUsage: !setprefix <new_prefix>", resp.Content)

	admin.Args = []string{"?"}
	resp, err = h.SetPrefix(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "✅ Prefix updated to `?`", resp.Content)
	assert.Equal(t, "?", store["g1"])

	admin.Args = []string{"toolong"}
	resp, err = h.SetPrefix(ctx, admin)
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "1 to 5 characters")
}
