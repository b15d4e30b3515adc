package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data/user-levels.json", cfg.Storage.FilePath)
	assert.Equal(t, "!", cfg.Discord.DefaultPrefix)
	assert.True(t, cfg.Discord.IgnoreBots)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "logs", cfg.Logging.Dir)
	assert.Equal(t, progression.DefaultRules(), cfg.Leveling)
	assert.Equal(t, "❌ An error occurred while executing that command.", cfg.Messages.Generic)
	assert.Equal(t, "⛔ You don't have permission to use this command.", cfg.Messages.PermissionDenied)
	assert.Empty(t, cfg.Discord.MilestoneRoles)
}

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN is required")
}

func TestLoad_BackendValidation(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("STORAGE_BACKEND", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "bot")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://bot:@db:5432/postgres?sslmode=disable", cfg.Database.URL)

	t.Setenv("STORAGE_BACKEND", "mongo")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_DebugLowersLogLevel(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("APP_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	t.Setenv("LOG_LEVEL", "verbose")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_MilestoneRoles(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("ROLE_MILESTONE_10", "role-10")
	t.Setenv("ROLE_MILESTONE_7", "ignored")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, map[int]string{10: "role-10"}, cfg.Discord.MilestoneRoles)
}

func TestLoad_LevelingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leveling.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_points: 30\nrole_milestones: [7]\n"), 0o600))
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LEVELING_CONFIG", path)
	t.Setenv("ROLE_MILESTONE_7", "role-7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(30), cfg.Leveling.BasePoints)
	assert.Equal(t, map[int]string{7: "role-7"}, cfg.Discord.MilestoneRoles)
}

func TestParseLeveling_Overrides(t *testing.T) {
	doc := `
cooldown: 30s
curve:
  multiplier: 100
daily:
  bonus: 250
prestige:
  retention: 0.25
weekly_reset:
  day: Monday
`
	rules, err := ParseLeveling([]byte(doc))
	require.NoError(t, err)

	def := progression.DefaultRules()
	assert.Equal(t, 30*time.Second, rules.Cooldown)
	assert.Equal(t, 100.0, rules.Curve.Multiplier)
	assert.Equal(t, def.Curve.Growth, rules.Curve.Growth)
	assert.Equal(t, int64(250), rules.DailyBonus)
	assert.Equal(t, def.DailyWindow, rules.DailyWindow)
	assert.Equal(t, 0.25, rules.PrestigeRetention)
	assert.Equal(t, time.Monday, rules.WeeklyResetDay)
	assert.Equal(t, def.BasePoints, rules.BasePoints)
}

func TestParseLeveling_Invalid(t *testing.T) {
	cases := map[string]string{
		"retention":   "prestige:\n  retention: 1.5\n",
		"bonus range": "bonus_range: 0\n",
		"multiplier":  "curve:\n  multiplier: -1\n",
		"weekday":     "weekly_reset:\n  day: someday\n",
		"yaml":        "base_points: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLeveling([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadLeveling_MissingFile(t *testing.T) {
	_, err := LoadLeveling(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	rules, err := LoadLeveling("")
	require.NoError(t, err)
	assert.Equal(t, progression.DefaultRules(), rules)
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("FEATURE_COMMANDS_FUN", "false")
	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureFunCommands, "g1"))
	assert.True(t, ff.IsEnabled(FeatureLevelingXP, "g1"))
	assert.False(t, ff.IsEnabled("unknown", "g1"))

	assert.False(t, ff.GetAllFeatures()[FeatureFunCommands].Enabled)
}

func TestFeatureFlags_Rollout(t *testing.T) {
	t.Setenv("FEATURE_LEVELING_XP_ROLLOUT", "0")
	t.Setenv("FEATURE_LEVELING_ANNOUNCE_ROLLOUT", "250")
	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureLevelingXP, "g1"))
	assert.True(t, ff.IsEnabled(FeatureLevelingXP, ""), "rollout does not apply without a guild")
	assert.Equal(t, 100, ff.GetAllFeatures()[FeatureLevelUpAnnounce].RolloutPercent, "out of range value is ignored")
	assert.True(t, ff.IsEnabled(FeatureLevelUpAnnounce, "g1"))
}

func TestConfig_Environment(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())

	all := cfg.Features.GetAllFeatures()
	assert.Contains(t, all, FeatureLevelingXP)
	assert.Contains(t, all, FeatureLiveFeed)
}
