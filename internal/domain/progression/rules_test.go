package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

type fixedRand struct{ n int }

func (f fixedRand) IntN(n int) int {
	if f.n >= n {
		return n - 1
	}
	return f.n
}

var epoch = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func TestRules_RawAward(t *testing.T) {
	r := DefaultRules()

	assert.Equal(t, int64(27), r.RawAward(AwardContext{}, fixedRand{7}))
	assert.Equal(t, int64(20), r.RawAward(AwardContext{}, fixedRand{0}))
	assert.Equal(t, int64(34), r.RawAward(AwardContext{}, fixedRand{99}), "draw is capped at bonus range - 1")

	full := AwardContext{HasMedia: true, IsLongMessage: true, VoiceMinutes: 2}
	assert.Equal(t, int64(27+25+15+20), r.RawAward(full, fixedRand{7}))
}

func TestRules_Award_NoLevelUp(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")

	res := r.Award(rec, AwardContext{}, fixedRand{7}, epoch)

	assert.False(t, res.LeveledUp)
	assert.Equal(t, int64(27), res.XPGained)
	assert.Equal(t, 1.0, res.Multiplier)
	assert.Empty(t, res.UserID)
	assert.Equal(t, int64(27), rec.TotalXP)
	assert.Equal(t, int64(27), rec.WeeklyXP)
	assert.Equal(t, int64(27), rec.XP)
	assert.Equal(t, int64(1), rec.Messages)
	assert.Equal(t, epoch.UnixMilli(), rec.LastXPGain)
}

func TestRules_Award_LevelUp(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")
	rec.TotalXP = 150
	rec.Recompute(r.Curve)

	res := r.Award(rec, AwardContext{}, fixedRand{7}, epoch)

	require.True(t, res.LeveledUp)
	assert.Equal(t, "u1", res.UserID)
	assert.Equal(t, "g1", res.GuildID)
	assert.Equal(t, 0, res.OldLevel)
	assert.Equal(t, 1, res.NewLevel)
	assert.Equal(t, int64(177), res.TotalXP)
	assert.False(t, res.CanPrestige)
	assert.Empty(t, res.Milestones)
}

func TestRules_Award_VoiceMinutesAccumulate(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")

	r.Award(rec, AwardContext{VoiceMinutes: 3}, fixedRand{0}, epoch)

	assert.Equal(t, int64(3), rec.VoiceMinutes)
	assert.Equal(t, int64(50), rec.TotalXP)
}

func TestRules_Award_BoosterMultiplier(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")
	_, err := r.AddBooster(rec, 0.5, time.Hour, epoch)
	require.NoError(t, err)

	full := AwardContext{HasMedia: true, IsLongMessage: true, VoiceMinutes: 2}
	res := r.Award(rec, full, fixedRand{7}, epoch.Add(time.Minute))

	assert.Equal(t, 1.5, res.Multiplier)
	assert.Equal(t, int64(130), res.XPGained, "floor(87 * 1.5)")
	assert.Len(t, rec.ActiveBoosters, 1)
}

func TestActiveMultiplier_PrunesExpired(t *testing.T) {
	rec := NewRecord("u1", "g1")
	rec.ActiveBoosters = []Booster{
		{Multiplier: 1.0, ExpiresAt: epoch.Add(-time.Second).UnixMilli(), AddedAt: epoch.Add(-time.Hour).UnixMilli()},
		{Multiplier: 0.25, ExpiresAt: epoch.Add(time.Hour).UnixMilli(), AddedAt: epoch.UnixMilli()},
		{Multiplier: 2.0, ExpiresAt: epoch.UnixMilli(), AddedAt: epoch.Add(-time.Hour).UnixMilli()},
	}

	m := ActiveMultiplier(rec, epoch)

	assert.Equal(t, 1.25, m)
	require.Len(t, rec.ActiveBoosters, 1)
	assert.Equal(t, 0.25, rec.ActiveBoosters[0].Multiplier)
}

func TestRules_AddBooster(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")

	b, err := r.AddBooster(rec, 1.0, 0, epoch)
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(time.Hour).UnixMilli(), b.ExpiresAt, "default duration is one hour")
	assert.Equal(t, epoch.UnixMilli(), b.AddedAt)

	_, err = r.AddBooster(rec, 0, time.Hour, epoch)
	assert.True(t, errors.Is(err, shared.ErrValueOutOfRange))
	assert.Len(t, rec.ActiveBoosters, 1)
}

func TestRules_ClaimDaily(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")

	first := r.ClaimDaily(rec, epoch)
	assert.True(t, first.Claimed)
	assert.Equal(t, int64(100), first.XPGained)
	assert.False(t, first.LeveledUp)
	assert.Equal(t, int64(100), rec.TotalXP)
	assert.Equal(t, int64(100), rec.WeeklyXP)

	second := r.ClaimDaily(rec, epoch.Add(10*time.Second))
	assert.False(t, second.Claimed)
	assert.Equal(t, 24*time.Hour-10*time.Second, second.TimeLeft)
	assert.Equal(t, int64(100), rec.TotalXP)

	third := r.ClaimDaily(rec, epoch.Add(24*time.Hour))
	assert.True(t, third.Claimed)
	assert.True(t, third.LeveledUp)
	assert.Equal(t, 1, third.NewLevel)
}

func TestRules_Prestige_BelowLevel(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")
	rec.TotalXP = r.Curve.CumulativeXP(49)
	rec.WeeklyXP = 500
	rec.Recompute(r.Curve)
	require.Equal(t, 49, rec.Level)

	res := r.Prestige(rec)

	assert.False(t, res.Success)
	assert.Equal(t, ReasonLevelTooLow, res.Reason)
	assert.Equal(t, r.Curve.CumulativeXP(49), rec.TotalXP)
	assert.Equal(t, 0, rec.Prestige)
	assert.Equal(t, int64(500), rec.WeeklyXP)
}

func TestRules_Prestige_AtLevel50(t *testing.T) {
	r := DefaultRules()
	rec := NewRecord("u1", "g1")
	total := r.Curve.CumulativeXP(50)
	rec.TotalXP = total
	rec.WeeklyXP = 4000
	rec.Recompute(r.Curve)
	require.Equal(t, 50, rec.Level)

	res := r.Prestige(rec)

	require.True(t, res.Success)
	assert.Equal(t, 0, res.OldPrestige)
	assert.Equal(t, 1, res.NewPrestige)
	assert.Equal(t, total/10, res.RetainedXP)
	assert.Equal(t, total/10, rec.TotalXP)
	assert.Equal(t, int64(0), rec.WeeklyXP)
	assert.Equal(t, 1, rec.Prestige)

	level, xp := r.Curve.LevelFromTotalXP(total / 10)
	assert.Equal(t, level, res.NewLevel)
	assert.Equal(t, level, rec.Level)
	assert.Equal(t, xp, rec.XP)
}

func TestRules_CrossedMilestones(t *testing.T) {
	r := DefaultRules()

	assert.Equal(t, []int{5}, r.CrossedMilestones(4, 5))
	assert.Equal(t, []int{5, 10}, r.CrossedMilestones(3, 12))
	assert.Nil(t, r.CrossedMilestones(5, 9))
	assert.Equal(t, []int{50}, r.CrossedMilestones(49, 60))
}

func TestRules_Validate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())

	bad := DefaultRules()
	bad.PrestigeRetention = 1
	assert.True(t, shared.IsValidation(bad.Validate()))

	bad = DefaultRules()
	bad.BonusRange = 0
	assert.True(t, shared.IsValidation(bad.Validate()))

	bad = DefaultRules()
	bad.Curve.Multiplier = 0
	assert.Error(t, bad.Validate())
}

func TestRules_IsLongMessage(t *testing.T) {
	r := DefaultRules()
	long := make([]rune, 100)
	for i := range long {
		long[i] = 'ж'
	}

	assert.True(t, r.IsLongMessage(string(long)))
	assert.False(t, r.IsLongMessage(string(long[:99])))
}
