package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

func sampleSnapshot() *Snapshot {
	snap := NewSnapshot()
	snap.Revision = "rev-1"
	snap.SavedAt = 1710000000000
	snap.LastWeeklyReset = 1709500000000

	zero := NewRecord("200", "g2")
	snap.Records.Put(zero)

	full := NewRecord("100", "g1")
	full.XP = 12
	full.Level = 3
	full.TotalXP = 1122
	full.Messages = 40
	full.LastXPGain = 1710000000001
	full.LastDailyLogin = 1709990000000
	full.WeeklyXP = 300
	full.Prestige = 1
	full.VoiceMinutes = 7
	full.ActiveBoosters = []Booster{
		{Multiplier: 0.5, ExpiresAt: 1710003600000, AddedAt: 1710000000000},
		{Multiplier: 1.25, ExpiresAt: 1710007200000, AddedAt: 1710000000500},
	}
	snap.Records.Put(full)
	return snap
}

func TestSnapshot_RoundTrip(t *testing.T) {
	snap := sampleSnapshot()

	data, err := EncodeSnapshot(snap)
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, snap.Version, got.Version)
	assert.Equal(t, snap.Revision, got.Revision)
	assert.Equal(t, snap.SavedAt, got.SavedAt)
	assert.Equal(t, snap.LastWeeklyReset, got.LastWeeklyReset)
	assert.Equal(t, snap.Records.Keys(), got.Records.Keys(), "insertion order survives")
	assert.Equal(t, snap.Records.Records(), got.Records.Records())
}

func TestDecodeSnapshot_LegacyFlatFormat(t *testing.T) {
	legacy := `{
  "g1-u2": {"userId":"u2","guildId":"g1","xp":10,"level":1,"totalXp":175,"messages":3,
            "lastXpGain":0,"lastDailyLogin":0,"weeklyXp":175,"prestige":0,"activeBoosters":[],"voiceMinutes":0},
  "g1-u1": {"userId":"u1","guildId":"g1","xp":0,"level":0,"totalXp":0,"messages":0,
            "lastXpGain":0,"lastDailyLogin":0,"weeklyXp":0,"prestige":0,"activeBoosters":null,"voiceMinutes":0}
}`

	snap, err := DecodeSnapshot([]byte(legacy))
	require.NoError(t, err)

	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, []string{"g1-u2", "g1-u1"}, snap.Records.Keys())
	r, ok := snap.Records.Get("g1-u1")
	require.True(t, ok)
	assert.NotNil(t, r.ActiveBoosters)
	assert.Empty(t, r.ActiveBoosters)
}

func TestDecodeSnapshot_Corrupt(t *testing.T) {
	for _, data := range []string{"", "{", `{"g1-u1": 5}`, `[1,2]`} {
		_, err := DecodeSnapshot([]byte(data))
		assert.ErrorIs(t, err, shared.ErrCorruptSnapshot, "input %q", data)
	}
}

func TestDecodeSnapshot_FutureVersion(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"version": 99, "records": {}}`))
	assert.ErrorIs(t, err, shared.ErrCorruptSnapshot)
}

func TestRecordSet_CloneIsDeep(t *testing.T) {
	snap := sampleSnapshot()
	clone := snap.Records.Clone()

	orig, _ := snap.Records.Get("g1-100")
	orig.TotalXP = 1
	orig.ActiveBoosters[0].Multiplier = 9

	c, _ := clone.Get("g1-100")
	assert.Equal(t, int64(1122), c.TotalXP)
	assert.Equal(t, 0.5, c.ActiveBoosters[0].Multiplier)
}
