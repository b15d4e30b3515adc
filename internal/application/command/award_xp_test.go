package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

func newAwardHandler(l *fakeLedger, clock timeutil.Clock, pub shared.EventPublisher) *AwardXPHandler {
	rules := progression.DefaultRules()
	return NewAwardXPHandler(l, rules, progression.NewCooldowns(rules.Cooldown), fixedRand{7}, clock, pub, nil)
}

func TestAwardXP_FirstAwardWithoutLevelUp(t *testing.T) {
	l := newFakeLedger()
	h := newAwardHandler(l, timeutil.NewManualClock(now), &recordingPublisher{})

	res, err := h.Handle(context.Background(), AwardXPCommand{UserID: "u1", GuildID: "g1"})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int64(27), res.XPGained)
	assert.Equal(t, 1.0, res.Multiplier)
	assert.False(t, res.LeveledUp)
	assert.Zero(t, res.NewLevel)

	rec, ok := l.View("u1", "g1")
	require.True(t, ok)
	assert.Equal(t, int64(27), rec.TotalXP)
	assert.Equal(t, int64(27), rec.WeeklyXP)
	assert.Equal(t, int64(1), rec.Messages)
	assert.Equal(t, now.UnixMilli(), rec.LastXPGain)
	assert.Equal(t, 1, l.persists)
}

func TestAwardXP_CooldownIsSilentNoOp(t *testing.T) {
	l := newFakeLedger()
	clock := timeutil.NewManualClock(now)
	h := newAwardHandler(l, clock, nil)
	cmd := AwardXPCommand{UserID: "u1", GuildID: "g1"}

	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	before, _ := l.View("u1", "g1")

	clock.Advance(59 * time.Second)
	res, err := h.Handle(context.Background(), cmd)

	assert.NoError(t, err)
	assert.Nil(t, res)
	after, _ := l.View("u1", "g1")
	assert.Equal(t, before, after)
	assert.Equal(t, 1, l.persists)

	clock.Advance(time.Second)
	res, err = h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestAwardXP_CooldownIsPerGuild(t *testing.T) {
	l := newFakeLedger()
	h := newAwardHandler(l, timeutil.NewManualClock(now), nil)

	first, err := h.Handle(context.Background(), AwardXPCommand{UserID: "u1", GuildID: "g1"})
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), AwardXPCommand{UserID: "u1", GuildID: "g2"})
	require.NoError(t, err)

	assert.NotNil(t, first)
	assert.NotNil(t, second)
}

func TestAwardXP_LevelUpPublishesEvent(t *testing.T) {
	l := newFakeLedger()
	rules := progression.DefaultRules()
	seed := progression.NewRecord("u1", "g1")
	seed.TotalXP = rules.Curve.CumulativeXP(5) - 15
	seed.Recompute(rules.Curve)
	l.put(seed)
	pub := &recordingPublisher{}
	h := newAwardHandler(l, timeutil.NewManualClock(now), pub)

	res, err := h.Handle(context.Background(), AwardXPCommand{
		UserID: "u1", GuildID: "g1", ChannelID: "c1", CorrelationID: "corr-1",
	})

	require.NoError(t, err)
	require.True(t, res.LeveledUp)
	assert.Equal(t, 4, res.OldLevel)
	assert.Equal(t, 5, res.NewLevel)
	assert.Equal(t, []int{5}, res.Milestones)
	assert.False(t, res.CanPrestige)

	events := pub.ofType(shared.EventLevelUp)
	require.Len(t, events, 1)
	ev := events[0].(shared.LevelUpEvent)
	assert.Equal(t, "c1", ev.ChannelID)
	assert.Equal(t, []int{5}, ev.Milestones)
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.Equal(t, res.TotalXP, ev.TotalXP)
}

func TestAwardXP_BonusesAndVoice(t *testing.T) {
	l := newFakeLedger()
	h := newAwardHandler(l, timeutil.NewManualClock(now), nil)

	res, err := h.Handle(context.Background(), AwardXPCommand{
		UserID: "u1", GuildID: "g1", HasMedia: true, IsLongMessage: true, VoiceMinutes: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(27+25+15+30), res.XPGained)
	rec, _ := l.View("u1", "g1")
	assert.Equal(t, int64(3), rec.VoiceMinutes)
}

func TestAwardXP_PersistFailureIsReturned(t *testing.T) {
	l := newFakeLedger()
	l.persistErr = shared.WrapError("progression", "Persist", shared.ErrStorage, "disk full", errors.New("ENOSPC"))
	h := newAwardHandler(l, timeutil.NewManualClock(now), nil)

	res, err := h.Handle(context.Background(), AwardXPCommand{UserID: "u1", GuildID: "g1"})

	assert.Nil(t, res)
	assert.True(t, shared.IsStorage(err))
}

func TestAwardXP_Validation(t *testing.T) {
	h := newAwardHandler(newFakeLedger(), timeutil.NewManualClock(now), nil)

	_, err := h.Handle(context.Background(), AwardXPCommand{GuildID: "g1"})
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	_, err = h.Handle(context.Background(), AwardXPCommand{UserID: "u1"})
	assert.ErrorIs(t, err, shared.ErrInvalidGuildID)

	_, err = h.Handle(context.Background(), AwardXPCommand{UserID: "u1", GuildID: "g1", VoiceMinutes: -1})
	assert.True(t, shared.IsValidation(err))
}
