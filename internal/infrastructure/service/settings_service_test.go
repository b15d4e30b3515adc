package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/settings"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

type memRepo struct {
	mu    sync.Mutex
	data  map[string]settings.ServerSettings
	gets  int
	saves int
}

func newMemRepo() *memRepo { return &memRepo{data: map[string]settings.ServerSettings{}} }

func (m *memRepo) Get(ctx context.Context, guildID string) (*settings.ServerSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	s, ok := m.data[guildID]
	if !ok {
		return nil, shared.ErrSettingsNotFound
	}
	return &s, nil
}

func (m *memRepo) Save(ctx context.Context, s *settings.ServerSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.data[s.GuildID] = *s
	return nil
}

func (m *memRepo) Delete(ctx context.Context, guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, guildID)
	return nil
}

func (m *memRepo) List(ctx context.Context) ([]*settings.ServerSettings, error) {
	return nil, nil
}

type recordingPublisher struct {
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

var at = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func TestSettingsService_GetCreatesDefaultsOnce(t *testing.T) {
	repo := newMemRepo()
	svc := NewSettingsService(repo, timeutil.NewManualClock(at), nil, nil)
	ctx := context.Background()

	s, err := svc.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultPrefix, s.Prefix)
	assert.Empty(t, s.WelcomeChannel)

	_, err = svc.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets)
	assert.Equal(t, 1, repo.saves)
}

func TestSettingsService_SetPrefix(t *testing.T) {
	repo := newMemRepo()
	pub := &recordingPublisher{}
	svc := NewSettingsService(repo, timeutil.NewManualClock(at), pub, nil)
	ctx := context.Background()

	s, err := svc.Set(ctx, "g1", settings.KeyPrefix, "?")
	require.NoError(t, err)
	assert.Equal(t, "?", s.Prefix)
	assert.Equal(t, "?", svc.Prefix(ctx, "g1"))
	assert.Equal(t, "?", repo.data["g1"].Prefix)
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventSettingsChanged, pub.events[0].EventType())
}

func TestSettingsService_UpdateIsAtomic(t *testing.T) {
	repo := newMemRepo()
	svc := NewSettingsService(repo, timeutil.NewManualClock(at), nil, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, "g1", map[string]string{
		settings.KeyLogChannel: "c1",
		"nope":                 "x",
	})
	assert.ErrorIs(t, err, shared.ErrUnknownSetting)

	s, err := svc.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, s.LogChannel)
}

func TestSettingsService_ResetAndRemove(t *testing.T) {
	repo := newMemRepo()
	svc := NewSettingsService(repo, timeutil.NewManualClock(at), nil, nil)
	ctx := context.Background()

	_, err := svc.Set(ctx, "g1", settings.KeyPrefix, "$")
	require.NoError(t, err)

	s, err := svc.Reset(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultPrefix, s.Prefix)

	require.NoError(t, svc.Remove(ctx, "g1"))
	_, ok := repo.data["g1"]
	assert.False(t, ok)
}

func TestSettingsService_GetReturnsCopy(t *testing.T) {
	svc := NewSettingsService(newMemRepo(), timeutil.NewManualClock(at), nil, nil)
	ctx := context.Background()

	s, err := svc.Get(ctx, "g1")
	require.NoError(t, err)
	s.Prefix = "mutated"

	assert.Equal(t, settings.DefaultPrefix, svc.Prefix(ctx, "g1"))
}

func TestSettingsService_EmptyGuild(t *testing.T) {
	svc := NewSettingsService(newMemRepo(), timeutil.NewManualClock(at), nil, nil)

	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, shared.ErrInvalidGuildID)
	assert.Equal(t, settings.DefaultPrefix, svc.Prefix(context.Background(), ""))
}
