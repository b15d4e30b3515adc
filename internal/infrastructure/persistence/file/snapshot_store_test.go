package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

func TestSnapshotStore_LoadMissing(t *testing.T) {
	s := NewSnapshotStore(filepath.Join(t.TempDir(), "levels.json"))

	_, err := s.Load(context.Background())

	assert.True(t, shared.IsNotFound(err))
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotStore(filepath.Join(dir, "nested", "levels.json"))

	snap := progression.NewSnapshot()
	snap.Revision = "r1"
	snap.LastWeeklyReset = 1710000000000
	r := progression.NewRecord("u1", "g1")
	r.TotalXP = 400
	r.ActiveBoosters = append(r.ActiveBoosters, progression.Booster{Multiplier: 0.5, ExpiresAt: 2, AddedAt: 1})
	snap.Records.Put(r)
	snap.Records.Put(progression.NewRecord("u0", "g1"))

	require.NoError(t, s.Save(context.Background(), snap))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r1", got.Revision)
	assert.Equal(t, int64(1710000000000), got.LastWeeklyReset)
	assert.Equal(t, []string{"g1-u1", "g1-u0"}, got.Records.Keys())
	assert.Equal(t, snap.Records.Records(), got.Records.Records())

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestSnapshotStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewSnapshotStore(path).Load(context.Background())

	assert.ErrorIs(t, err, shared.ErrCorruptSnapshot)
	assert.False(t, shared.IsNotFound(err))
}

func TestSnapshotStore_Ping(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewSnapshotStore(filepath.Join(dir, "levels.json")).Ping(context.Background()))
	assert.Error(t, NewSnapshotStore(filepath.Join(dir, "missing", "levels.json")).Ping(context.Background()))
}
