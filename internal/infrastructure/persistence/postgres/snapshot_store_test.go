package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// newIntegrationConn connects to TEST_DATABASE_URL and applies migrations.
// Each test uses its own ledger id, so runs do not collide.
func newIntegrationConn(t *testing.T) *Connection {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := NewConnectionFromURL(ctx, url, DefaultPoolOptions())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	migrator := NewMigrator(conn)
	require.NoError(t, migrator.Migrate(ctx))
	status, err := migrator.Status(ctx)
	require.NoError(t, err)
	for _, m := range status {
		assert.True(t, m.IsApplied, m.Name)
	}
	return conn
}

func testSnapshot(revision string, users ...string) *progression.Snapshot {
	snap := progression.NewSnapshot()
	snap.Revision = revision
	snap.SavedAt = 1_700_000_000_000
	snap.LastWeeklyReset = 1_699_000_000_000
	for _, id := range users {
		rec := progression.NewRecord(id, "g1")
		rec.TotalXP = 120
		snap.Records.Put(rec)
	}
	return snap
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	conn := newIntegrationConn(t)
	ctx := context.Background()
	store := NewSnapshotStore(conn, "test-"+uuid.NewString(), 2)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, shared.ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, testSnapshot("rev-1", "u2", "u1")))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", loaded.Revision)
	assert.Equal(t, int64(1_699_000_000_000), loaded.LastWeeklyReset)
	assert.Equal(t, []string{progression.Key("u2", "g1"), progression.Key("u1", "g1")}, loaded.Records.Keys())

	for _, rev := range []string{"rev-2", "rev-3"} {
		require.NoError(t, store.Save(ctx, testSnapshot(rev, "u1")))
	}
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-3", loaded.Revision)
	assert.Equal(t, 1, loaded.Records.Len())

	var history int
	require.NoError(t, conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM progression_snapshot_history WHERE ledger_id = $1`, store.ledgerID,
	).Scan(&history))
	assert.Equal(t, 2, history)

	health, err := conn.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	require.NoError(t, store.Ping(ctx))
}
