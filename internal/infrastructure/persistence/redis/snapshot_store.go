package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// SnapshotStore persists the ledger snapshot as a single Redis string.
type SnapshotStore struct {
	cache *Cache
}

// NewSnapshotStore creates a redis snapshot backend.
func NewSnapshotStore(cache *Cache) *SnapshotStore {
	return &SnapshotStore{cache: cache}
}

// Name implements progression.SnapshotStore.
func (s *SnapshotStore) Name() string {
	return "redis"
}

// Load reads the snapshot document. A missing key yields shared.ErrSnapshotNotFound.
// Legacy flat documents carry no weekly reset time; it is taken from the
// mirror key instead.
func (s *SnapshotStore) Load(ctx context.Context) (*progression.Snapshot, error) {
	prefix := s.cache.Prefix()
	data, err := s.cache.GetBytes(ctx, SnapshotKey(prefix))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, shared.WrapError("progression", "Load", shared.ErrStorage, "read snapshot key", err)
	}

	snap, err := progression.DecodeSnapshot(data)
	if err != nil || snap.LastWeeklyReset != 0 {
		return snap, err
	}

	raw, err := s.cache.GetBytes(ctx, WeeklyResetKey(prefix))
	switch {
	case errors.Is(err, ErrCacheMiss):
		return snap, nil
	case err != nil:
		return nil, shared.WrapError("progression", "Load", shared.ErrStorage, "read weekly reset key", err)
	}
	if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		snap.LastWeeklyReset = ms
	}
	return snap, nil
}

// Save writes the document and the weekly reset mirror atomically. The mirror
// also lets operators read the reset time without parsing the document.
func (s *SnapshotStore) Save(ctx context.Context, snap *progression.Snapshot) error {
	data, err := progression.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	prefix := s.cache.Prefix()
	err = s.cache.SetAll(ctx, map[string]interface{}{
		SnapshotKey(prefix):    data,
		WeeklyResetKey(prefix): strconv.FormatInt(snap.LastWeeklyReset, 10),
	})
	if err != nil {
		return shared.WrapError("progression", "Persist", shared.ErrStorage, "write snapshot key", err)
	}
	return nil
}

// Ping implements progression.SnapshotStore.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return shared.WrapError("progression", "Ping", shared.ErrStorage, "redis unavailable", err)
	}
	return nil
}

var _ progression.SnapshotStore = (*SnapshotStore)(nil)
