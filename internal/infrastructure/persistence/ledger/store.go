// Package ledger implements the in-memory progression ledger that mirrors every
// mutation to a durable snapshot backend (file, postgres or redis).
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// Store owns record identity and is the sole writer of the persisted snapshot.
// Read-modify-write on a record is serialized by a per-key mutex obtained via
// Acquire; Persist clones each record under that mutex before writing.
type Store struct {
	backend progression.SnapshotStore
	clock   timeutil.Clock
	logger  *slog.Logger

	mu              sync.RWMutex
	records         *progression.RecordSet
	locks           map[string]*sync.Mutex
	lastWeeklyReset int64
	initialized     bool

	// persistMu keeps snapshot order equal to write order.
	persistMu sync.Mutex
	stats     Stats
}

// Stats describes persistence activity.
type Stats struct {
	Persists       int64  `json:"persists"`
	PersistErrors  int64  `json:"persist_errors"`
	LastRevision   string `json:"last_revision"`
	LastDurationMs int64  `json:"last_duration_ms"`
}

// NewStore creates an empty store backed by the given snapshot backend.
func NewStore(backend progression.SnapshotStore, clock timeutil.Clock, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		clock:   clock,
		logger:  logger.With("component", "ledger", "backend", backend.Name()),
		records: progression.NewRecordSet(),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Initialize loads the durable snapshot into memory. A missing snapshot is not
// an error: an empty one is created and persisted. Any other failure, including
// a corrupt snapshot, is returned unchanged.
func (s *Store) Initialize(ctx context.Context) error {
	snap, err := s.backend.Load(ctx)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		s.logger.Info("no snapshot found, creating empty ledger")
		s.install(progression.NewSnapshot())
		return s.Persist(ctx)
	case err != nil:
		return err
	}

	s.install(snap)
	s.logger.Info("ledger loaded",
		"records", snap.Records.Len(),
		"revision", snap.Revision,
		"last_weekly_reset", snap.LastWeeklyReset,
	)
	return nil
}

func (s *Store) install(snap *progression.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = snap.Records
	s.lastWeeklyReset = snap.LastWeeklyReset
	s.locks = make(map[string]*sync.Mutex, snap.Records.Len())
	for _, key := range snap.Records.Keys() {
		s.locks[key] = &sync.Mutex{}
	}
	s.stats.LastRevision = snap.Revision
	s.initialized = true
}

// ══════════════════════════════════════════════════════════════════════════════
// Record access
// ══════════════════════════════════════════════════════════════════════════════

type handle struct {
	rec     *progression.Record
	created bool
	mu      *sync.Mutex
	once    sync.Once
}

func (h *handle) Record() *progression.Record { return h.rec }
func (h *handle) Created() bool               { return h.created }
func (h *handle) Release()                    { h.once.Do(h.mu.Unlock) }

// Acquire returns the record for (userID, guildID), creating a zero-valued one
// if absent, and locks it until Release.
func (s *Store) Acquire(userID, guildID string) progression.Handle {
	key := progression.Key(userID, guildID)

	s.mu.RLock()
	rec, ok := s.records.Get(key)
	lock := s.locks[key]
	s.mu.RUnlock()

	created := false
	if !ok {
		s.mu.Lock()
		rec, ok = s.records.Get(key)
		if !ok {
			rec = progression.NewRecord(userID, guildID)
			s.records.Put(rec)
			s.locks[key] = &sync.Mutex{}
			created = true
		}
		lock = s.locks[key]
		s.mu.Unlock()
	}

	lock.Lock()
	return &handle{rec: rec, created: created, mu: lock}
}

// View returns a copy of the record without creating it.
func (s *Store) View(userID, guildID string) (*progression.Record, bool) {
	key := progression.Key(userID, guildID)

	s.mu.RLock()
	rec, ok := s.records.Get(key)
	lock := s.locks[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	lock.Lock()
	defer lock.Unlock()
	return rec.Clone(), true
}

// GuildRecords returns copies of the guild's records in creation order.
func (s *Store) GuildRecords(guildID string) []*progression.Record {
	return s.collect(func(rec *progression.Record) bool { return rec.GuildID == guildID }).Records()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Len()
}

// collect clones matching records, each under its own lock.
func (s *Store) collect(match func(*progression.Record) bool) *progression.RecordSet {
	type entry struct {
		rec  *progression.Record
		lock *sync.Mutex
	}

	s.mu.RLock()
	entries := make([]entry, 0, s.records.Len())
	for _, key := range s.records.Keys() {
		rec, _ := s.records.Get(key)
		entries = append(entries, entry{rec: rec, lock: s.locks[key]})
	}
	s.mu.RUnlock()

	out := progression.NewRecordSet()
	for _, e := range entries {
		e.lock.Lock()
		if match(e.rec) {
			out.Put(e.rec.Clone())
		}
		e.lock.Unlock()
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// Persistence
// ══════════════════════════════════════════════════════════════════════════════

// Persist writes the full record set to the backend, overwriting the previous
// snapshot. Callers must Release any handle before calling it.
func (s *Store) Persist(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	start := time.Now()
	snap := &progression.Snapshot{
		Version:         progression.SnapshotVersion,
		Revision:        uuid.NewString(),
		SavedAt:         s.clock.Now().UnixMilli(),
		LastWeeklyReset: s.LastWeeklyReset(),
		Records:         s.collect(func(*progression.Record) bool { return true }),
	}

	if err := s.backend.Save(ctx, snap); err != nil {
		s.stats.PersistErrors++
		s.logger.Error("persist failed", "error", err, "records", snap.Records.Len())
		return err
	}

	s.stats.Persists++
	s.stats.LastRevision = snap.Revision
	s.stats.LastDurationMs = time.Since(start).Milliseconds()
	s.logger.Debug("snapshot persisted",
		"revision", snap.Revision,
		"records", snap.Records.Len(),
		"duration_ms", s.stats.LastDurationMs,
	)
	return nil
}

// LastWeeklyReset returns the last weekly reset time in Unix milliseconds.
func (s *Store) LastWeeklyReset() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastWeeklyReset
}

// ResetWeekly zeroes weekly XP on every record, records atMs as the reset
// time and persists. It returns the number of records that changed.
func (s *Store) ResetWeekly(ctx context.Context, atMs int64) (int, error) {
	s.mu.Lock()
	keys := s.records.Keys()
	recs := make([]*progression.Record, 0, len(keys))
	locks := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		rec, _ := s.records.Get(key)
		recs = append(recs, rec)
		locks = append(locks, s.locks[key])
	}
	s.lastWeeklyReset = atMs
	s.mu.Unlock()

	changed := 0
	for i, rec := range recs {
		locks[i].Lock()
		if progression.ResetWeekly(rec) {
			changed++
		}
		locks[i].Unlock()
	}

	return changed, s.Persist(ctx)
}

// Stats returns persistence counters.
func (s *Store) Stats() Stats {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	return s.stats
}

// Ping checks the backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Initialized reports whether Initialize completed.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

var _ progression.Ledger = (*Store)(nil)
