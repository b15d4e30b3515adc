package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// DefaultLedgerID names the single snapshot row used by the bot.
const DefaultLedgerID = "default"

// SnapshotStore keeps the snapshot as one row per ledger and, optionally,
// the last HistoryDepth revisions in a history table.
type SnapshotStore struct {
	conn         *Connection
	ledgerID     string
	historyDepth int
}

// NewSnapshotStore creates a postgres snapshot backend.
func NewSnapshotStore(conn *Connection, ledgerID string, historyDepth int) *SnapshotStore {
	if ledgerID == "" {
		ledgerID = DefaultLedgerID
	}
	return &SnapshotStore{conn: conn, ledgerID: ledgerID, historyDepth: historyDepth}
}

// Name implements progression.SnapshotStore.
func (s *SnapshotStore) Name() string {
	return "postgres"
}

// Load reads the snapshot row. A missing row yields shared.ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context) (*progression.Snapshot, error) {
	var doc []byte
	err := s.conn.QueryRow(ctx,
		`SELECT document FROM progression_snapshots WHERE ledger_id = $1`,
		s.ledgerID,
	).Scan(&doc)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, shared.WrapError("progression", "Load", shared.ErrStorage, "query snapshot", err)
	}

	return progression.DecodeSnapshot(doc)
}

// Save upserts the snapshot row and appends to history in one transaction.
func (s *SnapshotStore) Save(ctx context.Context, snap *progression.Snapshot) error {
	doc, err := progression.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	err = s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO progression_snapshots
				(ledger_id, revision, version, saved_at, last_weekly_reset, record_count, document, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			ON CONFLICT (ledger_id) DO UPDATE SET
				revision = EXCLUDED.revision,
				version = EXCLUDED.version,
				saved_at = EXCLUDED.saved_at,
				last_weekly_reset = EXCLUDED.last_weekly_reset,
				record_count = EXCLUDED.record_count,
				document = EXCLUDED.document,
				updated_at = NOW()`,
			s.ledgerID, snap.Revision, snap.Version, snap.SavedAt, snap.LastWeeklyReset,
			snap.Records.Len(), doc,
		)
		if err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}

		if s.historyDepth <= 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO progression_snapshot_history (ledger_id, revision, saved_at, record_count, document)
			VALUES ($1, $2, $3, $4, $5)`,
			s.ledgerID, snap.Revision, snap.SavedAt, snap.Records.Len(), doc,
		); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM progression_snapshot_history
			WHERE ledger_id = $1 AND id NOT IN (
				SELECT id FROM progression_snapshot_history
				WHERE ledger_id = $1
				ORDER BY id DESC
				LIMIT $2
			)`,
			s.ledgerID, s.historyDepth,
		)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
	if err != nil {
		return shared.WrapError("progression", "Persist", shared.ErrStorage, "save snapshot", err)
	}
	return nil
}

// Ping implements progression.SnapshotStore.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	if err := s.conn.Ping(ctx); err != nil {
		return shared.WrapError("progression", "Ping", shared.ErrStorage, "postgres unavailable", err)
	}
	return nil
}

var _ progression.SnapshotStore = (*SnapshotStore)(nil)
