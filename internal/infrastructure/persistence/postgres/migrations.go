package postgres

// The snapshot document is stored as JSON rather than JSONB: JSONB reorders
// object keys, and record order is the leaderboard tie-breaker.

const migration001Up = `
CREATE TABLE IF NOT EXISTS progression_snapshots (
	ledger_id          TEXT PRIMARY KEY,
	revision           TEXT NOT NULL,
	version            INTEGER NOT NULL,
	saved_at           BIGINT NOT NULL,
	last_weekly_reset  BIGINT NOT NULL DEFAULT 0,
	record_count       INTEGER NOT NULL DEFAULT 0,
	document           JSON NOT NULL,
	updated_at         TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS progression_snapshots;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS progression_snapshot_history (
	id            BIGSERIAL PRIMARY KEY,
	ledger_id     TEXT NOT NULL,
	revision      TEXT NOT NULL,
	saved_at      BIGINT NOT NULL,
	record_count  INTEGER NOT NULL,
	document      JSON NOT NULL,
	created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_snapshot_history_ledger
	ON progression_snapshot_history (ledger_id, id DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS progression_snapshot_history;
`
