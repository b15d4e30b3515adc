// Package sqlite implements the server settings repository on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/afk-bro/discord-bot/internal/domain/settings"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// SettingsRepository implements settings.Repository using SQLite.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository opens (or creates) the database at dbPath and applies the schema.
func NewSettingsRepository(ctx context.Context, dbPath string) (*SettingsRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY on concurrent updates.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SettingsRepository{db: db}
	if err := repo.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SettingsRepository) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS server_settings (
		guild_id TEXT PRIMARY KEY,
		prefix TEXT NOT NULL,
		welcome_channel TEXT,
		log_channel TEXT,
		auto_role TEXT,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *SettingsRepository) Close() error {
	return r.db.Close()
}

// Ping verifies database connectivity.
func (r *SettingsRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get retrieves settings for a guild.
func (r *SettingsRepository) Get(ctx context.Context, guildID string) (*settings.ServerSettings, error) {
	query := `
		SELECT guild_id, prefix, welcome_channel, log_channel, auto_role, updated_at
		FROM server_settings WHERE guild_id = ?`

	s, err := scanSettings(r.db.QueryRowContext(ctx, query, guildID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSettingsNotFound
	}
	if err != nil {
		return nil, shared.WrapError("settings", "Get", shared.ErrStorage, "scan settings row", err)
	}
	return s, nil
}

// Save creates or replaces settings for a guild.
func (r *SettingsRepository) Save(ctx context.Context, s *settings.ServerSettings) error {
	query := `
	INSERT INTO server_settings (guild_id, prefix, welcome_channel, log_channel, auto_role, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(guild_id) DO UPDATE SET
		prefix = excluded.prefix,
		welcome_channel = excluded.welcome_channel,
		log_channel = excluded.log_channel,
		auto_role = excluded.auto_role,
		updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		s.GuildID, s.Prefix,
		nullable(s.WelcomeChannel), nullable(s.LogChannel), nullable(s.AutoRole),
		s.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return shared.WrapError("settings", "Save", shared.ErrStorage, "upsert settings", err)
	}
	return nil
}

// Delete removes settings for a guild. Deleting an absent guild is not an error.
func (r *SettingsRepository) Delete(ctx context.Context, guildID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM server_settings WHERE guild_id = ?`, guildID); err != nil {
		return shared.WrapError("settings", "Delete", shared.ErrStorage, "delete settings", err)
	}
	return nil
}

// List returns settings of every guild ordered by guild id.
func (r *SettingsRepository) List(ctx context.Context) ([]*settings.ServerSettings, error) {
	query := `
		SELECT guild_id, prefix, welcome_channel, log_channel, auto_role, updated_at
		FROM server_settings ORDER BY guild_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, shared.WrapError("settings", "List", shared.ErrStorage, "query settings", err)
	}
	defer rows.Close()

	var out []*settings.ServerSettings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, shared.WrapError("settings", "List", shared.ErrStorage, "scan settings row", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSettings(row scanner) (*settings.ServerSettings, error) {
	var s settings.ServerSettings
	var welcome, logCh, autoRole sql.NullString
	var updatedAt int64

	if err := row.Scan(&s.GuildID, &s.Prefix, &welcome, &logCh, &autoRole, &updatedAt); err != nil {
		return nil, err
	}

	s.WelcomeChannel = welcome.String
	s.LogChannel = logCh.String
	s.AutoRole = autoRole.String
	s.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &s, nil
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

var _ settings.Repository = (*SettingsRepository)(nil)
