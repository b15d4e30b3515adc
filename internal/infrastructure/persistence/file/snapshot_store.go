// Package file stores the progression snapshot as a single JSON document on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// DefaultFileName is used when the configured path is a directory.
const DefaultFileName = "user-levels.json"

// SnapshotStore reads and writes the snapshot file.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a store for the given file path. If path is empty,
// DefaultFileName in the working directory is used.
func NewSnapshotStore(path string) *SnapshotStore {
	if path == "" {
		path = DefaultFileName
	}
	return &SnapshotStore{path: path}
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Name implements progression.SnapshotStore.
func (s *SnapshotStore) Name() string {
	return "file"
}

// Load reads the snapshot. A missing file yields shared.ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context) (*progression.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, shared.WrapError("progression", "Load", shared.ErrStorage,
			fmt.Sprintf("reading %s", s.path), err)
	}

	return progression.DecodeSnapshot(data)
}

// Save writes the snapshot using an atomic temp-file-then-rename pattern.
// The directory is created if it does not already exist.
func (s *SnapshotStore) Save(ctx context.Context, snap *progression.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := progression.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := s.writeAtomic(data); err != nil {
		return shared.WrapError("progression", "Persist", shared.ErrStorage,
			fmt.Sprintf("writing %s", s.path), err)
	}
	return nil
}

func (s *SnapshotStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".levels-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	committed = true

	return nil
}

// Ping checks that the snapshot directory is reachable.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return shared.WrapError("progression", "Ping", shared.ErrStorage, "snapshot dir unavailable", err)
	}
	if !info.IsDir() {
		return shared.NewDomainError("progression", "Ping", shared.ErrStorage, dir+" is not a directory")
	}
	return nil
}

var _ progression.SnapshotStore = (*SnapshotStore)(nil)
