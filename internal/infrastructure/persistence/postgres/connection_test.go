package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestGetMigrations_Ordered(t *testing.T) {
	migs := GetMigrations()

	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL, m.Name)
		assert.NotEmpty(t, m.DownSQL, m.Name)
	}
}

func TestSnapshotDocumentKeepsKeyOrder(t *testing.T) {
	assert.NotContains(t, migration001Up, "JSONB")
	assert.Contains(t, migration001Up, "document           JSON NOT NULL")
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(pgx.ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("load: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("other")))
}

func TestNewSnapshotStore_DefaultLedgerID(t *testing.T) {
	s := NewSnapshotStore(nil, "", 0)

	assert.Equal(t, DefaultLedgerID, s.ledgerID)
	assert.Equal(t, "postgres", s.Name())
}

func TestNewConnectionFromURL_InvalidURL(t *testing.T) {
	conn, err := NewConnectionFromURL(context.Background(), "postgres://bot@localhost:notaport/levels", DefaultPoolOptions())

	assert.Nil(t, conn)
	assert.ErrorIs(t, err, ErrInvalidDatabaseURL)
}
