package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "discord-bot:ledger:snapshot", SnapshotKey("discord-bot"))
	assert.Equal(t, "discord-bot:ledger:last_weekly_reset", WeeklyResetKey("discord-bot"))
	assert.Equal(t, "ledger:snapshot", SnapshotKey(""))
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())

	cfg.Host = "cache.internal"
	cfg.Port = 6380
	assert.Equal(t, "cache.internal:6380", cfg.Addr())
}
