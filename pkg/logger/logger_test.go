package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNew_ConsoleAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer

	l := New(Options{Level: "info", Console: true, File: true, Dir: dir, Output: &buf})
	l.Debug("hidden")
	l.CommandExecuted("ping", "user#1", "u1", "Guild", "g1")
	require.NoError(t, l.Close())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "command=ping")
	assert.Contains(t, buf.String(), "guild_id=g1")

	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"command":"ping"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_FileDirUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	var buf bytes.Buffer

	l := New(Options{Level: "info", Console: true, File: true, Dir: filepath.Join(blocker, "logs"), Output: &buf})
	l.Info("still works")

	assert.Contains(t, buf.String(), "file logging disabled")
	assert.Contains(t, buf.String(), "still works")
	assert.NoError(t, l.Close())
}

func TestCommandAttrs_DM(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Console: true, Format: "json", Output: &buf})

	l.CommandError("rank", errors.New("boom"), "user#1", "u1", "", "")

	assert.Contains(t, buf.String(), `"dm":true`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.NotContains(t, buf.String(), "guild_id")
}

func TestLifecycleHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Console: true, Format: "json", Output: &buf}).Component("discord_bot")

	l.BotReady("LevelBot#0001", 3)
	l.GuildJoin("Guild", "g1", 42)
	l.GuildLeave("Guild", "g1")

	out := buf.String()
	assert.Contains(t, out, `"component":"discord_bot"`)
	assert.Contains(t, out, `"msg":"bot ready","component":"discord_bot","bot":"LevelBot#0001","guilds":3`)
	assert.Contains(t, out, `"msg":"joined guild","component":"discord_bot","guild":"Guild","guild_id":"g1","members":42`)
	assert.Contains(t, out, `"msg":"left guild"`)
	assert.NoError(t, l.Close(), "child loggers do not own the file")
}

func TestFromSlog(t *testing.T) {
	var buf bytes.Buffer
	l := FromSlog(slog.New(slog.NewTextHandler(&buf, nil)))

	l.CommandExecuted("ping", "user#1", "u1", "Guild", "g1")

	assert.Contains(t, buf.String(), "guild=Guild")
	assert.NotNil(t, FromSlog(nil).Logger)
}

func TestFanout_WithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	h := NewFanout(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("component", "ledger")

	log.Info("info line")
	log.Error("error line")

	assert.Contains(t, a.String(), "component=ledger")
	assert.Contains(t, a.String(), "info line")
	assert.NotContains(t, b.String(), "info line")
	assert.Contains(t, b.String(), "error line")
}
