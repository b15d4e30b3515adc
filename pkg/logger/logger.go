// Package logger builds the process-wide slog logger: console output plus an
// optional append-only log file, filtered by a single level threshold.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the log file created inside Options.Dir.
const DefaultFileName = "bot.log"

// ParseLevel parses a string into a slog level. Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures the logger.
type Options struct {
	Level   string
	Format  string // json or text (console only, the file is always JSON)
	Console bool
	File    bool
	Dir     string

	// Output replaces os.Stdout for the console sink.
	Output io.Writer
}

// Logger wraps slog.Logger with bot lifecycle helpers.
type Logger struct {
	*slog.Logger
	file io.Closer
}

// New creates a Logger. If the log directory cannot be created, file logging
// is disabled and a warning is written to the console sink.
func New(opts Options) *Logger {
	level := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: level}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handlers []slog.Handler
	if opts.Console {
		if strings.EqualFold(opts.Format, "json") {
			handlers = append(handlers, slog.NewJSONHandler(out, hopts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, hopts))
		}
	}

	var file *os.File
	var fileErr error
	if opts.File {
		file, fileErr = openLogFile(opts.Dir)
		if fileErr == nil {
			handlers = append(handlers, slog.NewJSONHandler(file, hopts))
		}
	}

	l := &Logger{Logger: slog.New(NewFanout(handlers...))}
	if file != nil {
		l.file = file
	}
	if fileErr != nil {
		l.Warn("file logging disabled", "dir", opts.Dir, "error", fileErr)
	}
	return l
}

func openLogFile(dir string) (*os.File, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return os.OpenFile(filepath.Join(dir, DefaultFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// FromSlog wraps l without a file sink. Nil wraps slog.Default().
func FromSlog(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{Logger: l}
}

// Component returns a child logger tagged with component=name. The child
// does not own the log file.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// BotReady logs a successful gateway login.
func (l *Logger) BotReady(botTag string, guilds int) {
	l.Info("bot ready", "bot", botTag, "guilds", guilds)
}

// GuildJoin logs a guild becoming available to the bot.
func (l *Logger) GuildJoin(guildName, guildID string, members int) {
	l.Info("joined guild", "guild", guildName, "guild_id", guildID, "members", members)
}

// GuildLeave logs the bot leaving or being removed from a guild.
func (l *Logger) GuildLeave(guildName, guildID string) {
	l.Info("left guild", "guild", guildName, "guild_id", guildID)
}

// CommandExecuted logs a successful command. An empty guildID marks a DM.
func (l *Logger) CommandExecuted(command, userTag, userID, guildName, guildID string) {
	l.Info("command executed", commandAttrs(command, userTag, userID, guildName, guildID)...)
}

// CommandError logs a failed command.
func (l *Logger) CommandError(command string, err error, userTag, userID, guildName, guildID string) {
	args := append(commandAttrs(command, userTag, userID, guildName, guildID), "error", err)
	l.Error("command failed", args...)
}

func commandAttrs(command, userTag, userID, guildName, guildID string) []any {
	args := []any{"command", command, "user", userTag, "user_id", userID}
	if guildID == "" {
		return append(args, "dm", true)
	}
	return append(args, "guild", guildName, "guild_id", guildID)
}

// ══════════════════════════════════════════════════════════════════════════════
// FAN-OUT HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// Fanout sends every record to each handler that accepts its level.
type Fanout struct {
	handlers []slog.Handler
}

// NewFanout creates a handler writing to all of handlers.
func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

// Enabled implements slog.Handler.
func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler.
func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler.
func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &Fanout{handlers: next}
}

// WithGroup implements slog.Handler.
func (f *Fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &Fanout{handlers: next}
}
