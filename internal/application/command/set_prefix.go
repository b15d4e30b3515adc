package command

import (
	"context"
	"fmt"

	"github.com/afk-bro/discord-bot/internal/domain/settings"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET PREFIX COMMAND
// Changes the text-command prefix of a server. Administrators only.
// ══════════════════════════════════════════════════════════════════════════════

// SettingsWriter is the part of the settings service this command needs.
type SettingsWriter interface {
	Prefix(ctx context.Context, guildID string) string
	Set(ctx context.Context, guildID, key, value string) (*settings.ServerSettings, error)
}

// SetPrefixCommand contains the new prefix.
type SetPrefixCommand struct {
	GuildID string
	UserID  string

	// IsAdmin is resolved by the caller from member permissions.
	IsAdmin bool

	// Prefix is the new prefix. Empty means "show the current one".
	Prefix string
}

// Validate validates the command.
func (c SetPrefixCommand) Validate() error {
	if c.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	if !c.IsAdmin {
		return shared.ErrForbidden
	}
	return nil
}

// SetPrefixResult reports the prefix in effect.
type SetPrefixResult struct {
	// Changed is false when no prefix was given.
	Changed bool

	// Prefix in effect after the command.
	Prefix string
}

// SetPrefixHandler handles the SetPrefixCommand.
type SetPrefixHandler struct {
	settings SettingsWriter
}

// NewSetPrefixHandler creates a new SetPrefixHandler.
func NewSetPrefixHandler(settings SettingsWriter) *SetPrefixHandler {
	return &SetPrefixHandler{settings: settings}
}

// Handle stores the prefix. Errors are shared.ErrForbidden for non-admins and
// shared.ErrInvalidPrefix for rejected prefixes.
func (h *SetPrefixHandler) Handle(ctx context.Context, cmd SetPrefixCommand) (*SetPrefixResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("set_prefix: %w", err)
	}

	if cmd.Prefix == "" {
		return &SetPrefixResult{Prefix: h.settings.Prefix(ctx, cmd.GuildID)}, nil
	}

	updated, err := h.settings.Set(ctx, cmd.GuildID, settings.KeyPrefix, cmd.Prefix)
	if err != nil {
		return nil, fmt.Errorf("set_prefix: %w", err)
	}
	return &SetPrefixResult{Changed: true, Prefix: updated.Prefix}, nil
}
