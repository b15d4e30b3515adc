package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/afk-bro/discord-bot/internal/application/command"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// SettingsHandler serves the server configuration commands.
type SettingsHandler struct {
	setPrefix        *command.SetPrefixHandler
	permissionDenied string
}

// NewSettingsHandler creates a SettingsHandler. permissionDenied is the reply
// for members without administrator rights.
func NewSettingsHandler(setPrefix *command.SetPrefixHandler, permissionDenied string) *SettingsHandler {
	return &SettingsHandler{setPrefix: setPrefix, permissionDenied: permissionDenied}
}

// SetPrefix handles "setprefix [prefix]".
func (h *SettingsHandler) SetPrefix(ctx context.Context, c *Context) (*Response, error) {
	if !c.InGuild() {
		return Ephemeral(guildOnlyMessage), nil
	}

	res, err := h.setPrefix.Handle(ctx, command.SetPrefixCommand{
		GuildID: c.GuildID,
		UserID:  c.UserID,
		IsAdmin: c.IsAdmin,
		Prefix:  c.Word("prefix", 0),
	})
	switch {
	case errors.Is(err, shared.ErrForbidden):
		return Ephemeral(h.permissionDenied), nil
	case errors.Is(err, shared.ErrInvalidPrefix):
		return Ephemeral("❌ A prefix must be 1 to 5 characters without spaces."), nil
	case err != nil:
		return nil, fmt.Errorf("setprefix: %w", err)
	}

	if !res.Changed {
		return Text(fmt.Sprintf("Current prefix: `%s`\nUsage: %ssetprefix <new_prefix>", res.Prefix, res.Prefix)), nil
	}
	return Text(fmt.Sprintf("✅ Prefix updated to `%s`", res.Prefix)), nil
}
