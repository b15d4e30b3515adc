package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESTIGE COMMAND
// Trades a max-level record for a higher prestige rank, keeping a fraction of
// total XP. Below the prestige level the record is left untouched.
// ══════════════════════════════════════════════════════════════════════════════

// PrestigeCommand identifies the member.
type PrestigeCommand struct {
	UserID  string
	GuildID string
}

// Validate validates the command.
func (c PrestigeCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	return nil
}

// PrestigeHandler handles the PrestigeCommand.
type PrestigeHandler struct {
	ledger    progression.Ledger
	rules     progression.Rules
	clock     timeutil.Clock
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewPrestigeHandler creates a new PrestigeHandler.
func NewPrestigeHandler(
	ledger progression.Ledger,
	rules progression.Rules,
	clock timeutil.Clock,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *PrestigeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrestigeHandler{
		ledger:    ledger,
		rules:     rules,
		clock:     clock,
		publisher: publisher,
		logger:    logger.With("handler", "prestige"),
	}
}

// Handle performs the prestige transition.
func (h *PrestigeHandler) Handle(ctx context.Context, cmd PrestigeCommand) (*progression.PrestigeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("prestige: validation failed: %w", err)
	}

	handle := h.ledger.Acquire(cmd.UserID, cmd.GuildID)
	result := h.rules.Prestige(handle.Record())
	created := handle.Created()
	handle.Release()

	if !result.Success && !created {
		return &result, nil
	}

	if err := h.ledger.Persist(ctx); err != nil {
		return nil, fmt.Errorf("prestige: failed to persist: %w", err)
	}

	if result.Success {
		h.logger.Info("member prestiged",
			"guild_id", cmd.GuildID,
			"user_id", cmd.UserID,
			"prestige", result.NewPrestige,
			"retained_xp", result.RetainedXP,
		)
		publish(h.publisher, h.logger, shared.NewPrestigeEvent(
			cmd.GuildID, cmd.UserID, result.OldPrestige, result.NewPrestige, result.RetainedXP, result.NewLevel, h.clock.Now(),
		))
	}
	return &result, nil
}
