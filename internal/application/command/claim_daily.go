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
// CLAIM DAILY COMMAND
// Grants the flat daily bonus once per window. A claim inside the window is a
// normal negative result carrying the time left.
// ══════════════════════════════════════════════════════════════════════════════

// ClaimDailyCommand identifies the claiming member.
type ClaimDailyCommand struct {
	UserID  string
	GuildID string
}

// Validate validates the command.
func (c ClaimDailyCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	return nil
}

// ClaimDailyHandler handles the ClaimDailyCommand.
type ClaimDailyHandler struct {
	ledger    progression.Ledger
	rules     progression.Rules
	clock     timeutil.Clock
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewClaimDailyHandler creates a new ClaimDailyHandler.
func NewClaimDailyHandler(
	ledger progression.Ledger,
	rules progression.Rules,
	clock timeutil.Clock,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *ClaimDailyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimDailyHandler{
		ledger:    ledger,
		rules:     rules,
		clock:     clock,
		publisher: publisher,
		logger:    logger.With("handler", "claim_daily"),
	}
}

// Handle claims the daily bonus. Nothing is persisted when the claim is refused.
func (h *ClaimDailyHandler) Handle(ctx context.Context, cmd ClaimDailyCommand) (*progression.DailyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("claim_daily: validation failed: %w", err)
	}

	now := h.clock.Now()
	handle := h.ledger.Acquire(cmd.UserID, cmd.GuildID)
	result := h.rules.ClaimDaily(handle.Record(), now)
	created := handle.Created()
	handle.Release()

	if !result.Claimed && !created {
		return &result, nil
	}

	if err := h.ledger.Persist(ctx); err != nil {
		return nil, fmt.Errorf("claim_daily: failed to persist: %w", err)
	}

	if result.Claimed {
		publish(h.publisher, h.logger, shared.NewDailyClaimedEvent(
			cmd.GuildID, cmd.UserID, result.XPGained, result.LeveledUp, result.NewLevel, now,
		))
	}
	return &result, nil
}
