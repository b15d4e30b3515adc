package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD BOOSTER COMMAND
// Grants a temporary XP multiplier. Expired boosters are pruned lazily on the
// next award, never by a timer.
// ══════════════════════════════════════════════════════════════════════════════

// MaxBoosterMinutes caps the duration of a single booster (30 days).
const MaxBoosterMinutes = 30 * 24 * 60

// MaxBoosterDuration is MaxBoosterMinutes as a duration.
const MaxBoosterDuration = MaxBoosterMinutes * time.Minute

// AddBoosterCommand contains the booster parameters.
type AddBoosterCommand struct {
	UserID  string
	GuildID string

	// Multiplier is added on top of the base 1.0.
	Multiplier float64

	// Duration of the booster. Zero means the configured default.
	Duration time.Duration

	// GrantedBy is the admin who issued the booster, for audit logs.
	GrantedBy string
}

// Validate validates the command.
func (c AddBoosterCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	if c.Duration < 0 {
		return shared.NewDomainError("progression", "AddBooster", shared.ErrNegativeValue, "duration cannot be negative")
	}
	if c.Duration > MaxBoosterDuration {
		return shared.NewDomainError("progression", "AddBooster", shared.ErrInvalidBooster, "duration exceeds 30 days")
	}
	return nil
}

// AddBoosterHandler handles the AddBoosterCommand.
type AddBoosterHandler struct {
	ledger    progression.Ledger
	rules     progression.Rules
	clock     timeutil.Clock
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewAddBoosterHandler creates a new AddBoosterHandler.
func NewAddBoosterHandler(
	ledger progression.Ledger,
	rules progression.Rules,
	clock timeutil.Clock,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *AddBoosterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddBoosterHandler{
		ledger:    ledger,
		rules:     rules,
		clock:     clock,
		publisher: publisher,
		logger:    logger.With("handler", "add_booster"),
	}
}

// Handle adds the booster and persists.
func (h *AddBoosterHandler) Handle(ctx context.Context, cmd AddBoosterCommand) (*progression.Booster, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_booster: validation failed: %w", err)
	}

	now := h.clock.Now()
	handle := h.ledger.Acquire(cmd.UserID, cmd.GuildID)
	booster, err := h.rules.AddBooster(handle.Record(), cmd.Multiplier, cmd.Duration, now)
	handle.Release()
	if err != nil {
		return nil, fmt.Errorf("add_booster: %w", err)
	}

	if err := h.ledger.Persist(ctx); err != nil {
		return nil, fmt.Errorf("add_booster: failed to persist: %w", err)
	}

	expiresAt := time.UnixMilli(booster.ExpiresAt).In(now.Location())
	h.logger.Info("booster added",
		"guild_id", cmd.GuildID,
		"user_id", cmd.UserID,
		"multiplier", booster.Multiplier,
		"expires_at", expiresAt,
		"granted_by", cmd.GrantedBy,
	)
	publish(h.publisher, h.logger, shared.NewBoosterAddedEvent(cmd.GuildID, cmd.UserID, booster.Multiplier, expiresAt, now))

	return &booster, nil
}
