// Package command contains write operations (CQRS - Commands).
// Every handler mutates the ledger through an acquired handle, releases it and
// persists the full snapshot before reporting success.
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
// AWARD XP COMMAND
// Awards XP for a chat message or voice activity. A member inside the cooldown
// window gets nothing and the call is a silent no-op.
// ══════════════════════════════════════════════════════════════════════════════

// AwardXPCommand contains the activity metadata of one inbound event.
type AwardXPCommand struct {
	// UserID is the platform user id.
	UserID string

	// GuildID is the server id.
	GuildID string

	// ChannelID is where the message was posted. Used for level-up announcements.
	ChannelID string

	// HasMedia is true when the message carried attachments.
	HasMedia bool

	// IsLongMessage is true for messages of at least the configured length.
	IsLongMessage bool

	// VoiceMinutes of voice activity (0 = none).
	VoiceMinutes int64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	if c.VoiceMinutes < 0 {
		return shared.NewDomainError("progression", "AwardXP", shared.ErrNegativeValue, "voice minutes cannot be negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AwardXPHandler handles the AwardXPCommand.
type AwardXPHandler struct {
	ledger    progression.Ledger
	rules     progression.Rules
	cooldowns *progression.Cooldowns
	random    progression.RandomSource
	clock     timeutil.Clock
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewAwardXPHandler creates a new AwardXPHandler.
// A nil random source falls back to progression.SystemRandom.
func NewAwardXPHandler(
	ledger progression.Ledger,
	rules progression.Rules,
	cooldowns *progression.Cooldowns,
	random progression.RandomSource,
	clock timeutil.Clock,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *AwardXPHandler {
	if random == nil {
		random = progression.SystemRandom{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AwardXPHandler{
		ledger:    ledger,
		rules:     rules,
		cooldowns: cooldowns,
		random:    random,
		clock:     clock,
		publisher: publisher,
		logger:    logger.With("handler", "award_xp"),
	}
}

// Handle awards XP. It returns (nil, nil) while the member's cooldown is active.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*progression.AwardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("award_xp: validation failed: %w", err)
	}

	now := h.clock.Now()
	if !h.cooldowns.TryStart(progression.Key(cmd.UserID, cmd.GuildID), now) {
		return nil, nil
	}

	handle := h.ledger.Acquire(cmd.UserID, cmd.GuildID)
	result := h.rules.Award(handle.Record(), progression.AwardContext{
		HasMedia:      cmd.HasMedia,
		IsLongMessage: cmd.IsLongMessage,
		VoiceMinutes:  cmd.VoiceMinutes,
	}, h.random, now)
	handle.Release()

	if err := h.ledger.Persist(ctx); err != nil {
		return nil, fmt.Errorf("award_xp: failed to persist: %w", err)
	}

	if result.LeveledUp {
		event := shared.NewLevelUpEvent(cmd.GuildID, cmd.UserID, result.OldLevel, result.NewLevel, result.TotalXP, now)
		event.ChannelID = cmd.ChannelID
		event.CanPrestige = result.CanPrestige
		event.Milestones = result.Milestones
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		publish(h.publisher, h.logger, event)
	}

	return &result, nil
}

// publish delivers an event; a delivery failure never fails the command.
func publish(publisher shared.EventPublisher, logger *slog.Logger, event shared.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(event); err != nil {
		logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
