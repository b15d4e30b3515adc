package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY RESET
// Cooperative check: zeroes weekly XP when today is the reset day and at least
// one interval passed since the last reset. Triggered on startup, by the
// scheduler and lazily before weekly leaderboard reads.
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyResetResult describes one check.
type WeeklyResetResult struct {
	// Reset is true when the reset fired.
	Reset bool

	// RecordsReset is the number of records whose weekly XP was non-zero.
	RecordsReset int

	// LastReset is the reset time in effect after the check.
	LastReset time.Time
}

// WeeklyResetHandler runs the weekly reset rule.
type WeeklyResetHandler struct {
	ledger    progression.Ledger
	rules     progression.Rules
	clock     timeutil.Clock
	publisher shared.EventPublisher
	logger    *slog.Logger

	// mu serializes checks so two callers cannot both see the reset as due.
	mu sync.Mutex
}

// NewWeeklyResetHandler creates a new WeeklyResetHandler.
func NewWeeklyResetHandler(
	ledger progression.Ledger,
	rules progression.Rules,
	clock timeutil.Clock,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *WeeklyResetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyResetHandler{
		ledger:    ledger,
		rules:     rules,
		clock:     clock,
		publisher: publisher,
		logger:    logger.With("handler", "weekly_reset"),
	}
}

// Check applies the reset if it is due.
func (h *WeeklyResetHandler) Check(ctx context.Context) (*WeeklyResetResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	last := h.ledger.LastWeeklyReset()
	if !h.rules.WeeklyResetDue(now, last) {
		return &WeeklyResetResult{LastReset: timeutil.FromMillis(last, now.Location())}, nil
	}

	n, err := h.ledger.ResetWeekly(ctx, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("weekly_reset: failed to persist: %w", err)
	}

	h.logger.Info("weekly xp reset", "records_reset", n, "previous_reset", last)
	publish(h.publisher, h.logger, shared.NewWeeklyResetEvent(n, now))

	return &WeeklyResetResult{Reset: true, RecordsReset: n, LastReset: now}, nil
}

// CheckWeeklyReset is Check without the result, for callers that only need
// the side effect.
func (h *WeeklyResetHandler) CheckWeeklyReset(ctx context.Context) error {
	_, err := h.Check(ctx)
	return err
}
