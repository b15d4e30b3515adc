// Package jobs contains the bot's scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afk-bro/discord-bot/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY RESET JOB
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyResetChecker runs the weekly reset rule.
type WeeklyResetChecker interface {
	Check(ctx context.Context) (*command.WeeklyResetResult, error)
}

// WeeklyResetJob periodically checks whether weekly XP should be zeroed.
// The check itself decides if the reset is due, so the job can run as often
// as needed without resetting twice in one week.
type WeeklyResetJob struct {
	checker WeeklyResetChecker
	logger  *slog.Logger
}

// NewWeeklyResetJob creates a new weekly reset job.
func NewWeeklyResetJob(checker WeeklyResetChecker, logger *slog.Logger) *WeeklyResetJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyResetJob{checker: checker, logger: logger.With("job", "weekly_reset")}
}

// Name returns the job name.
func (j *WeeklyResetJob) Name() string {
	return "weekly_reset"
}

// Description returns a human-readable description.
func (j *WeeklyResetJob) Description() string {
	return "Zeroes weekly XP once per week on the configured reset day"
}

// Run executes the check.
func (j *WeeklyResetJob) Run(ctx context.Context) error {
	result, err := j.checker.Check(ctx)
	if err != nil {
		return fmt.Errorf("weekly reset check: %w", err)
	}
	if result.Reset {
		j.logger.Info("weekly leaderboard reset",
			"records_reset", result.RecordsReset,
			"at", result.LastReset,
		)
	}
	return nil
}
