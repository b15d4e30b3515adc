package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// Sweeper drops in-memory entries that already expired.
type Sweeper interface {
	Sweep(now time.Time) int
	Len() int
}

// SweepCooldownsJob keeps the XP cooldown map and the command rate limiter
// from growing with every member who ever posted.
type SweepCooldownsJob struct {
	sweepers map[string]Sweeper
	clock    timeutil.Clock
	logger   *slog.Logger
}

// NewSweepCooldownsJob creates a new sweep job over named sweepers.
func NewSweepCooldownsJob(sweepers map[string]Sweeper, clock timeutil.Clock, logger *slog.Logger) *SweepCooldownsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepCooldownsJob{
		sweepers: sweepers,
		clock:    clock,
		logger:   logger.With("job", "sweep_cooldowns"),
	}
}

func (j *SweepCooldownsJob) Name() string { return "sweep_cooldowns" }

func (j *SweepCooldownsJob) Description() string {
	return "Removes expired XP cooldowns and idle rate limit buckets"
}

// Run executes the sweep.
func (j *SweepCooldownsJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := j.clock.Now()
	for name, s := range j.sweepers {
		if removed := s.Sweep(now); removed > 0 {
			j.logger.Debug("entries swept", "sweeper", name, "removed", removed, "remaining", s.Len())
		}
	}
	return nil
}
