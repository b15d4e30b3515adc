// Package query contains read operations following CQRS pattern.
// Queries never modify records - they only read copies from the ledger.
// The one exception is the lazy weekly reset check before weekly reads.
package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N участников сервера за всё время или за неделю.
// Порядок стабилен: при равенстве ключей выигрывает более ранняя запись.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultLeaderboardLimit - размер лидерборда по умолчанию.
	DefaultLeaderboardLimit = 10

	// MaxLeaderboardLimit - максимальный размер лидерборда.
	MaxLeaderboardLimit = 100
)

// WeeklyResetChecker - ленивая проверка недельного сброса перед чтением.
type WeeklyResetChecker interface {
	CheckWeeklyReset(ctx context.Context) error
}

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// GuildID - сервер.
	GuildID string

	// Limit - количество записей. Ноль означает 10, больше 100 урезается
	// до 100. HTTP отклоняет такие значения раньше.
	Limit int

	// Weekly - сортировать по недельному XP.
	Weekly bool
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultLeaderboardLimit
	}
	if q.Limit > MaxLeaderboardLimit {
		q.Limit = MaxLeaderboardLimit
	}
	return nil
}

// LeaderboardEntryDTO - строка лидерборда.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	UserID   string `json:"user_id"`
	Level    int    `json:"level"`
	XP       int64  `json:"xp"`
	TotalXP  int64  `json:"total_xp"`
	WeeklyXP int64  `json:"weekly_xp"`
	Prestige int    `json:"prestige"`
	Messages int64  `json:"messages"`

	// Score - ключ сортировки в выбранном окне.
	Score int64 `json:"score"`

	// Title - титул участника.
	Title progression.Title `json:"title"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	GuildID string             `json:"guild_id"`
	Window  progression.Window `json:"window"`

	// Entries - записи лидерборда, не длиннее Limit.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalCount - количество участников сервера с записью.
	TotalCount int `json:"total_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запросы лидерборда.
type GetLeaderboardHandler struct {
	ledger progression.Ledger
	weekly WeeklyResetChecker
	clock  timeutil.Clock
	logger *slog.Logger
}

// NewGetLeaderboardHandler создаёт обработчик. weekly может быть nil.
func NewGetLeaderboardHandler(
	ledger progression.Ledger,
	weekly WeeklyResetChecker,
	clock timeutil.Clock,
	logger *slog.Logger,
) *GetLeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetLeaderboardHandler{
		ledger: ledger,
		weekly: weekly,
		clock:  clock,
		logger: logger.With("handler", "get_leaderboard"),
	}
}

// Handle выполняет запрос лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	if query.Weekly {
		checkWeekly(ctx, h.weekly, h.logger)
	}

	window := progression.WindowOf(query.Weekly)
	records := h.ledger.GuildRecords(query.GuildID)
	top := progression.Top(records, window, query.Limit)

	entries := make([]LeaderboardEntryDTO, 0, len(top))
	for i, rec := range top {
		entries = append(entries, toEntryDTO(i+1, rec, window))
	}

	return &GetLeaderboardResult{
		GuildID:     query.GuildID,
		Window:      window,
		Entries:     entries,
		TotalCount:  len(records),
		GeneratedAt: h.clock.Now(),
	}, nil
}

func toEntryDTO(rank int, rec *progression.Record, window progression.Window) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		Rank:     rank,
		UserID:   rec.UserID,
		Level:    rec.Level,
		XP:       rec.XP,
		TotalXP:  rec.TotalXP,
		WeeklyXP: rec.WeeklyXP,
		Prestige: rec.Prestige,
		Messages: rec.Messages,
		Score:    progression.RankKey(rec, window),
		Title:    progression.TitleFor(rec),
	}
}

// checkWeekly запускает ленивый недельный сброс. Ошибка сохранения не мешает
// чтению: сброс уже применён в памяти.
func checkWeekly(ctx context.Context, checker WeeklyResetChecker, logger *slog.Logger) {
	if checker == nil {
		return
	}
	if err := checker.CheckWeeklyReset(ctx); err != nil {
		logger.Warn("weekly reset check failed", "error", err)
	}
}
