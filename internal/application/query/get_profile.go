package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Карточка участника для команды rank: запись, титул, позиции в обоих окнах,
// прогресс до следующего уровня и активные бустеры.
// Запись не создаётся: для нового участника возвращается пустой профиль.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery содержит параметры запроса профиля.
type GetProfileQuery struct {
	UserID  string
	GuildID string
}

// Validate проверяет корректность параметров запроса.
func (q GetProfileQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if q.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	return nil
}

// ProfileDTO - профиль участника.
type ProfileDTO struct {
	// Record - копия записи (нулевая, если Found == false).
	Record *progression.Record `json:"record"`

	// Found - есть ли запись на сервере.
	Found bool `json:"found"`

	Title progression.Title `json:"title"`

	// Rank / WeeklyRank - позиции, 0 если записи нет.
	Rank       int `json:"rank"`
	WeeklyRank int `json:"weekly_rank"`

	// TotalMembers - участников с записью на сервере.
	TotalMembers int `json:"total_members"`

	// Progress - доля текущего уровня в [0, 1).
	Progress float64 `json:"progress"`

	// NextLevelXP - XP, нужный для следующего уровня.
	NextLevelXP int64 `json:"next_level_xp"`

	// Multiplier - текущий множитель с учётом бустеров.
	Multiplier float64 `json:"multiplier"`

	CanPrestige bool `json:"can_prestige"`

	// DailyAvailable - можно ли сейчас забрать ежедневный бонус.
	DailyAvailable bool          `json:"daily_available"`
	DailyTimeLeft  time.Duration `json:"daily_time_left,omitempty"`
}

// GetProfileHandler обрабатывает запросы профиля.
type GetProfileHandler struct {
	ledger progression.Ledger
	rules  progression.Rules
	weekly WeeklyResetChecker
	clock  timeutil.Clock
	logger *slog.Logger
}

// NewGetProfileHandler создаёт обработчик. weekly может быть nil.
func NewGetProfileHandler(
	ledger progression.Ledger,
	rules progression.Rules,
	weekly WeeklyResetChecker,
	clock timeutil.Clock,
	logger *slog.Logger,
) *GetProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetProfileHandler{
		ledger: ledger,
		rules:  rules,
		weekly: weekly,
		clock:  clock,
		logger: logger.With("handler", "get_profile"),
	}
}

// Handle выполняет запрос профиля.
func (h *GetProfileHandler) Handle(ctx context.Context, query GetProfileQuery) (*ProfileDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetProfile", shared.ErrValidation, err.Error(), err)
	}

	checkWeekly(ctx, h.weekly, h.logger)
	now := h.clock.Now()

	rec, found := h.ledger.View(query.UserID, query.GuildID)
	if !found {
		rec = progression.NewRecord(query.UserID, query.GuildID)
	}
	records := h.ledger.GuildRecords(query.GuildID)

	profile := &ProfileDTO{
		Record:       rec,
		Found:        found,
		Title:        progression.TitleFor(rec),
		Rank:         progression.RankOf(records, query.UserID, progression.WindowAllTime),
		WeeklyRank:   progression.RankOf(records, query.UserID, progression.WindowWeekly),
		TotalMembers: len(records),
		Progress:     h.rules.Curve.Progress(rec),
		NextLevelXP:  h.rules.Curve.ThresholdFor(rec.Level + 1),
		Multiplier:   progression.ActiveMultiplier(rec, now),
		CanPrestige:  rec.Level >= h.rules.PrestigeLevel,
	}

	elapsed := now.UnixMilli() - rec.LastDailyLogin
	window := h.rules.DailyWindow.Milliseconds()
	if elapsed >= window {
		profile.DailyAvailable = true
	} else {
		profile.DailyTimeLeft = time.Duration(window-elapsed) * time.Millisecond
	}

	return profile, nil
}
