package query

import (
	"context"
	"log/slog"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK QUERY
// Позиция участника в рейтинге сервера. 0 - записи нет.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserRankQuery содержит параметры запроса позиции.
type GetUserRankQuery struct {
	UserID  string
	GuildID string

	// Weekly - позиция в недельном рейтинге.
	Weekly bool
}

// Validate проверяет корректность параметров запроса.
func (q GetUserRankQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if q.GuildID == "" {
		return shared.ErrInvalidGuildID
	}
	return nil
}

// GetUserRankResult - позиция участника.
type GetUserRankResult struct {
	// Rank - позиция (с 1), 0 если записи нет.
	Rank int `json:"rank"`

	// Found - есть ли у участника запись на сервере.
	Found bool `json:"found"`

	// TotalCount - размер рейтинга.
	TotalCount int `json:"total_count"`

	Window progression.Window `json:"window"`
}

// GetUserRankHandler обрабатывает запросы позиции.
type GetUserRankHandler struct {
	ledger progression.Ledger
	weekly WeeklyResetChecker
	logger *slog.Logger
}

// NewGetUserRankHandler создаёт обработчик. weekly может быть nil.
func NewGetUserRankHandler(ledger progression.Ledger, weekly WeeklyResetChecker, logger *slog.Logger) *GetUserRankHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetUserRankHandler{
		ledger: ledger,
		weekly: weekly,
		logger: logger.With("handler", "get_user_rank"),
	}
}

// Handle выполняет запрос позиции.
func (h *GetUserRankHandler) Handle(ctx context.Context, query GetUserRankQuery) (*GetUserRankResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetUserRank", shared.ErrValidation, err.Error(), err)
	}

	if query.Weekly {
		checkWeekly(ctx, h.weekly, h.logger)
	}

	window := progression.WindowOf(query.Weekly)
	records := h.ledger.GuildRecords(query.GuildID)
	rank := progression.RankOf(records, query.UserID, window)

	return &GetUserRankResult{
		Rank:       rank,
		Found:      rank > 0,
		TotalCount: len(records),
		Window:     window,
	}, nil
}
