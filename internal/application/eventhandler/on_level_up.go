// Package eventhandler содержит обработчики доменных событий.
// Обработчики - реактивная часть системы: они подписаны на шину событий и
// запускают побочные эффекты (сообщения в канал, выдачу ролей, live-ленту).
// Ошибка побочного эффекта логируется и никогда не откатывает начисление XP.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/afk-bro/discord-bot/config"
	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Поздравляет участника в канале, где он получил уровень, и выдаёт роли
// за пройденные вехи (5, 10, 15, 20, 30, 50 по умолчанию).
// ═══════════════════════════════════════════════════════════════════════════

// LevelUpNotice - данные для поздравления.
type LevelUpNotice struct {
	GuildID     string
	ChannelID   string
	UserID      string
	OldLevel    int
	NewLevel    int
	TotalXP     int64
	CanPrestige bool
	Title       progression.Title

	// Roles - роли, выданные за вехи в этом событии.
	Roles []string
}

// Announcer отправляет поздравление в канал.
type Announcer interface {
	AnnounceLevelUp(ctx context.Context, notice LevelUpNotice) error
}

// RoleGranter выдаёт роль участнику.
type RoleGranter interface {
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
}

// FeatureChecker - проверка флагов функций для сервера.
type FeatureChecker interface {
	IsEnabled(featureName, guildID string) bool
}

// RecordViewer - чтение записи без создания.
type RecordViewer interface {
	View(userID, guildID string) (*progression.Record, bool)
}

// LevelUpConfig содержит конфигурацию обработчика.
type LevelUpConfig struct {
	// AnnounceLevels - поздравлять ли в канале.
	AnnounceLevels bool

	// MilestoneRoles - уровень вехи -> ID роли. Вехи без роли пропускаются.
	MilestoneRoles map[int]string

	// Timeout - ограничение на все вызовы Discord по одному событию.
	Timeout time.Duration
}

// OnLevelUpHandler обрабатывает событие повышения уровня.
type OnLevelUpHandler struct {
	records   RecordViewer
	announcer Announcer
	roles     RoleGranter
	features  FeatureChecker
	logger    *slog.Logger
	config    LevelUpConfig
}

// NewOnLevelUpHandler создаёт обработчик. features может быть nil - тогда все
// функции считаются включёнными.
func NewOnLevelUpHandler(
	records RecordViewer,
	announcer Announcer,
	roles RoleGranter,
	features FeatureChecker,
	logger *slog.Logger,
	cfg LevelUpConfig,
) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &OnLevelUpHandler{
		records:   records,
		announcer: announcer,
		roles:     roles,
		features:  features,
		logger:    logger.With("handler", "on_level_up"),
		config:    cfg,
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	levelUp, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.logger.Warn("received non-LevelUpEvent", "event_type", event.EventType())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("member leveled up",
		"guild_id", levelUp.GuildID,
		"user_id", levelUp.UserID,
		"old_level", levelUp.OldLevel,
		"new_level", levelUp.NewLevel,
		"milestones", levelUp.Milestones,
	)

	// 1. Роли за вехи выдаём первыми, чтобы упомянуть их в поздравлении
	granted := h.grantMilestoneRoles(ctx, levelUp)

	// 2. Поздравление в канале
	if !h.config.AnnounceLevels || levelUp.ChannelID == "" || h.announcer == nil {
		return nil
	}
	if !h.enabled(config.FeatureLevelUpAnnounce, levelUp.GuildID) {
		return nil
	}

	notice := LevelUpNotice{
		GuildID:     levelUp.GuildID,
		ChannelID:   levelUp.ChannelID,
		UserID:      levelUp.UserID,
		OldLevel:    levelUp.OldLevel,
		NewLevel:    levelUp.NewLevel,
		TotalXP:     levelUp.TotalXP,
		CanPrestige: levelUp.CanPrestige,
		Title:       h.titleOf(levelUp),
		Roles:       granted,
	}
	if err := h.announcer.AnnounceLevelUp(ctx, notice); err != nil {
		// Не возвращаем ошибку: XP уже начислен
		h.logger.Error("failed to announce level up",
			"guild_id", levelUp.GuildID,
			"channel_id", levelUp.ChannelID,
			"error", err,
		)
	}
	return nil
}

// grantMilestoneRoles выдаёт роли и возвращает ID успешно выданных.
func (h *OnLevelUpHandler) grantMilestoneRoles(ctx context.Context, ev shared.LevelUpEvent) []string {
	if h.roles == nil || len(ev.Milestones) == 0 || !h.enabled(config.FeatureMilestoneRoles, ev.GuildID) {
		return nil
	}

	var granted []string
	for _, milestone := range ev.Milestones {
		roleID := h.config.MilestoneRoles[milestone]
		if roleID == "" {
			continue
		}
		if err := h.roles.GrantRole(ctx, ev.GuildID, ev.UserID, roleID); err != nil {
			h.logger.Error("failed to grant milestone role",
				"guild_id", ev.GuildID,
				"user_id", ev.UserID,
				"milestone", milestone,
				"role_id", roleID,
				"error", err,
			)
			continue
		}
		granted = append(granted, roleID)
	}
	return granted
}

// titleOf возвращает титул по актуальной записи или по уровню из события.
func (h *OnLevelUpHandler) titleOf(ev shared.LevelUpEvent) progression.Title {
	if h.records != nil {
		if rec, ok := h.records.View(ev.UserID, ev.GuildID); ok {
			return progression.TitleFor(rec)
		}
	}
	return progression.TitleFor(&progression.Record{Level: ev.NewLevel})
}

func (h *OnLevelUpHandler) enabled(feature, guildID string) bool {
	return h.features == nil || h.features.IsEnabled(feature, guildID)
}
