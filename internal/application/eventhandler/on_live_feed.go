package eventhandler

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/afk-bro/discord-bot/config"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LIVE FEED HANDLER
// Пересылает события прогресса подписчикам websocket-ленты.
// Подписан на все события, поэтому фильтрует по типу.
// ═══════════════════════════════════════════════════════════════════════════

// Broadcaster рассылает конверт события всем подключённым клиентам.
type Broadcaster interface {
	Broadcast(envelope shared.EventEnvelope)
}

// liveFeedEvents - типы событий, попадающие в ленту.
var liveFeedEvents = map[shared.EventType]bool{
	shared.EventLevelUp:      true,
	shared.EventPrestige:     true,
	shared.EventDailyClaimed: true,
	shared.EventBoosterAdded: true,
	shared.EventWeeklyReset:  true,
}

// OnLiveFeedHandler публикует события в live-ленту.
type OnLiveFeedHandler struct {
	broadcaster Broadcaster
	features    FeatureChecker
	logger      *slog.Logger
}

// NewOnLiveFeedHandler создаёт обработчик. features может быть nil.
func NewOnLiveFeedHandler(broadcaster Broadcaster, features FeatureChecker, logger *slog.Logger) *OnLiveFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLiveFeedHandler{
		broadcaster: broadcaster,
		features:    features,
		logger:      logger.With("handler", "on_live_feed"),
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
func (h *OnLiveFeedHandler) Handle(event shared.Event) error {
	if !liveFeedEvents[event.EventType()] {
		return nil
	}

	guildID, _ := event.Payload()["guild_id"].(string)
	if h.features != nil && !h.features.IsEnabled(config.FeatureLiveFeed, guildID) {
		return nil
	}

	envelope, err := shared.NewEventEnvelope(uuid.NewString(), event)
	if err != nil {
		h.logger.Error("failed to encode event", "event_type", event.EventType(), "error", err)
		return err
	}

	h.broadcaster.Broadcast(envelope)
	return nil
}
