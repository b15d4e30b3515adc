package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Handlers subscribe to these on the in-process bus.
const (
	// Progress events
	EventLevelUp      EventType = "progress.level_up"
	EventPrestige     EventType = "progress.prestige"
	EventDailyClaimed EventType = "progress.daily_claimed"
	EventBoosterAdded EventType = "progress.booster_added"

	// Leaderboard events
	EventWeeklyReset EventType = "leaderboard.weekly_reset"

	// Settings events
	EventSettingsChanged EventType = "settings.changed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LevelUpEvent is emitted when an XP award moves a member to a higher level.
type LevelUpEvent struct {
	BaseEvent
	GuildID     string `json:"guild_id"`
	UserID      string `json:"user_id"`
	ChannelID   string `json:"channel_id,omitempty"`
	OldLevel    int    `json:"old_level"`
	NewLevel    int    `json:"new_level"`
	TotalXP     int64  `json:"total_xp"`
	CanPrestige bool   `json:"can_prestige"`
	Milestones  []int  `json:"milestones,omitempty"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"guild_id":     e.GuildID,
		"user_id":      e.UserID,
		"channel_id":   e.ChannelID,
		"old_level":    e.OldLevel,
		"new_level":    e.NewLevel,
		"total_xp":     e.TotalXP,
		"can_prestige": e.CanPrestige,
		"milestones":   e.Milestones,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(guildID, userID string, oldLevel, newLevel int, totalXP int64, at time.Time) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, guildID+"-"+userID, at),
		GuildID:   guildID,
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// PrestigeEvent is emitted after a successful prestige reset.
type PrestigeEvent struct {
	BaseEvent
	GuildID     string `json:"guild_id"`
	UserID      string `json:"user_id"`
	OldPrestige int    `json:"old_prestige"`
	NewPrestige int    `json:"new_prestige"`
	RetainedXP  int64  `json:"retained_xp"`
	NewLevel    int    `json:"new_level"`
}

// Payload implements Event interface.
func (e PrestigeEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"guild_id":     e.GuildID,
		"user_id":      e.UserID,
		"old_prestige": e.OldPrestige,
		"new_prestige": e.NewPrestige,
		"retained_xp":  e.RetainedXP,
		"new_level":    e.NewLevel,
	}
}

// NewPrestigeEvent creates a new PrestigeEvent.
func NewPrestigeEvent(guildID, userID string, oldPrestige, newPrestige int, retainedXP int64, newLevel int, at time.Time) PrestigeEvent {
	return PrestigeEvent{
		BaseEvent:   NewBaseEvent(EventPrestige, guildID+"-"+userID, at),
		GuildID:     guildID,
		UserID:      userID,
		OldPrestige: oldPrestige,
		NewPrestige: newPrestige,
		RetainedXP:  retainedXP,
		NewLevel:    newLevel,
	}
}

// DailyClaimedEvent is emitted when a member claims the daily bonus.
type DailyClaimedEvent struct {
	BaseEvent
	GuildID   string `json:"guild_id"`
	UserID    string `json:"user_id"`
	XPGained  int64  `json:"xp_gained"`
	LeveledUp bool   `json:"leveled_up"`
	NewLevel  int    `json:"new_level"`
}

// Payload implements Event interface.
func (e DailyClaimedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"guild_id":   e.GuildID,
		"user_id":    e.UserID,
		"xp_gained":  e.XPGained,
		"leveled_up": e.LeveledUp,
		"new_level":  e.NewLevel,
	}
}

// NewDailyClaimedEvent creates a new DailyClaimedEvent.
func NewDailyClaimedEvent(guildID, userID string, xpGained int64, leveledUp bool, newLevel int, at time.Time) DailyClaimedEvent {
	return DailyClaimedEvent{
		BaseEvent: NewBaseEvent(EventDailyClaimed, guildID+"-"+userID, at),
		GuildID:   guildID,
		UserID:    userID,
		XPGained:  xpGained,
		LeveledUp: leveledUp,
		NewLevel:  newLevel,
	}
}

// BoosterAddedEvent is emitted when a booster is granted to a member.
type BoosterAddedEvent struct {
	BaseEvent
	GuildID    string    `json:"guild_id"`
	UserID     string    `json:"user_id"`
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Payload implements Event interface.
func (e BoosterAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"guild_id":   e.GuildID,
		"user_id":    e.UserID,
		"multiplier": e.Multiplier,
		"expires_at": e.ExpiresAt,
	}
}

// NewBoosterAddedEvent creates a new BoosterAddedEvent.
func NewBoosterAddedEvent(guildID, userID string, multiplier float64, expiresAt, at time.Time) BoosterAddedEvent {
	return BoosterAddedEvent{
		BaseEvent:  NewBaseEvent(EventBoosterAdded, guildID+"-"+userID, at),
		GuildID:    guildID,
		UserID:     userID,
		Multiplier: multiplier,
		ExpiresAt:  expiresAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// WeeklyResetEvent is emitted after weekly XP was zeroed on every record.
type WeeklyResetEvent struct {
	BaseEvent
	RecordsReset int `json:"records_reset"`
}

// Payload implements Event interface.
func (e WeeklyResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"records_reset": e.RecordsReset,
	}
}

// NewWeeklyResetEvent creates a new WeeklyResetEvent.
func NewWeeklyResetEvent(recordsReset int, at time.Time) WeeklyResetEvent {
	return WeeklyResetEvent{
		BaseEvent:    NewBaseEvent(EventWeeklyReset, "ledger", at),
		RecordsReset: recordsReset,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Settings Events
// ═══════════════════════════════════════════════════════════════════════════

// SettingsChangedEvent is emitted when a server setting is updated.
type SettingsChangedEvent struct {
	BaseEvent
	GuildID string `json:"guild_id"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// Payload implements Event interface.
func (e SettingsChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"guild_id": e.GuildID,
		"key":      e.Key,
		"value":    e.Value,
	}
}

// NewSettingsChangedEvent creates a new SettingsChangedEvent.
func NewSettingsChangedEvent(guildID, key, value string, at time.Time) SettingsChangedEvent {
	return SettingsChangedEvent{
		BaseEvent: NewBaseEvent(EventSettingsChanged, guildID, at),
		GuildID:   guildID,
		Key:       key,
		Value:     value,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope serializes the event payload into an envelope.
func NewEventEnvelope(id string, event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	env := EventEnvelope{
		ID:          id,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Payload:     payload,
	}
	if c, ok := event.(interface{ Correlation() string }); ok {
		env.CorrelationID = c.Correlation()
	}
	return env, nil
}

// Correlation returns the correlation id attached to the event.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
