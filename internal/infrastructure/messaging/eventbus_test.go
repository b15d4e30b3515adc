package messaging

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

var at = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{EnableMetrics: true})
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := syncBus()
	var levelUps, all int
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error { levelUps++; return nil }))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error { all++; return nil }))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("g1", "u1", 1, 2, 400, at)))
	require.NoError(t, bus.Publish(shared.NewWeeklyResetEvent(3, at)))

	assert.Equal(t, 1, levelUps)
	assert.Equal(t, 2, all)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(3), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := syncBus()
	called := false
	require.NoError(t, bus.Subscribe(shared.EventPrestige, func(e shared.Event) error { panic("boom") }))
	require.NoError(t, bus.Subscribe(shared.EventPrestige, func(e shared.Event) error { called = true; return nil }))

	err := bus.Publish(shared.NewPrestigeEvent("g1", "u1", 0, 1, 100, 3, at))

	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, int64(1), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_AsyncCloseWaits(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})
	var done atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		time.Sleep(10 * time.Millisecond)
		done.Add(1)
		return nil
	}))

	for i := 0; i < 4; i++ {
		require.NoError(t, bus.Publish(shared.NewWeeklyResetEvent(i, at)))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(4), done.Load())
	assert.ErrorIs(t, bus.Publish(shared.NewWeeklyResetEvent(0, at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(e shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestDispatcher_MiddlewareAndDeadLetters(t *testing.T) {
	bus := syncBus()
	d := NewDispatcher(bus, 2, nil)
	var order []string
	d.Use(func(next shared.EventHandler) shared.EventHandler {
		return func(e shared.Event) error { order = append(order, "outer"); return next(e) }
	})
	d.Use(RecoveryMiddleware(d.logger))
	d.Use(LoggingMiddleware(d.logger))

	require.NoError(t, d.Register(shared.EventLevelUp, "announce", func(e shared.Event) error {
		order = append(order, "handler")
		return errors.New("discord down")
	}))
	require.NoError(t, d.RegisterAll("feed", func(e shared.Event) error { panic("nil broadcaster") }))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("g1", "u1", 1, 2, 400, at)))

	assert.Equal(t, []string{"outer", "handler", "outer"}, order)
	entries := d.DeadLetterQueue().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "announce", entries[0].Handler)
	assert.Equal(t, "discord down", entries[0].Error)
	assert.Equal(t, "feed", entries[1].Handler)
	assert.Contains(t, entries[1].Error, ErrHandlerPanic.Error())
}

func TestDeadLetterQueue_DropsOldest(t *testing.T) {
	q := NewDeadLetterQueue(2)
	q.Add(DeadLetterEntry{Handler: "a"})
	q.Add(DeadLetterEntry{Handler: "b"})
	q.Add(DeadLetterEntry{Handler: "c"})

	assert.Equal(t, 2, q.Size())
	assert.Equal(t, "b", q.Entries()[0].Handler)
}
