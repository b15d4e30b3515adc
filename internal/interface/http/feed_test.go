package http

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

func TestHub_BroadcastWhileClientsLeave(t *testing.T) {
	hub := NewHub(nil, nil)
	envelope, err := shared.NewEventEnvelope("e1", shared.NewLevelUpEvent("g1", "u1", 1, 2, 200, now))
	require.NoError(t, err)

	clients := make([]*feedClient, 200)
	for i := range clients {
		clients[i] = &feedClient{guildID: "g1", send: make(chan []byte, 1)}
		require.True(t, hub.add(clients[i]))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hub.Broadcast(envelope)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, c := range clients {
			hub.remove(c)
		}
	}()

	assert.NotPanics(t, wg.Wait)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub(nil, nil)
	slow := &feedClient{guildID: "g1", send: make(chan []byte, 1)}
	other := &feedClient{guildID: "g2", send: make(chan []byte, 1)}
	require.True(t, hub.add(slow))
	require.True(t, hub.add(other))

	envelope, err := shared.NewEventEnvelope("e1", shared.NewLevelUpEvent("g1", "u1", 1, 2, 200, now))
	require.NoError(t, err)

	hub.Broadcast(envelope)
	assert.Equal(t, 2, hub.ClientCount())
	assert.Len(t, other.send, 0, "other guilds are filtered")

	hub.Broadcast(envelope)
	assert.Equal(t, 1, hub.ClientCount())

	_, open := <-slow.send
	assert.True(t, open, "buffered message is still delivered")
	_, open = <-slow.send
	assert.False(t, open)

	hub.Close()
	assert.False(t, hub.add(&feedClient{send: make(chan []byte, 1)}))
}
