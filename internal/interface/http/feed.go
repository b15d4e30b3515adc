package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/afk-bro/discord-bot/internal/application/eventhandler"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIVE FEED
// WebSocket fan-out of progression events. Clients may subscribe to one guild
// with /ws?guild=<id>; events without a guild (weekly reset) reach everyone.
// ══════════════════════════════════════════════════════════════════════════════

const (
	feedSendBuffer   = 64
	feedWriteTimeout = 10 * time.Second
	feedPingInterval = 30 * time.Second
)

type feedClient struct {
	conn    *websocket.Conn
	guildID string
	send    chan []byte
	once    sync.Once
}

func (c *feedClient) close() {
	c.once.Do(func() { close(c.send) })
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(feedPingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks feed subscribers and broadcasts event envelopes to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*feedClient]bool
	closed   bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

var _ eventhandler.Broadcaster = (*Hub)(nil)

// NewHub creates a hub. allowedOrigins restricts browser origins; empty
// accepts any.
func NewHub(allowedOrigins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients: make(map[*feedClient]bool),
		logger:  logger.With("component", "live_feed"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	hosts := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && hosts[strings.ToLower(u.Host)]
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	c := &feedClient{
		conn:    conn,
		guildID: r.URL.Query().Get("guild"),
		send:    make(chan []byte, feedSendBuffer),
	}
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	h.logger.Info("feed client connected", "remote_addr", r.RemoteAddr, "guild_id", c.guildID)

	go c.writePump()
	go func() {
		defer func() {
			h.remove(c)
			h.logger.Info("feed client disconnected", "remote_addr", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) add(c *feedClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = true
	return true
}

func (h *Hub) remove(c *feedClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Broadcast sends the envelope to every subscriber of its guild. Slow
// subscribers are disconnected.
func (h *Hub) Broadcast(envelope shared.EventEnvelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("failed to marshal envelope", "event_type", envelope.Type, "error", err)
		return
	}
	guildID := envelopeGuild(envelope)

	// Sends happen under the read lock: remove and Close take the write lock
	// before closing a client's channel.
	var slow []*feedClient
	h.mu.RLock()
	for c := range h.clients {
		if c.guildID != "" && guildID != "" && c.guildID != guildID {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("feed client too slow, disconnecting", "guild_id", c.guildID)
		h.remove(c)
	}
}

// ClientCount returns the number of subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func envelopeGuild(envelope shared.EventEnvelope) string {
	var payload struct {
		GuildID string `json:"guild_id"`
	}
	if len(envelope.Payload) == 0 {
		return ""
	}
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return ""
	}
	return payload.GuildID
}

// handleFeed handles GET /ws.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.deps.Feed.ServeHTTP(w, r)
}
