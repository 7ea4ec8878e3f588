// Package realtime pushes lifecycle events to connected staff dashboards over WebSocket.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// Event is what a dashboard receives.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const EventTransition = "transition"

type connection struct {
	actor domain.Actor
	conn  *websocket.Conn
	send  chan []byte
}

// Hub fans events out to every connected staff member.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
	log         *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[*connection]struct{}),
		log:         slog.Default().With("component", "realtime"),
	}
}

// Follow broadcasts every transition m records.
func (h *Hub) Follow(m *metrics.Metrics) {
	m.OnTransition(func(t metrics.Transition) {
		h.Broadcast(&Event{Type: EventTransition, Payload: t})
	})
}

// Connected returns the number of open connections.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Broadcast queues event for every connection. Slow clients miss events rather than block.
func (h *Hub) Broadcast(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		select {
		case c.send <- data:
		default:
			h.log.Warn("dropping event for slow client", "uid", c.actor.UID, "type", event.Type)
		}
	}
}

// Serve registers conn and pumps events to it until the client goes away.
func (h *Hub) Serve(conn *websocket.Conn, actor domain.Actor) {
	c := &connection{
		actor: actor,
		conn:  conn,
		send:  make(chan []byte, 64),
	}
	h.register(c)
	h.log.Info("dashboard connected", "uid", actor.UID, "role", actor.Role)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only drains control frames; dashboards never send events.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.log.Info("dashboard disconnected", "uid", c.actor.UID)
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read", "uid", c.actor.UID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
