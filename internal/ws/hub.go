// Package ws pushes platform events to connected websocket clients: round
// outcomes, settlements, confirmed deposits. The feed is broadcast-only;
// client frames are read and discarded to keep the connection alive.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"stakehouse/internal/logger"
)

type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Frame is one feed message: a type tag plus the event payload.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// BroadcastJSON sends one frame to every client. A client whose write fails
// is dropped; it reconnects or it stays gone.
func (h *Hub) BroadcastJSON(frameType string, data any) {
	raw, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		logger.Log.Error("feed frame marshal failed",
			zap.String("type", frameType), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
			delete(h.clients, c)
			c.Close()
		}
	}
}

func (h *Hub) Handler(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
