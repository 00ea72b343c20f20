package shell

import (
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/fluentlab/fluent-partner/internal/pipeline"
)

// client is one live shell connection. Writes funnel through a mutex because
// the pipeline notifier and the read loop both push frames.
type client struct {
	conn *websocket.Conn

	mu sync.Mutex
}

func (c *client) writeJSON(v any) error {
	payload, err := sonic.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *client) writePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub tracks the shell connection per session and relays pipeline state
// transitions to it, so the capture control disables the moment a traversal
// starts and re-enables when the session returns to idle.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*client
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*client)}
}

func (h *Hub) register(sessionID string, c *client) {
	h.mu.Lock()
	h.conns[sessionID] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(sessionID string, c *client) {
	h.mu.Lock()
	if h.conns[sessionID] == c {
		delete(h.conns, sessionID)
	}
	h.mu.Unlock()
}

// NotifyState implements pipeline.StateNotifier.
func (h *Hub) NotifyState(sessionID string, state pipeline.State) {
	h.mu.Lock()
	c := h.conns[sessionID]
	h.mu.Unlock()

	if c == nil {
		return
	}

	msg := outgoingMessage{
		Type:      "state",
		SessionID: sessionID,
		Data:      map[string]any{"state": string(state), "captureEnabled": state == pipeline.StateIdle},
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		log.Printf("[shell] state push failed session=%s: %v", sessionID, err)
	}
}
