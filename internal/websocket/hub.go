// Package websocket pushes change notifications to open dashboards so they
// reload after any member, task type or task mutation.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

type Entity string

const (
	EntityMember   Entity = "member"
	EntityTaskType Entity = "task_type"
	EntityTask     Entity = "task"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Message is one change notification. Type is "<entity>_<action>", or
// TypeResync with no entity.
type Message struct {
	Type   string `json:"type"`
	Entity Entity `json:"entity,omitempty"`
	Action Action `json:"action,omitempty"`
	ID     int64  `json:"id,omitempty"`
}

func NewMessage(entity Entity, action Action, id int64) Message {
	return Message{
		Type:   string(entity) + "_" + string(action),
		Entity: entity,
		Action: action,
		ID:     id,
	}
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "clients", n)
}

// Unregister removes a client and closes its send channel. Calling it twice
// is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Debug("client disconnected", "clients", n)
	}
}

// Notify broadcasts a change of one record.
func (h *Hub) Notify(entity Entity, action Action, id int64) {
	h.Broadcast(NewMessage(entity, action, id))
}

// Broadcast never blocks. A client whose buffer is full misses the message
// and is sent a resync once its buffer drains.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		if !c.enqueue(data) {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast dropped", "type", msg.Type, "clients", dropped)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
