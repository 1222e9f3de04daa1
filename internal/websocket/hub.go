package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message tells a user's open pages that one of their notes changed.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
	}
}

// Hub tracks connected clients per user and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	h.remove(c)
	h.mu.Unlock()
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// BroadcastTo sends msg to every client belonging to userID.
func (h *Hub) BroadcastTo(userID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the request.
		}
	}
}

// Disconnect drops every client belonging to userID.
func (h *Hub) Disconnect(userID int64) {
	h.disconnect(userID, func(*Client) bool { return true })
}

// DisconnectSession drops the clients userID opened under one session,
// identified by its token digest.
func (h *Hub) DisconnectSession(userID int64, tokenHash string) {
	h.disconnect(userID, func(c *Client) bool { return c.tokenHash == tokenHash })
}

func (h *Hub) disconnect(userID int64, match func(*Client) bool) {
	h.mu.Lock()
	var conns []*Client
	for c := range h.clients[userID] {
		if match(c) {
			conns = append(conns, c)
		}
	}
	for _, c := range conns {
		h.remove(c)
	}
	h.mu.Unlock()

	// Closing waits on the peer's close frame; keep that off the caller.
	for _, c := range conns {
		go c.close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
