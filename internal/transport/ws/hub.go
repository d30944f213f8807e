package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-webpush/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

// Hub tracks connected dashboard clients and multicasts widget events to
// them. It satisfies broadcaster.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  logger.Logger
}

var _ broadcaster.Broadcaster = (*Hub)(nil)

func NewHub(l logger.Logger) *Hub {
	if l == nil {
		l = &logger.Nop{}
	}
	return &Hub{clients: make(map[*Client]struct{}), logger: l}
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("ws client attached", "remote", c.remote, "clients", total)
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
		h.logger.Debug("ws client detached", "remote", c.remote)
	}
}

// Len returns the number of attached clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues the event on every client. Clients with a full buffer
// are dropped.
func (h *Hub) Broadcast(ctx context.Context, event broadcaster.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			h.logger.Warn("ws send buffer full", "remote", c.remote)
			go h.detach(c)
		}
	}
	return nil
}

// Close detaches every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}
