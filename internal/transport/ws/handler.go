package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-webpush/pkg/domain"
)

// Handler upgrades requests and serves the client until it disconnects.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	handler  CommandHandler
	allow    func(domain.Intent) bool
	buffer   int
}

// HandlerOption customises the websocket handler.
type HandlerOption func(*Handler)

// WithCheckOrigin overrides the upgrader origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// WithIntents replaces the filter deciding which intents clients may send.
// By default only subscription changes are accepted.
func WithIntents(allow func(domain.Intent) bool) HandlerOption {
	return func(h *Handler) {
		if allow != nil {
			h.allow = allow
		}
	}
}

// WithBuffer sets the per-client send buffer.
func WithBuffer(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func NewHandler(hub *Hub, handler CommandHandler, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:     hub,
		handler: handler,
		allow:   domain.Intent.FromBrowser,
		buffer:  32,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	client := newClient(h.hub, conn, h.buffer, h.handler, h.allow)
	h.hub.attach(client)

	go client.writePump()
	client.readPump(context.WithoutCancel(r.Context()))
}
