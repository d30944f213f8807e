package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-webpush/internal/commands"
	"github.com/goliatone/go-webpush/pkg/domain"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 1 << 16
)

// ErrIntentNotAllowed is reported to clients sending an intent they may not use.
var ErrIntentNotAllowed = errors.New("ws: topic not accepted from websocket clients")

// CommandHandler processes a command read from a client.
type CommandHandler func(ctx context.Context, cmd commands.Command) (commands.Response, error)

// Reply is written back to the client that sent a command.
type Reply struct {
	Topic     string   `json:"topic"`
	CommandID string   `json:"command_id,omitempty"`
	Intent    string   `json:"intent,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	remote    string
	handler   CommandHandler
	allow     func(domain.Intent) bool
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func newClient(hub *Hub, conn *websocket.Conn, buf int, handler CommandHandler, allow func(domain.Intent) bool) *Client {
	if allow == nil {
		allow = domain.Intent.FromBrowser
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, buf),
		remote:  conn.RemoteAddr().String(),
		handler: handler,
		allow:   allow,
	}
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.logger.Warn("ws write error", "remote", c.remote, "error", err)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.hub.detach(c)
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd commands.Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Warn("ws read error", "remote", c.remote, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.reply(c.process(ctx, cmd))
	}
}

func (c *Client) process(ctx context.Context, cmd commands.Command) Reply {
	if c.handler == nil {
		return Reply{Topic: "error", Error: "commands are not accepted"}
	}
	if intent := cmd.Intent(); !c.allow(intent) {
		c.hub.logger.Warn("ws command refused", "remote", c.remote, "topic", cmd.Topic)
		return Reply{Topic: "error", CommandID: cmd.ID, Intent: string(intent), Error: fmt.Errorf("%w: %q", ErrIntentNotAllowed, cmd.Topic).Error()}
	}
	resp, err := c.handler(ctx, cmd)
	reply := Reply{Topic: "ack", CommandID: resp.CommandID, Intent: string(resp.Intent)}
	for _, w := range resp.Warnings {
		reply.Warnings = append(reply.Warnings, w.String())
	}
	if err != nil {
		reply.Topic = "error"
		reply.Error = err.Error()
	}
	return reply
}

func (c *Client) reply(r Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		go c.hub.detach(c)
	}
}
