package broadcaster

import "context"

// Topics published toward the dashboard frontend.
const (
	TopicStatus               = "status"
	TopicReloadServiceWorkers = "reload_service_workers"
	TopicFetchSubscriptions   = "fetch_subscriptions"
)

// Event carries widget updates destined for real-time transports.
type Event struct {
	Topic    string `json:"topic"`
	WidgetID string `json:"widget_id,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Broadcaster pushes events to WebSocket/SSE transports.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Nop broadcaster discards events.
type Nop struct{}

var _ Broadcaster = (*Nop)(nil)

func (n *Nop) Broadcast(ctx context.Context, event Event) error { return nil }
