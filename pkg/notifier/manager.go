package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-webpush/internal/commands"
	"github.com/goliatone/go-webpush/internal/dispatcher"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

// Notification encapsulates a host-provided push request.
type Notification struct {
	ID       string
	Body     string
	UIUpdate map[string]any
}

// Manager offers typed helpers over the command router for hosts that embed
// the widget instead of feeding it flow messages.
type Manager struct {
	router *commands.Router
	logger logger.Logger
}

var ErrMissingRouter = errors.New("notifier: command router is required")

// NewManager wraps a command router.
func NewManager(router *commands.Router, l logger.Logger) (*Manager, error) {
	if router == nil {
		return nil, ErrMissingRouter
	}
	if l == nil {
		l = &logger.Nop{}
	}
	return &Manager{router: router, logger: l}, nil
}

// Send pushes a notification to every stored subscription.
func (m *Manager) Send(ctx context.Context, n Notification) (dispatcher.Result, error) {
	payload, err := json.Marshal(n.Body)
	if err != nil {
		return dispatcher.Result{}, err
	}
	resp, err := m.router.Handle(ctx, commands.Command{
		ID:       n.ID,
		Topic:    string(domain.IntentPushNotification),
		Payload:  payload,
		UIUpdate: n.UIUpdate,
	})
	var result dispatcher.Result
	if resp.Result != nil {
		result = *resp.Result
	}
	return result, err
}

// Subscribe stores a browser subscription.
func (m *Manager) Subscribe(ctx context.Context, sub domain.Subscription) error {
	return m.subscription(ctx, domain.IntentNewSubscription, sub)
}

// Unsubscribe removes every subscription of the endpoint.
func (m *Manager) Unsubscribe(ctx context.Context, endpoint string) error {
	return m.subscription(ctx, domain.IntentNewUnsubscription, domain.Subscription{Endpoint: endpoint})
}

func (m *Manager) subscription(ctx context.Context, intent domain.Intent, sub domain.Subscription) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("notifier: encode subscription: %w", err)
	}
	_, err = m.router.Handle(ctx, commands.Command{Topic: string(intent), Payload: payload})
	return err
}
