package commands

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-webpush/internal/dispatcher"
	"github.com/goliatone/go-webpush/pkg/adapters"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/credentials"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
	"github.com/goliatone/go-webpush/pkg/options"
)

// Catalog exposes go-command compatible handlers, one per intent family.
type Catalog struct {
	ClearSubscriptions command.Commander[ClearSubscriptions]
	PushNotification   command.Commander[PushNotification]
	RefreshStatus      command.Commander[RefreshStatus]
	AddSubscription    command.Commander[AddSubscription]
	RemoveSubscription command.Commander[RemoveSubscription]
	ForwardToFrontend  command.Commander[ForwardToFrontend]
}

type registryService interface {
	List(ctx context.Context) []domain.Subscription
	Add(ctx context.Context, sub domain.Subscription) error
	Remove(ctx context.Context, endpoint string) error
	Clear(ctx context.Context) error
	PublishStatus(ctx context.Context)
}

type dispatchService interface {
	Dispatch(ctx context.Context, req dispatcher.Request) (dispatcher.Result, error)
}

// Dependencies wires services into the command catalog.
type Dependencies struct {
	Registry    registryService
	Dispatcher  dispatchService
	State       options.StateSnapshotStore
	Credentials credentials.Provider
	Broadcaster broadcaster.Broadcaster
	Config      config.Config
	Logger      logger.Logger
}

var (
	ErrMissingRegistry   = errors.New("commands: subscription registry is required")
	ErrMissingDispatcher = errors.New("commands: dispatcher is required")
)

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Registry == nil {
		return nil, ErrMissingRegistry
	}
	if deps.Dispatcher == nil {
		return nil, ErrMissingDispatcher
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = &broadcaster.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Catalog{
		ClearSubscriptions: clearCommand{registry: deps.Registry},
		PushNotification: pushCommand{
			registry:    deps.Registry,
			dispatcher:  deps.Dispatcher,
			state:       deps.State,
			credentials: deps.Credentials,
			cfg:         deps.Config,
			logger:      deps.Logger,
		},
		RefreshStatus:      refreshCommand{registry: deps.Registry},
		AddSubscription:    subscribeCommand{registry: deps.Registry},
		RemoveSubscription: unsubscribeCommand{registry: deps.Registry},
		ForwardToFrontend:  forwardCommand{broadcaster: deps.Broadcaster, widgetID: deps.Config.Widget.ID},
	}, nil
}

// ClearSubscriptions empties the registry.
type ClearSubscriptions struct {
	CommandID string `json:"command_id"`
}

type clearCommand struct {
	registry registryService
}

func (c clearCommand) Execute(ctx context.Context, msg ClearSubscriptions) error {
	return c.registry.Clear(ctx)
}

// PushNotification sends one notification to every stored subscription.
// Result, when set, receives the per-recipient outcomes.
type PushNotification struct {
	CommandID string             `json:"command_id"`
	Body      string             `json:"body"`
	Result    *dispatcher.Result `json:"-"`
}

type pushCommand struct {
	registry    registryService
	dispatcher  dispatchService
	state       options.StateSnapshotStore
	credentials credentials.Provider
	cfg         config.Config
	logger      logger.Logger
}

func (c pushCommand) Execute(ctx context.Context, msg PushNotification) error {
	vapid, err := credentials.ResolveVAPID(ctx, c.credentials, c.cfg.Widget.ID, c.cfg.VAPID)
	if err != nil {
		return err
	}

	var overrides options.Overrides
	if c.state.Store != nil {
		var warnings []options.Warning
		overrides, warnings, err = c.state.Load(ctx, c.cfg.Widget.ID)
		if err != nil {
			return fmt.Errorf("commands: load overrides: %w", err)
		}
		logWarnings(c.logger, msg.CommandID, warnings)
	}

	result, err := c.dispatcher.Dispatch(ctx, dispatcher.Request{
		Static:    c.cfg.Notification,
		Overrides: overrides,
		Credentials: adapters.Credentials{
			Subject:    vapid.Subject,
			PublicKey:  vapid.PublicKey,
			PrivateKey: vapid.PrivateKey,
		},
		Body:       msg.Body,
		Recipients: c.registry.List(ctx),
		CommandID:  msg.CommandID,
	})
	if msg.Result != nil {
		*msg.Result = result
	}
	return err
}

// RefreshStatus republishes the registry size.
type RefreshStatus struct{}

type refreshCommand struct {
	registry registryService
}

func (c refreshCommand) Execute(ctx context.Context, msg RefreshStatus) error {
	c.registry.PublishStatus(ctx)
	return nil
}

// AddSubscription stores a browser subscription.
type AddSubscription struct {
	Intent       domain.Intent       `json:"intent"`
	Subscription domain.Subscription `json:"subscription"`
}

type subscribeCommand struct {
	registry registryService
}

func (c subscribeCommand) Execute(ctx context.Context, msg AddSubscription) error {
	return c.registry.Add(ctx, msg.Subscription)
}

// RemoveSubscription drops every subscription of an endpoint.
type RemoveSubscription struct {
	Endpoint string `json:"endpoint"`
}

type unsubscribeCommand struct {
	registry registryService
}

func (c unsubscribeCommand) Execute(ctx context.Context, msg RemoveSubscription) error {
	return c.registry.Remove(ctx, msg.Endpoint)
}

// ForwardToFrontend hands a frontend-only intent to the broadcaster.
type ForwardToFrontend struct {
	Intent  domain.Intent `json:"intent"`
	Payload any           `json:"payload"`
}

type forwardCommand struct {
	broadcaster broadcaster.Broadcaster
	widgetID    string
}

func (c forwardCommand) Execute(ctx context.Context, msg ForwardToFrontend) error {
	return c.broadcaster.Broadcast(ctx, broadcaster.Event{
		Topic:    string(msg.Intent),
		WidgetID: c.widgetID,
		Payload:  msg.Payload,
	})
}

func logWarnings(l logger.Logger, commandID string, warnings []options.Warning) {
	for _, w := range warnings {
		l.Warn("ignoring invalid override", "command_id", commandID, "field", w.Field, "reason", w.Reason)
	}
}
