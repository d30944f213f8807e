package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-webpush/internal/dispatcher"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
	"github.com/goliatone/go-webpush/pkg/options"
)

// ErrUnsupportedIntent is returned for commands with an unknown topic.
var ErrUnsupportedIntent = errors.New("commands: unsupported msg.topic")

// Response summarises how a command was handled.
type Response struct {
	CommandID string             `json:"command_id"`
	Intent    domain.Intent      `json:"intent"`
	Warnings  []options.Warning  `json:"warnings,omitempty"`
	Result    *dispatcher.Result `json:"-"`
}

// Router classifies commands by intent and runs the matching commander.
type Router struct {
	catalog *Catalog
	state   options.StateSnapshotStore
	cfg     config.Config
	logger  logger.Logger
}

// NewRouter builds the catalog and wraps it in a router.
func NewRouter(deps Dependencies) (*Router, error) {
	catalog, err := NewCatalog(deps)
	if err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Router{catalog: catalog, state: deps.State, cfg: deps.Config, logger: deps.Logger}, nil
}

// Catalog exposes the underlying commanders.
func (r *Router) Catalog() *Catalog {
	return r.catalog
}

// Handle routes one command. Unknown topics are rejected before anything is
// persisted. Any ui_update is validated and persisted before routing; invalid
// override fields are dropped and reported as warnings.
// Errors are logged and returned, the router stays usable.
func (r *Router) Handle(ctx context.Context, cmd Command) (Response, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	intent := cmd.Intent()
	resp := Response{CommandID: cmd.ID, Intent: intent}
	if !intent.Known() {
		return resp, r.fail(cmd, fmt.Errorf("%w: %q", ErrUnsupportedIntent, cmd.Topic))
	}

	var body string
	updates := cmd.UIUpdate
	if intent == domain.IntentPushNotification && r.cfg.Notification.BodySource != config.BodySourceLiteral {
		var extra map[string]any
		body, extra = cmd.resolveBody(r.cfg.Notification.BodyField)
		updates = mergeUpdates(updates, extra)
	}

	if len(updates) > 0 && r.state.Store != nil {
		_, warnings, err := r.state.Apply(ctx, r.cfg.Widget.ID, updates)
		resp.Warnings = warnings
		logWarnings(r.logger, cmd.ID, warnings)
		if err != nil {
			return resp, r.fail(cmd, fmt.Errorf("commands: persist ui_update: %w", err))
		}
	}

	var err error
	switch {
	case intent == domain.IntentClearSubscriptions:
		err = r.catalog.ClearSubscriptions.Execute(ctx, ClearSubscriptions{CommandID: cmd.ID})
	case intent == domain.IntentPushNotification:
		result := &dispatcher.Result{}
		err = r.catalog.PushNotification.Execute(ctx, PushNotification{CommandID: cmd.ID, Body: body, Result: result})
		resp.Result = result
	case intent == domain.IntentRefreshStatus:
		err = r.catalog.RefreshStatus.Execute(ctx, RefreshStatus{})
	case intent.IsSubscribe():
		var sub domain.Subscription
		if sub, err = cmd.Subscription(); err == nil {
			err = r.catalog.AddSubscription.Execute(ctx, AddSubscription{Intent: intent, Subscription: sub})
		}
	case intent == domain.IntentNewUnsubscription:
		var sub domain.Subscription
		if sub, err = cmd.Subscription(); err == nil {
			err = r.catalog.RemoveSubscription.Execute(ctx, RemoveSubscription{Endpoint: sub.Endpoint})
		}
	case intent.IsPassThrough():
		err = r.catalog.ForwardToFrontend.Execute(ctx, ForwardToFrontend{Intent: intent, Payload: cmd.PayloadValue()})
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedIntent, cmd.Topic)
	}
	if err != nil {
		return resp, r.fail(cmd, err)
	}
	return resp, nil
}

func (r *Router) fail(cmd Command, err error) error {
	r.logger.Error("command failed", "command_id", cmd.ID, "topic", cmd.Topic, "error", err)
	return err
}

func mergeUpdates(base, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
