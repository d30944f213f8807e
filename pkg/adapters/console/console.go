package console

import (
	"context"
	"fmt"

	"github.com/goliatone/go-webpush/pkg/adapters"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

// Adapter logs notifications instead of delivering them. Useful for dry runs
// and local development without a push service.
type Adapter struct {
	name string
	base adapters.BaseAdapter
	caps adapters.Capability
	opts Options
}

type Option func(*Adapter)

// Options tweak console output.
type Options struct {
	Structured bool // when true, emit key/value args instead of a formatted string
}

// WithName overrides the adapter provider name (defaults to "console").
func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

// WithStructured enables structured logging mode.
func WithStructured(enabled bool) Option {
	return func(a *Adapter) {
		a.opts.Structured = enabled
	}
}

// New constructs a console adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "console",
		caps: adapters.Capability{
			Name:      "console",
			Encodings: []string{config.ContentEncoding},
			DryRun:    true,
		},
	}
	adapter.base = adapters.NewBaseAdapter(l)
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

// Name implements adapters.Messenger.
func (a *Adapter) Name() string {
	return a.name
}

// Capabilities implements adapters.Messenger.
func (a *Adapter) Capabilities() adapters.Capability {
	return a.caps
}

// Send logs the payload and target endpoint. It never fails.
func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if a.opts.Structured {
		a.base.Logger().Info("console delivery",
			"command_id", msg.CommandID,
			"endpoint", msg.Subscription.Endpoint,
			"ttl", msg.Options.TTL,
			"urgency", msg.Options.Urgency,
			"payload", string(msg.Payload),
		)
		a.base.LogSuccess(a.name, msg)
		return nil
	}

	a.base.Logger().Info(fmt.Sprintf("[console][%s] endpoint=%s ttl=%d urgency=%s payload=%s",
		msg.CommandID, msg.Subscription.Endpoint, msg.Options.TTL, msg.Options.Urgency, msg.Payload))
	a.base.LogSuccess(a.name, msg)
	return nil
}
