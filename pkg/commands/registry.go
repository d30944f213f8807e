package commands

import (
	command "github.com/goliatone/go-command"

	internalcommands "github.com/goliatone/go-webpush/internal/commands"
)

// Re-export request types so consumers need not import internal packages.
type (
	Command            = internalcommands.Command
	Response           = internalcommands.Response
	ClearSubscriptions = internalcommands.ClearSubscriptions
	PushNotification   = internalcommands.PushNotification
	RefreshStatus      = internalcommands.RefreshStatus
	AddSubscription    = internalcommands.AddSubscription
	RemoveSubscription = internalcommands.RemoveSubscription
	ForwardToFrontend  = internalcommands.ForwardToFrontend
)

// ErrUnsupportedIntent is returned when a command topic is not recognised.
var ErrUnsupportedIntent = internalcommands.ErrUnsupportedIntent

// Registry exposes go-command compatible handlers backed by the module services.
type Registry struct {
	Catalog            *internalcommands.Catalog
	ClearSubscriptions command.Commander[ClearSubscriptions]
	PushNotification   command.Commander[PushNotification]
	RefreshStatus      command.Commander[RefreshStatus]
	AddSubscription    command.Commander[AddSubscription]
	RemoveSubscription command.Commander[RemoveSubscription]
	ForwardToFrontend  command.Commander[ForwardToFrontend]
}

// New wraps a built catalog.
func New(catalog *internalcommands.Catalog) *Registry {
	if catalog == nil {
		return nil
	}
	return &Registry{
		Catalog:            catalog,
		ClearSubscriptions: catalog.ClearSubscriptions,
		PushNotification:   catalog.PushNotification,
		RefreshStatus:      catalog.RefreshStatus,
		AddSubscription:    catalog.AddSubscription,
		RemoveSubscription: catalog.RemoveSubscription,
		ForwardToFrontend:  catalog.ForwardToFrontend,
	}
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.ClearSubscriptions,
		r.PushNotification,
		r.RefreshStatus,
		r.AddSubscription,
		r.RemoveSubscription,
		r.ForwardToFrontend,
	}
}
