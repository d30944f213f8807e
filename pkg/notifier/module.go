package notifier

import (
	"context"

	"github.com/goliatone/go-webpush/internal/commands"
	"github.com/goliatone/go-webpush/internal/di"
	"github.com/goliatone/go-webpush/internal/dispatcher"
	"github.com/goliatone/go-webpush/internal/registry"
	"github.com/goliatone/go-webpush/pkg/adapters"
	pubcommands "github.com/goliatone/go-webpush/pkg/commands"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/credentials"
	"github.com/goliatone/go-webpush/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
	"github.com/goliatone/go-webpush/pkg/storage"
)

// ModuleOptions configure the widget module facade.
type ModuleOptions struct {
	Config      config.Config
	Storage     storage.Providers
	Logger      logger.Logger
	Broadcaster broadcaster.Broadcaster
	Adapters    []adapters.Messenger
	Credentials credentials.Provider
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
	manager   *Manager
	commands  *pubcommands.Registry
}

// NewModule assembles stores, registry, dispatcher, router and commands.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:      opts.Config,
		Storage:     opts.Storage,
		Logger:      opts.Logger,
		Broadcaster: opts.Broadcaster,
		Adapters:    opts.Adapters,
		Credentials: opts.Credentials,
	})
	if err != nil {
		return nil, err
	}
	manager, err := NewManager(container.Router, container.Logger)
	if err != nil {
		return nil, err
	}
	return &Module{
		container: container,
		manager:   manager,
		commands:  pubcommands.New(container.Router.Catalog()),
	}, nil
}

// Start stores the initial subscription list and publishes the status.
func (m *Module) Start(ctx context.Context) error {
	return m.container.Start(ctx)
}

// Handle routes one inbound command.
func (m *Module) Handle(ctx context.Context, cmd commands.Command) (commands.Response, error) {
	return m.container.Router.Handle(ctx, cmd)
}

// Manager returns the typed helper facade.
func (m *Module) Manager() *Manager {
	if m == nil || m.container == nil {
		return nil
	}
	return m.manager
}

// Registry returns the subscription registry.
func (m *Module) Registry() *registry.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Registry
}

// Dispatcher returns the notification dispatcher.
func (m *Module) Dispatcher() *dispatcher.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Dispatcher
}

// Commands returns the go-command registry.
func (m *Module) Commands() *pubcommands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.commands
}

// Credentials returns the widget credential provider.
func (m *Module) Credentials() credentials.Provider {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Credentials
}

// Broadcaster returns the fanout transports attach to.
func (m *Module) Broadcaster() *broadcaster.Fanout {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Broadcaster
}

// AdapterRegistry exposes the configured messenger registry.
func (m *Module) AdapterRegistry() *adapters.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Adapters
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Container returns the internal DI container.
// This is exposed for advanced use cases like direct storage access.
func (m *Module) Container() *di.Container {
	if m == nil {
		return nil
	}
	return m.container
}
