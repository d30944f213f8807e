package di

import (
	"context"
	"reflect"

	"github.com/goliatone/go-webpush/internal/commands"
	"github.com/goliatone/go-webpush/internal/dispatcher"
	"github.com/goliatone/go-webpush/internal/registry"
	"github.com/goliatone/go-webpush/pkg/adapters"
	"github.com/goliatone/go-webpush/pkg/adapters/console"
	"github.com/goliatone/go-webpush/pkg/adapters/webhook"
	"github.com/goliatone/go-webpush/pkg/adapters/webpush"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/credentials"
	"github.com/goliatone/go-webpush/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
	"github.com/goliatone/go-webpush/pkg/options"
	"github.com/goliatone/go-webpush/pkg/storage"
)

// Options configure the DI container.
type Options struct {
	Config      config.Config
	Storage     storage.Providers
	Logger      logger.Logger
	Broadcaster broadcaster.Broadcaster
	Adapters    []adapters.Messenger
	Credentials credentials.Provider
}

// Container wires stores, registry, dispatcher and the command router.
type Container struct {
	Config      config.Config
	Storage     storage.Providers
	Logger      logger.Logger
	Broadcaster *broadcaster.Fanout
	Registry    *registry.Service
	Dispatcher  *dispatcher.Service
	Router      *commands.Router
	Adapters    *adapters.Registry
	Credentials credentials.Provider
	State       options.StateSnapshotStore
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options. When no adapters
// are given the webpush transport and a console dry-run adapter are
// registered, plus the webhook relay when a URL is configured.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := opts.Storage
	if providers.Context == nil {
		providers = storage.NewMemoryProviders()
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	fanout := broadcaster.NewFanout(opts.Broadcaster)

	creds := opts.Credentials
	if creds == nil {
		if key := cfg.EncryptionKeyBytes(); key != nil {
			encrypted, err := credentials.NewEncryptedProvider(providers.Context, key)
			if err != nil {
				return nil, err
			}
			creds = encrypted
		} else {
			creds = credentials.NewStaticProvider(nil)
		}
	}

	messengers := opts.Adapters
	if len(messengers) == 0 {
		messengers = []adapters.Messenger{webpush.New(lgr), console.New(lgr)}
		if url := cfg.Dispatcher.WebhookURL; url != "" {
			messengers = append(messengers, webhook.New(lgr, webhook.WithConfig(webhook.Config{URL: url})))
		}
	}
	adapterRegistry := adapters.NewRegistry(messengers...)

	registrySvc, err := registry.New(registry.Dependencies{
		Store:       providers.Context,
		Broadcaster: fanout,
		Logger:      lgr,
		Widget:      cfg.Widget,
	})
	if err != nil {
		return nil, err
	}

	dispatcherSvc, err := dispatcher.New(dispatcher.Dependencies{
		Registry: adapterRegistry,
		Logger:   lgr,
		Config:   cfg.Dispatcher,
	})
	if err != nil {
		return nil, err
	}

	state := options.StateSnapshotStore{Store: providers.State}
	router, err := commands.NewRouter(commands.Dependencies{
		Registry:    registrySvc,
		Dispatcher:  dispatcherSvc,
		State:       state,
		Credentials: creds,
		Broadcaster: fanout,
		Config:      cfg,
		Logger:      lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:      cfg,
		Storage:     providers,
		Logger:      lgr,
		Broadcaster: fanout,
		Registry:    registrySvc,
		Dispatcher:  dispatcherSvc,
		Router:      router,
		Adapters:    adapterRegistry,
		Credentials: creds,
		State:       state,
	}, nil
}

// Start initialises the stored subscription list and publishes the status.
func (c *Container) Start(ctx context.Context) error {
	return c.Registry.Init(ctx)
}
