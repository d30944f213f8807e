package storage

import (
	"context"
	"database/sql"

	bunrepo "github.com/goliatone/go-webpush/internal/storage/bun"
	"github.com/goliatone/go-webpush/internal/storage/memory"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/contextstore"
	"github.com/goliatone/go-webpush/pkg/interfaces/state"
	"github.com/goliatone/go-webpush/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// MetricsCollector enables downstream observers to record store operations.
type MetricsCollector interface {
	Record(operation string, labels map[string]string)
}

// Providers exposes the stores needed by the widget services.
type Providers struct {
	Entries     store.ContextEntryRepository
	Context     contextstore.Store
	State       state.Store
	Transaction store.TransactionManager
	Metrics     MetricsCollector
}

type Option func(*Providers)

// WithMetricsCollector registers a metrics collector invoked by the context
// store on every operation.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(p *Providers) {
		p.Metrics = collector
	}
}

// WithStateStore replaces the default in-memory dynamic state store.
func WithStateStore(s state.Store) Option {
	return func(p *Providers) {
		if s != nil {
			p.State = s
		}
	}
}

// NewMemoryProviders returns stores backed by in-memory maps.
func NewMemoryProviders(opts ...Option) Providers {
	providers := Providers{
		Entries:     memory.NewContextEntryRepository(),
		State:       memory.NewStateStore(),
		Transaction: &store.NopTransactionManager{},
	}
	return finish(providers, opts)
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle. Dynamic state stays in
// memory: overrides live until superseded or restart.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	persistence.RegisterModel(
		(*domain.ContextEntry)(nil),
	)

	providers := Providers{
		Entries:     bunrepo.NewContextEntryRepository(db),
		State:       memory.NewStateStore(),
		Transaction: &bunTxManager{db: db},
	}
	return finish(providers, opts)
}

// EnsureSchema creates the tables used by the Bun providers.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*domain.ContextEntry)(nil)).IfNotExists().Exec(ctx)
	return err
}

func finish(providers Providers, opts []Option) Providers {
	for _, opt := range opts {
		opt(&providers)
	}
	providers.Context = NewContextStore(providers.Entries, providers.Transaction, providers.Metrics)
	return providers
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(bunrepo.WithTx(ctx, tx))
	})
}
