package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/store"
	"github.com/google/uuid"
)

type ContextEntryRepository struct {
	base    baseMemoryRepo[domain.ContextEntry]
	mu      sync.RWMutex
	byScope map[string]uuid.UUID
}

var _ store.ContextEntryRepository = (*ContextEntryRepository)(nil)

func NewContextEntryRepository() *ContextEntryRepository {
	return &ContextEntryRepository{
		base:    newBaseMemoryRepo("context_entry", func(e *domain.ContextEntry) *domain.RecordMeta { return &e.RecordMeta }),
		byScope: make(map[string]uuid.UUID),
	}
}

func scopeKey(scope, key string) string {
	return scope + "\x00" + key
}

func (r *ContextEntryRepository) Create(ctx context.Context, entry *domain.ContextEntry) error {
	if entry == nil {
		return store.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	index := scopeKey(entry.Scope, entry.Key)
	if _, exists := r.byScope[index]; exists {
		return fmt.Errorf("context entry %s/%s already exists", entry.Scope, entry.Key)
	}
	if err := r.base.create(ctx, entry); err != nil {
		return err
	}
	r.byScope[index] = entry.ID
	return nil
}

func (r *ContextEntryRepository) Update(ctx context.Context, entry *domain.ContextEntry) error {
	return r.base.update(ctx, entry)
}

func (r *ContextEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContextEntry, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *ContextEntryRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.ContextEntry], error) {
	return r.base.list(ctx, opts)
}

func (r *ContextEntryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *ContextEntryRepository) GetByScopeKey(ctx context.Context, scope, key string) (*domain.ContextEntry, error) {
	r.mu.RLock()
	id, ok := r.byScope[scopeKey(scope, key)]
	r.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.base.getByID(ctx, id, false)
}

func (r *ContextEntryRepository) ListByScope(ctx context.Context, scope string) ([]domain.ContextEntry, error) {
	return r.base.find(func(e *domain.ContextEntry) bool { return e.Scope == scope }), nil
}

func (r *ContextEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	entry, err := r.base.getByID(ctx, id, true)
	if err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.byScope, scopeKey(entry.Scope, entry.Key))
	r.mu.Unlock()
	return r.base.remove(ctx, id)
}
