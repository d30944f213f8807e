package bunrepo

import (
	"context"

	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ContextEntryRepository struct {
	base baseRepository[domain.ContextEntry]
}

var _ store.ContextEntryRepository = (*ContextEntryRepository)(nil)

func NewContextEntryRepository(db *bun.DB) *ContextEntryRepository {
	handlers := repository.ModelHandlers[*domain.ContextEntry]{
		NewRecord: func() *domain.ContextEntry { return &domain.ContextEntry{} },
		GetID:     func(e *domain.ContextEntry) uuid.UUID { return e.ID },
		SetID: func(e *domain.ContextEntry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier:      func() string { return "key" },
		GetIdentifierValue: func(e *domain.ContextEntry) string { return e.Key },
	}
	return &ContextEntryRepository{
		base: newBaseRepository[domain.ContextEntry](db, handlers, func(e *domain.ContextEntry) *domain.RecordMeta { return &e.RecordMeta }),
	}
}

func (r *ContextEntryRepository) Create(ctx context.Context, entry *domain.ContextEntry) error {
	return r.base.create(ctx, entry)
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

func (r *ContextEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.remove(ctx, id)
}

func (r *ContextEntryRepository) GetByScopeKey(ctx context.Context, scope, key string) (*domain.ContextEntry, error) {
	record, err := r.base.repo.GetTx(ctx, idbFrom(ctx, r.base.db), withScope(scope), withKey(key), withoutDeleted())
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *ContextEntryRepository) ListByScope(ctx context.Context, scope string) ([]domain.ContextEntry, error) {
	records, _, err := r.base.repo.ListTx(ctx, idbFrom(ctx, r.base.db),
		withScope(scope),
		withoutDeleted(),
		func(q *bun.SelectQuery) *bun.SelectQuery { return q.Order("created_at ASC") },
	)
	if err != nil {
		return nil, mapError(err)
	}
	items := make([]domain.ContextEntry, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return items, nil
}
