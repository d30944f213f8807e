package bunrepo

import (
	"context"
	"time"

	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type baseRepository[T any] struct {
	repo    repository.Repository[*T]
	db      *bun.DB
	extract func(*T) *domain.RecordMeta
}

func newBaseRepository[T any](db *bun.DB, handlers repository.ModelHandlers[*T], extract func(*T) *domain.RecordMeta) baseRepository[T] {
	return baseRepository[T]{
		repo:    repository.MustNewRepository[*T](db, handlers),
		db:      db,
		extract: extract,
	}
}

func (r baseRepository[T]) create(ctx context.Context, record *T) error {
	meta := r.extract(record)
	meta.EnsureID()
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	_, err := r.repo.CreateTx(ctx, idbFrom(ctx, r.db), record)
	return mapError(err)
}

func (r baseRepository[T]) update(ctx context.Context, record *T) error {
	r.extract(record).UpdatedAt = time.Now().UTC()
	_, err := r.repo.UpdateTx(ctx, idbFrom(ctx, r.db), record)
	return mapError(err)
}

func (r baseRepository[T]) getByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*T, error) {
	criteria := []repository.SelectCriteria{withID(id)}
	if !includeDeleted {
		criteria = append(criteria, withoutDeleted())
	}
	record, err := r.repo.GetTx(ctx, idbFrom(ctx, r.db), criteria...)
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r baseRepository[T]) list(ctx context.Context, opts store.ListOptions) (store.ListResult[T], error) {
	criteria := []repository.SelectCriteria{withListOptions(opts)}
	records, total, err := r.repo.ListTx(ctx, idbFrom(ctx, r.db), criteria...)
	if err != nil {
		return store.ListResult[T]{}, mapError(err)
	}
	items := make([]T, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[T]{Items: items, Total: total}, nil
}

func (r baseRepository[T]) softDelete(ctx context.Context, id uuid.UUID) error {
	record, err := r.getByID(ctx, id, true)
	if err != nil {
		return err
	}
	r.extract(record).DeletedAt = time.Now().UTC()
	_, err = r.repo.UpdateTx(ctx, idbFrom(ctx, r.db), record)
	return mapError(err)
}

// remove deletes the row permanently, bypassing the soft delete column.
func (r baseRepository[T]) remove(ctx context.Context, id uuid.UUID) error {
	_, err := idbFrom(ctx, r.db).NewDelete().
		Model((*T)(nil)).
		Where("id = ?", id).
		ForceDelete().
		Exec(ctx)
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return store.ErrNotFound
	}
	return err
}
