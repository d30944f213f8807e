package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ListOptions capture pagination and filtering knobs common to repositories.
type ListOptions struct {
	Limit              int
	Offset             int
	Since              time.Time
	Until              time.Time
	IncludeSoftDeleted bool
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// Repository defines base CRUD helpers reused by entity-specific interfaces.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, opts ListOptions) (ListResult[T], error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// ContextEntryRepository persists scoped context documents.
type ContextEntryRepository interface {
	Repository[domain.ContextEntry]
	GetByScopeKey(ctx context.Context, scope, key string) (*domain.ContextEntry, error)
	ListByScope(ctx context.Context, scope string) ([]domain.ContextEntry, error)
	// Delete removes the entry permanently so the (scope, key) pair can be
	// reused.
	Delete(ctx context.Context, id uuid.UUID) error
}
