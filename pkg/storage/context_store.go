package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/contextstore"
	"github.com/goliatone/go-webpush/pkg/interfaces/store"
)

// ContextStore implements contextstore.Store on top of a context entry
// repository. Values are stored as JSON documents and replaced whole.
type ContextStore struct {
	repo    store.ContextEntryRepository
	tx      store.TransactionManager
	metrics MetricsCollector
}

var _ contextstore.Store = (*ContextStore)(nil)

func NewContextStore(repo store.ContextEntryRepository, tx store.TransactionManager, metrics MetricsCollector) *ContextStore {
	if tx == nil {
		tx = &store.NopTransactionManager{}
	}
	return &ContextStore{repo: repo, tx: tx, metrics: metrics}
}

func (s *ContextStore) Get(ctx context.Context, scope, key string, dest any) (bool, error) {
	if err := validKey(scope, key); err != nil {
		return false, err
	}
	s.record("get", scope, key)

	entry, err := s.repo.GetByScopeKey(ctx, scope, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("contextstore: get %s/%s: %w", scope, key, err)
	}
	if len(entry.Value) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return true, fmt.Errorf("contextstore: decode %s/%s: %w", scope, key, err)
	}
	return true, nil
}

func (s *ContextStore) Set(ctx context.Context, scope, key string, value any) error {
	if err := validKey(scope, key); err != nil {
		return err
	}
	s.record("set", scope, key)

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("contextstore: encode %s/%s: %w", scope, key, err)
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.repo.GetByScopeKey(ctx, scope, key)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return s.repo.Create(ctx, &domain.ContextEntry{Scope: scope, Key: key, Value: domain.RawJSON(raw)})
		case err != nil:
			return fmt.Errorf("contextstore: set %s/%s: %w", scope, key, err)
		}
		entry.Value = domain.RawJSON(raw)
		return s.repo.Update(ctx, entry)
	})
}

func (s *ContextStore) Delete(ctx context.Context, scope, key string) error {
	if err := validKey(scope, key); err != nil {
		return err
	}
	s.record("delete", scope, key)

	entry, err := s.repo.GetByScopeKey(ctx, scope, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("contextstore: delete %s/%s: %w", scope, key, err)
	}
	return s.repo.Delete(ctx, entry.ID)
}

func (s *ContextStore) record(op, scope, key string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Record("contextstore."+op, map[string]string{"scope": scope, "key": key})
}

func validKey(scope, key string) error {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return contextstore.ErrInvalidKey
	}
	return nil
}
