package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/contextstore"
	"github.com/goliatone/go-webpush/pkg/interfaces/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type recordingMetrics struct {
	mu  sync.Mutex
	ops []string
}

func (m *recordingMetrics) Record(op string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
}

func exerciseContextStore(t *testing.T, cs contextstore.Store) {
	t.Helper()
	ctx := context.Background()

	var subs domain.SubscriptionList
	ok, err := cs.Get(ctx, "default:web-push", "subscriptions", &subs)
	if err != nil || ok {
		t.Fatalf("expected miss on empty store, ok=%v err=%v", ok, err)
	}

	first := domain.SubscriptionList{{Endpoint: "https://push.example/a", Keys: domain.SubscriptionKeys{P256dh: "p", Auth: "a"}}}
	if err := cs.Set(ctx, "default:web-push", "subscriptions", first); err != nil {
		t.Fatalf("set: %v", err)
	}
	second := append(first.Clone(), domain.Subscription{Endpoint: "https://push.example/b"})
	if err := cs.Set(ctx, "default:web-push", "subscriptions", second); err != nil {
		t.Fatalf("replace: %v", err)
	}

	ok, err = cs.Get(ctx, "default:web-push", "subscriptions", &subs)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(subs) != 2 || subs[0].Keys.P256dh != "p" {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}

	if err := cs.Delete(ctx, "default:web-push", "subscriptions"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := cs.Get(ctx, "default:web-push", "subscriptions", &subs); ok {
		t.Fatalf("expected miss after delete")
	}
	if err := cs.Set(ctx, "default:web-push", "subscriptions", first); err != nil {
		t.Fatalf("set after delete: %v", err)
	}

	if err := cs.Set(ctx, "", "subscriptions", first); !errors.Is(err, contextstore.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMemoryProvidersContextStore(t *testing.T) {
	metrics := &recordingMetrics{}
	providers := NewMemoryProviders(WithMetricsCollector(metrics))
	exerciseContextStore(t, providers.Context)

	if providers.State == nil || providers.Transaction == nil {
		t.Fatalf("expected state store and transaction manager")
	}
	if len(metrics.ops) == 0 {
		t.Fatalf("expected metrics to be recorded")
	}
}

func TestBunProvidersContextStore(t *testing.T) {
	sqldb, err := sql.Open(sqliteshim.DriverName(), "file:providers?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	providers := NewBunProviders(db)
	exerciseContextStore(t, providers.Context)
}

func TestBunTransactionRollsBackOnError(t *testing.T) {
	sqldb, err := sql.Open(sqliteshim.DriverName(), "file:providers_tx?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	providers := NewBunProviders(db)

	boom := errors.New("boom")
	err = providers.Transaction.WithinTransaction(ctx, func(ctx context.Context) error {
		entry := &domain.ContextEntry{Scope: "s", Key: "k", Value: domain.RawJSON(`1`)}
		if err := providers.Entries.Create(ctx, entry); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := providers.Entries.GetByScopeKey(ctx, "s", "k"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected rolled back entry, got %v", err)
	}

	err = providers.Transaction.WithinTransaction(ctx, func(ctx context.Context) error {
		return providers.Entries.Create(ctx, &domain.ContextEntry{Scope: "s", Key: "k", Value: domain.RawJSON(`2`)})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err := providers.Entries.GetByScopeKey(ctx, "s", "k")
	if err != nil {
		t.Fatalf("expected committed entry: %v", err)
	}
	if string(got.Value) != `2` {
		t.Fatalf("unexpected value %s", got.Value)
	}
}
