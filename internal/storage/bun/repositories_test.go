package bunrepo

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.DriverName(), "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	models := []any{
		(*domain.ContextEntry)(nil),
	}
	for _, model := range models {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			t.Fatalf("drop table: %v", err)
		}
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func TestContextEntryRepositoryBun(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewContextEntryRepository(db)
	ctx := context.Background()

	entry := &domain.ContextEntry{
		Scope: "default:web-push",
		Key:   "subscriptions",
		Value: domain.RawJSON(`[{"endpoint":"https://push.example/a","keys":{"p256dh":"p","auth":"a"}}]`),
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByScopeKey(ctx, "default:web-push", "subscriptions")
	if err != nil {
		t.Fatalf("get by scope key: %v", err)
	}
	if got.ID != entry.ID {
		t.Fatalf("unexpected id %s", got.ID)
	}

	got.Value = domain.RawJSON(`[]`)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	items, err := repo.ListByScope(ctx, "default:web-push")
	if err != nil {
		t.Fatalf("list by scope: %v", err)
	}
	if len(items) != 1 || string(items[0].Value) != `[]` {
		t.Fatalf("unexpected items: %+v", items)
	}

	list, err := repo.List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("expected total 1, got %d", list.Total)
	}

	if err := repo.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByScopeKey(ctx, "default:web-push", "subscriptions"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
