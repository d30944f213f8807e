package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/storage"
)

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Providers, *bun.DB, error) {
	if cfg.Driver != "sqlite" {
		return storage.NewMemoryProviders(), nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if err := ensureSQLiteDir(dsn); err != nil {
		return storage.Providers{}, nil, err
	}
	sqldb, err := sql.Open(sqliteshim.DriverName(), dsn)
	if err != nil {
		return storage.Providers{}, nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return storage.Providers{}, nil, fmt.Errorf("storage: ensure schema: %w", err)
	}
	return storage.NewBunProviders(db), db, nil
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
