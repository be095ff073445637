package storage

import (
	"context"
	"fmt"

	"github.com/insurdocs/pipeline/internal/config"
)

// Open returns the configured backend: sqlite (dev default) or postgres
// (production, the same database internal/vector.PGVectorIndex hosts its
// pgvector table in). Activities call this once per invocation (every
// activity opens its own storage session, spec.md §5).
func Open(ctx context.Context, storageCfg config.StorageConfig, pgCfg config.PostgresConfig) (Storage, error) {
	switch storageCfg.Backend {
	case "", "sqlite":
		return NewSQLiteStorage(storageCfg.DatabasePath)
	case "postgres":
		store, err := NewPostgresStorage(ctx, pgCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", storageCfg.Backend)
	}
}
