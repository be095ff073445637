package graph

import (
	"context"
	"fmt"

	"github.com/insurdocs/pipeline/internal/config"
)

// New builds a Store from cfg. An empty cfg.URI falls back to an
// in-memory store, the same "empty config means test double" shape
// vector.NewVectorIndex uses for its memory backend default.
func New(ctx context.Context, cfg config.GraphStoreConfig, password string) (Store, error) {
	if cfg.URI == "" {
		return NewMemoryStore(), nil
	}
	store, err := NewNeo4jStore(ctx, cfg, password)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	return store, nil
}
