// Package vector provides vector index implementations and a factory for creating them.
package vector

import (
	"context"
	"fmt"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search. Good for small datasets (<10k vectors).
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses FAISS for efficient ANN search. Good for large datasets.
	// Requires FAISS library and build tag -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
	// IndexTypePostgres uses a Postgres table with the pgvector extension.
	// Required for deployments with config.Storage.Backend = "postgres".
	IndexTypePostgres IndexType = "postgres"
)

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "memory" (default), "faiss". Use NewPostgresVectorIndex
// directly for the "postgres" type, which needs a DSN the other two don't.
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypeFAISS:
		return NewFAISSIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss; use NewPostgresVectorIndex for postgres)", indexType)
	}
}

// NewPostgresVectorIndex is the postgres path beside NewVectorIndex: it needs
// a connection string and table name that the memory/FAISS constructors
// don't take, so it's kept out of NewVectorIndex's uniform signature.
func NewPostgresVectorIndex(ctx context.Context, dsn string, dimensions int, table string) (VectorIndex, error) {
	return NewPGVectorIndex(ctx, dsn, dimensions, table)
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
// This is determined by the build tag -tags=faiss.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
