package vector

import (
	"context"
	"os"
	"testing"
)

// TestPGVectorIndex_AddSearchRemove exercises PGVectorIndex against a real
// Postgres+pgvector instance. It's skipped unless PGVECTOR_TEST_DSN is set,
// the same opt-in pattern the e2e suites in the example pack use for
// infra-backed tests that can't run against an in-process fake.
func TestPGVectorIndex_AddSearchRemove(t *testing.T) {
	dsn := os.Getenv("PGVECTOR_TEST_DSN")
	if dsn == "" {
		t.Skip("PGVECTOR_TEST_DSN not set; skipping postgres-backed vector index test")
	}
	ctx := context.Background()

	idx, err := NewPGVectorIndex(ctx, dsn, 3, "test_chunk_embeddings")
	if err != nil {
		t.Fatalf("NewPGVectorIndex: %v", err)
	}
	defer idx.Close()

	ids := []string{"a", "b", "c"}
	vecs := [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Size() < 3 {
		t.Errorf("Size=%d, want at least 3", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].ID != "a" {
		t.Errorf("unexpected search results: %+v", results)
	}

	if err := idx.Remove(ctx, ids); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestPGVectorIndex_invalidDimensions(t *testing.T) {
	_, err := NewPGVectorIndex(context.Background(), "postgres://unused", 0, "")
	if err == nil {
		t.Error("expected error for zero dimensions")
	}
}
