package vector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGVectorIndex stores chunk embeddings in a Postgres table with the
// pgvector extension, for deployments using config.PostgresConfig instead
// of the local memory/FAISS index. Cosine distance (<=>) drives Search.
type PGVectorIndex struct {
	pool       *pgxpool.Pool
	table      string
	dimensions int
}

// NewPGVectorIndex opens a pool against dsn and ensures the backing table
// and a pgvector ivfflat index exist. table is typically "chunk_embeddings".
func NewPGVectorIndex(ctx context.Context, dsn string, dimensions int, table string) (*PGVectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("vector: dimensions must be positive")
	}
	if table == "" {
		table = "chunk_embeddings"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("vector: connect postgres: %w", err)
	}
	idx := &PGVectorIndex{pool: pool, table: table, dimensions: dimensions}
	if err := idx.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (p *PGVectorIndex) ensureSchema(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL
		)`, p.table, p.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`, p.table, p.table),
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("vector: ensure schema: %w", err)
		}
	}
	return nil
}

// Add upserts vectors by id.
func (p *PGVectorIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("vector: ids and vectors length mismatch")
	}
	upsert := fmt.Sprintf(`INSERT INTO %s (id, embedding) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding`, p.table)

	batch := &pgx.Batch{}
	for i, id := range ids {
		if len(vectors[i]) != p.dimensions {
			return fmt.Errorf("vector: dimension mismatch: got %d, expected %d", len(vectors[i]), p.dimensions)
		}
		batch.Queue(upsert, id, pgvector.NewVector(vectors[i]))
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range ids {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("vector: batch upsert: %w", err)
		}
	}
	return nil
}

// Search returns the k nearest vectors by cosine distance.
func (p *PGVectorIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != p.dimensions {
		return nil, fmt.Errorf("vector: query dimension mismatch: got %d, expected %d", len(query), p.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, 1 - (embedding <=> $1) AS score FROM %s ORDER BY embedding <=> $1 LIMIT $2`, p.table),
		pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("vector: search: %w", err)
	}
	defer rows.Close()

	var out []*VectorResult
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("vector: scan search row: %w", err)
		}
		out = append(out, &VectorResult{ID: id, Score: score})
	}
	return out, rows.Err()
}

// Remove deletes vectors by id.
func (p *PGVectorIndex) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, p.table), ids)
	if err != nil {
		return fmt.Errorf("vector: remove: %w", err)
	}
	return nil
}

// Save is a no-op: Postgres persists on every Add/Remove.
func (p *PGVectorIndex) Save(path string) error { return nil }

// Load is a no-op: there is nothing to load, the table is the store.
func (p *PGVectorIndex) Load(path string) error { return nil }

// Size returns the row count in the backing table.
func (p *PGVectorIndex) Size() int {
	var n int
	if err := p.pool.QueryRow(context.Background(), fmt.Sprintf(`SELECT count(*) FROM %s`, p.table)).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close releases the connection pool.
func (p *PGVectorIndex) Close() error {
	p.pool.Close()
	return nil
}
