// Package graph projects canonical entities, provisions, and the
// relationships between them into a graph store for traversal queries
// (e.g. "what coverages trace back to this endorsement"). It mirrors the
// vector package's interface-plus-factory shape: a small Store interface,
// a production Neo4j-backed implementation, and an in-memory fake for
// tests that don't have a database available.
package graph

import (
	"context"

	"github.com/insurdocs/pipeline/internal/models"
)

// Store writes graph projections. WorkflowID scopes every write so
// concurrent runs over the same canonical entities don't collide
// (spec.md §4.12); callers pass it as a node/edge property, not as part
// of the node ID, so SAME_AS edges can still merge across runs.
type Store interface {
	WriteNode(ctx context.Context, node models.GraphNode) error
	WriteEdge(ctx context.Context, edge models.GraphEdge) error
	Neighbors(ctx context.Context, nodeID string, relType models.RelationshipType, limit int) ([]models.GraphNode, error)
	Close() error
}
