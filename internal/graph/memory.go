package graph

import (
	"context"
	"sync"

	"github.com/insurdocs/pipeline/internal/models"
)

// MemoryStore is an in-process Store used by tests and by any caller
// that doesn't have a Neo4j instance available, the same role teacher's
// MemoryIndex plays for VectorIndex.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]models.GraphNode
	edges []models.GraphEdge
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[string]models.GraphNode)}
}

func (m *MemoryStore) WriteNode(ctx context.Context, node models.GraphNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.nodes[node.ID]
	if !ok {
		m.nodes[node.ID] = node
		return nil
	}
	merged := existing
	merged.Labels = mergeLabels(existing.Labels, node.Labels)
	if merged.Properties == nil {
		merged.Properties = map[string]any{}
	}
	for k, v := range node.Properties {
		merged.Properties[k] = v
	}
	m.nodes[node.ID] = merged
	return nil
}

func (m *MemoryStore) WriteEdge(ctx context.Context, edge models.GraphEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.edges {
		if e.FromID == edge.FromID && e.ToID == edge.ToID && e.Type == edge.Type {
			m.edges[i] = edge
			return nil
		}
	}
	m.edges = append(m.edges, edge)
	return nil
}

func (m *MemoryStore) Neighbors(ctx context.Context, nodeID string, relType models.RelationshipType, limit int) ([]models.GraphNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 25
	}
	var out []models.GraphNode
	for _, e := range m.edges {
		if e.FromID != nodeID || e.Type != relType {
			continue
		}
		if n, ok := m.nodes[e.ToID]; ok {
			out = append(out, n)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func mergeLabels(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := append([]string{}, existing...)
	for _, l := range existing {
		seen[l] = struct{}{}
	}
	for _, l := range incoming {
		if _, ok := seen[l]; !ok {
			out = append(out, l)
			seen[l] = struct{}{}
		}
	}
	return out
}
