package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/insurdocs/pipeline/internal/config"
	"github.com/insurdocs/pipeline/internal/models"
)

// Neo4jStore writes the document/entity/provision graph to Neo4j. Node
// labels are merged dynamically per models.GraphNode.Labels, grounded on
// the Document/Chunk/Entity node shapes of a GraphRAG knowledge-graph
// schema; this package executes real Cypher against neo4j-go-driver
// rather than describing a schema.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore dials Neo4j using cfg and verifies connectivity.
func NewNeo4jStore(ctx context.Context, cfg config.GraphStoreConfig, password string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: dial neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("graph: verify connectivity: %w", err)
	}
	return &Neo4jStore{driver: driver, database: cfg.Database}, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: mode})
}

// WriteNode merges a node by ID, updating its labels and properties.
// MERGE keys only on {id: $id}; labels are appended with Cypher's
// dynamic-label-free workaround of listing them directly in the query
// string, since Cypher has no parameterized label syntax.
func (s *Neo4jStore) WriteNode(ctx context.Context, node models.GraphNode) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	labels := sanitizeLabels(node.Labels)
	if len(labels) == 0 {
		labels = []string{"Entity"}
	}
	labelClause := strings.Join(labels, ":")
	query := fmt.Sprintf("MERGE (n {id: $id}) SET n:%s SET n += $props", labelClause)

	props := node.Properties
	if props == nil {
		props = map[string]any{}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"id": node.ID, "props": props})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: write node %s: %w", node.ID, err)
	}
	return nil
}

// WriteEdge merges a typed relationship between two existing nodes.
func (s *Neo4jStore) WriteEdge(ctx context.Context, edge models.GraphEdge) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	relType := sanitizeLabel(string(edge.Type))
	if relType == "" {
		return fmt.Errorf("graph: edge has no relationship type")
	}
	query := fmt.Sprintf(
		`MATCH (a {id: $fromID}), (b {id: $toID})
		 MERGE (a)-[r:%s]->(b)
		 SET r += $props`, relType)

	props := edge.Properties
	if props == nil {
		props = map[string]any{}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"fromID": edge.FromID,
			"toID":   edge.ToID,
			"props":  props,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: write edge %s->%s (%s): %w", edge.FromID, edge.ToID, edge.Type, err)
	}
	return nil
}

// Neighbors returns nodes reachable from nodeID over an outgoing edge of
// the given type, in no particular order, capped at limit.
func (s *Neo4jStore) Neighbors(ctx context.Context, nodeID string, relType models.RelationshipType, limit int) ([]models.GraphNode, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	if limit <= 0 {
		limit = 25
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (a {id: $nodeID})-[r]->(m)
			WHERE type(r) = $relType
			RETURN m
			LIMIT $limit`, map[string]any{
			"nodeID":  nodeID,
			"relType": string(relType),
			"limit":   limit,
		})
		if err != nil {
			return nil, err
		}
		var out []models.GraphNode
		for records.Next(ctx) {
			node, found := records.Record().Get("m")
			if !found {
				continue
			}
			neoNode, ok := node.(neo4j.Node)
			if !ok {
				continue
			}
			out = append(out, models.GraphNode{
				ID:         fmt.Sprint(neoNode.Props["id"]),
				Labels:     neoNode.Labels,
				Properties: neoNode.Props,
			})
		}
		return out, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graph: neighbors of %s: %w", nodeID, err)
	}
	nodes, _ := result.([]models.GraphNode)
	return nodes, nil
}

// Close shuts down the driver's connection pool.
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

// sanitizeLabels filters labels down to safe Cypher identifiers, since
// they're interpolated directly into the query text.
func sanitizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if s := sanitizeLabel(l); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
