// Package relationships runs the ENRICHED stage's second pass: given the
// canonical entities resolved for a document, an LLM call proposes typed
// Relationships between them over the closed RelationshipType vocabulary
// (spec.md §4.8). Unlike the raw per-section extraction call, this one
// reasons over entities already merged across the whole document.
package relationships

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insurdocs/pipeline/internal/llm"
	"github.com/insurdocs/pipeline/internal/models"
	"github.com/insurdocs/pipeline/internal/pipelineerr"
)

var validTypes = map[models.RelationshipType]bool{
	models.RelHasInsured:  true,
	models.RelHasCoverage: true,
	models.RelModifiedBy:  true,
	models.RelHasLocation: true,
	models.RelHasClaim:    true,
	models.RelSameAs:      true,
	models.RelSupportedBy: true,
}

const systemPrompt = `You connect canonical insurance entities with typed relationships. ` +
	`Allowed relationship types: HAS_INSURED, HAS_COVERAGE, MODIFIED_BY, HAS_LOCATION, HAS_CLAIM, SAME_AS, SUPPORTED_BY. ` +
	`Respond with a single JSON object: {"relationships": [{"source_id":"...","target_id":"...","type":"...","confidence":0.0}]}. ` +
	`Only use entity IDs from the provided list. Do not invent new entities. Do not include any text outside the JSON object.`

// Infer proposes relationships among entities, dropping any that reference
// an unknown entity ID or a type outside the closed vocabulary — the LLM's
// output is advisory, not authoritative, over the vocabulary boundary.
func Infer(ctx context.Context, client llm.Client, entities []models.CanonicalEntity) ([]models.Relationship, error) {
	if len(entities) < 2 {
		return nil, nil
	}
	known := make(map[string]bool, len(entities))
	var b strings.Builder
	for _, e := range entities {
		known[e.ID] = true
		name, _ := e.Attributes["name"].(string)
		fmt.Fprintf(&b, "- %s (%s) %s\n", e.ID, e.Type, name)
	}

	raw, err := client.GenerateJSON(ctx, systemPrompt, b.String())
	if err != nil {
		return nil, pipelineerr.Transientf("relationships.Infer", "llm call failed: %w", err)
	}

	var payload struct {
		Relationships []struct {
			SourceID   string  `json:"source_id"`
			TargetID   string  `json:"target_id"`
			Type       string  `json:"type"`
			Confidence float64 `json:"confidence"`
		} `json:"relationships"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, pipelineerr.SchemaMismatchf("relationships.Infer", "invalid JSON: %w", err)
	}

	out := make([]models.Relationship, 0, len(payload.Relationships))
	for i, rel := range payload.Relationships {
		t := models.RelationshipType(rel.Type)
		if !validTypes[t] || !known[rel.SourceID] || !known[rel.TargetID] {
			continue
		}
		out = append(out, models.Relationship{
			ID:                fmt.Sprintf("rel:%d:%s:%s", i, rel.SourceID, rel.TargetID),
			SourceCanonicalID: rel.SourceID,
			TargetCanonicalID: rel.TargetID,
			Type:              t,
			Confidence:        rel.Confidence,
		})
	}
	return out, nil
}
