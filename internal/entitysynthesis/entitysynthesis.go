// Package entitysynthesis turns one SectionExtraction's fields and entity
// mentions into typed CanonicalEntity candidates (still document-scoped, not
// yet merged across documents — that's internal/canonical's job). Each
// section kind has its own construction strategy because the shape of
// "fields" differs per extractor (spec.md §4.7).
package entitysynthesis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insurdocs/pipeline/internal/models"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify produces a stable, URL-safe identifier fragment from free text;
// combined with a document/entity-type prefix it forms a pre-canonical ID
// that two independent runs over the same text will reproduce identically.
func Slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func localID(documentID string, t models.EntityType, name string) string {
	return fmt.Sprintf("%s:%s:%s", documentID, t, Slugify(name))
}

// Strategy builds document-scoped candidate entities from one section's
// extraction.
type Strategy interface {
	Synthesize(documentID string, ext models.SectionExtraction) []models.CanonicalEntity
}

// Registry dispatches by section type, falling back to a strategy that
// simply promotes the extraction's raw EntityMentions when no richer
// field-based strategy is registered for that section.
type Registry struct {
	strategies map[models.PageType]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: map[models.PageType]Strategy{
		models.PageDeclarations: declarationsStrategy{},
		models.PageCoverages:    coveragesStrategy{},
		models.PageConditions:  conditionsStrategy{},
		models.PageExclusions:  exclusionsStrategy{},
		models.PageEndorsements: endorsementsStrategy{},
	}}
}

func (r *Registry) Synthesize(documentID string, ext models.SectionExtraction) []models.CanonicalEntity {
	if strat, ok := r.strategies[ext.SectionType]; ok {
		return strat.Synthesize(documentID, ext)
	}
	return mentionsToEntities(documentID, ext.Entities)
}

func mentionsToEntities(documentID string, mentions []models.EntityMention) []models.CanonicalEntity {
	out := make([]models.CanonicalEntity, 0, len(mentions))
	for _, m := range mentions {
		name := m.NormalizedValue
		if name == "" {
			name = m.RawText
		}
		out = append(out, models.CanonicalEntity{
			ID:         localID(documentID, m.Type, name),
			Type:       m.Type,
			Attributes: map[string]any{"name": name, "raw_text": m.RawText},
			Confidence: m.Confidence,
		})
	}
	return out
}

type declarationsStrategy struct{}

func (declarationsStrategy) Synthesize(documentID string, ext models.SectionExtraction) []models.CanonicalEntity {
	out := mentionsToEntities(documentID, ext.Entities)
	if name, ok := ext.Fields["named_insured"].(string); ok && name != "" {
		out = append(out, models.CanonicalEntity{
			ID:   localID(documentID, models.EntityOrganization, name),
			Type: models.EntityOrganization,
			Attributes: map[string]any{
				"name":    name,
				"address": ext.Fields["mailing_address"],
			},
			Confidence: ext.Confidence,
		})
	}
	if num, ok := ext.Fields["policy_number"].(string); ok && num != "" {
		out = append(out, models.CanonicalEntity{
			ID:   localID(documentID, models.EntityPolicy, num),
			Type: models.EntityPolicy,
			Attributes: map[string]any{
				"policy_number": num,
				"period_start":  ext.Fields["policy_period_start"],
				"period_end":    ext.Fields["policy_period_end"],
			},
			Confidence: ext.Confidence,
		})
	}
	return out
}

type coveragesStrategy struct{}

func (coveragesStrategy) Synthesize(documentID string, ext models.SectionExtraction) []models.CanonicalEntity {
	return fromListField(documentID, ext, "coverages", models.EntityCoverage)
}

type conditionsStrategy struct{}

func (conditionsStrategy) Synthesize(documentID string, ext models.SectionExtraction) []models.CanonicalEntity {
	return fromListField(documentID, ext, "conditions", models.EntityCondition)
}

type exclusionsStrategy struct{}

func (exclusionsStrategy) Synthesize(documentID string, ext models.SectionExtraction) []models.CanonicalEntity {
	return fromListField(documentID, ext, "exclusions", models.EntityExclusion)
}

type endorsementsStrategy struct{}

func (endorsementsStrategy) Synthesize(documentID string, ext models.SectionExtraction) []models.CanonicalEntity {
	out := mentionsToEntities(documentID, ext.Entities)
	ref, _ := ext.Fields["endorsement_ref"].(string)
	if ref == "" {
		return out
	}
	out = append(out, models.CanonicalEntity{
		ID:   localID(documentID, models.EntityEndorsement, ref),
		Type: models.EntityEndorsement,
		Attributes: map[string]any{
			"endorsement_ref": ref,
			"title":           ext.Fields["title"],
			"effective_date":  ext.Fields["effective_date"],
			"modifications":   ext.Fields["modifications"],
		},
		Confidence: ext.Confidence,
	})
	return out
}

// fromListField converts a "fields[key]" array of {"name": ...} items into
// CanonicalEntities of the given type; this covers coverages, conditions,
// and exclusions, whose extractor prompts all produce a named-item array.
func fromListField(documentID string, ext models.SectionExtraction, key string, entityType models.EntityType) []models.CanonicalEntity {
	items, ok := ext.Fields[key].([]any)
	if !ok {
		return mentionsToEntities(documentID, ext.Entities)
	}
	out := make([]models.CanonicalEntity, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := item["name"].(string)
		if name == "" {
			continue
		}
		out = append(out, models.CanonicalEntity{
			ID:         localID(documentID, entityType, name),
			Type:       entityType,
			Attributes: item,
			Confidence: ext.Confidence,
		})
	}
	return out
}
