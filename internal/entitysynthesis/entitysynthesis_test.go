package entitysynthesis

import (
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func TestSlugify(t *testing.T) {
	if got := Slugify("Bodily Injury & Property Damage"); got != "bodily-injury-property-damage" {
		t.Errorf("Slugify() = %q", got)
	}
}

func TestRegistry_declarations(t *testing.T) {
	r := NewRegistry()
	ext := models.SectionExtraction{
		SectionType: models.PageDeclarations,
		Confidence:  0.9,
		Fields: map[string]any{
			"named_insured": "Acme Corp",
			"policy_number": "ABC-123",
		},
	}
	entities := r.Synthesize("doc1", ext)
	var haveOrg, havePolicy bool
	for _, e := range entities {
		if e.Type == models.EntityOrganization {
			haveOrg = true
		}
		if e.Type == models.EntityPolicy {
			havePolicy = true
		}
	}
	if !haveOrg || !havePolicy {
		t.Errorf("expected Organization and Policy entities, got %+v", entities)
	}
}

func TestRegistry_coveragesListField(t *testing.T) {
	r := NewRegistry()
	ext := models.SectionExtraction{
		SectionType: models.PageCoverages,
		Confidence:  0.8,
		Fields: map[string]any{
			"coverages": []any{
				map[string]any{"name": "Bodily Injury", "limit": "$1,000,000"},
			},
		},
	}
	entities := r.Synthesize("doc1", ext)
	if len(entities) != 1 || entities[0].Type != models.EntityCoverage {
		t.Errorf("entities = %+v", entities)
	}
}

func TestRegistry_unknownSectionFallsBackToMentions(t *testing.T) {
	r := NewRegistry()
	ext := models.SectionExtraction{
		SectionType: models.PageSchedule,
		Entities: []models.EntityMention{
			{Type: models.EntityVehicle, RawText: "2022 Ford Transit", NormalizedValue: "2022 Ford Transit", Confidence: 0.7},
		},
	}
	entities := r.Synthesize("doc1", ext)
	if len(entities) != 1 || entities[0].Type != models.EntityVehicle {
		t.Errorf("entities = %+v", entities)
	}
}
