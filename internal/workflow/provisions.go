package workflow

import "github.com/insurdocs/pipeline/internal/models"

// modificationsFromExtractions projects the endorsements section's raw
// "modifications" field array (see internal/extraction/prompts.go's
// endorsementsInstructions JSON contract) into the typed input the
// synthesis engine expects (spec.md §4.11 input (a)).
func modificationsFromExtractions(extractions []models.SectionExtraction) []models.EndorsementModification {
	var mods []models.EndorsementModification
	for _, ex := range extractions {
		if ex.SectionType != models.PageEndorsements {
			continue
		}
		ref, _ := ex.Fields["endorsement_ref"].(string)
		items, _ := ex.Fields["modifications"].([]any)
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			mods = append(mods, models.EndorsementModification{
				EndorsementRef:    ref,
				ImpactedCoverage:  stringField(item, "impacted_coverage"),
				ImpactedExclusion: stringField(item, "impacted_exclusion"),
				EffectCategory:    models.EffectCategory(stringField(item, "effect_category")),
				Scope:             stringField(item, "scope"),
				Limit:             stringField(item, "limit"),
				Condition:         stringField(item, "condition"),
				VerbatimLanguage:  stringField(item, "verbatim_language"),
				PageNumbers:       ex.SourceChunks.PageRange,
				SourceText:        stringField(item, "verbatim_language"),
			})
		}
	}
	return mods
}

// baseProvisionsFromExtractions projects a dedicated coverages/exclusions
// section's raw list field into BaseProvisions (spec.md §4.11 input (c)) —
// used when no endorsement modifies that provision.
func baseProvisionsFromExtractions(extractions []models.SectionExtraction, sectionType models.PageType, listField, kind string) []models.BaseProvision {
	var out []models.BaseProvision
	for _, ex := range extractions {
		if ex.SectionType != sectionType {
			continue
		}
		items, _ := ex.Fields[listField].([]any)
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name := stringField(item, "name")
			if name == "" {
				continue
			}
			desc := stringField(item, "description")
			if desc == "" {
				desc = stringField(item, "scope_description")
			}
			out = append(out, models.BaseProvision{
				Name:        name,
				Kind:        kind,
				PageNumbers: ex.SourceChunks.PageRange,
				SourceText:  desc,
			})
		}
	}
	return out
}

// formReferencesFromMetadata reads back the ISO form numbers the
// AnalyzePages activity's footer scan stored on the document's metadata
// (DocumentProfile itself isn't persisted), feeding the synthesis engine's
// inference fallback.
func formReferencesFromMetadata(metadata map[string]any) []string {
	raw, _ := metadata["form_references"].([]any)
	if raw == nil {
		if typed, ok := metadata["form_references"].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
