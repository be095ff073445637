package synthesis

import (
	"sort"

	"github.com/insurdocs/pipeline/internal/models"
)

// buildCoverage applies steps 2-6 for one coverage group: resolve effective
// state by priority, collect carve-backs/conditions, score confidence,
// union page citations, and assign a canonical id.
func buildCoverage(cfg Config, name string, mods []models.EndorsementModification) models.EffectiveCoverage {
	state := coverageState(mods)
	carveBacks, conditions := collectCarveBacksAndConditions(mods)
	pages, sourceText := unionCitations(mods)

	return models.EffectiveCoverage{ProvisionCore: models.ProvisionCore{
		CanonicalID:     CanonicalID("coverage", name, cfg.FuzzyThreshold),
		Name:            name,
		EffectiveState:  state,
		CarveBacks:      carveBacks,
		Conditions:      conditions,
		Sources:         sourcesOf(mods),
		Confidence:      confidenceOf(mods),
		Severity:        firstSeverity(mods),
		PageNumbers:     pages,
		SourceText:      sourceText,
		IsModified:      true,
		SynthesisMethod: "direct",
	}}
}

func buildExclusion(cfg Config, name string, mods []models.EndorsementModification) models.EffectiveExclusion {
	state := exclusionState(mods)
	carveBacks, conditions := collectCarveBacksAndConditions(mods)
	pages, sourceText := unionCitations(mods)

	return models.EffectiveExclusion{ProvisionCore: models.ProvisionCore{
		CanonicalID:     CanonicalID("exclusion", name, cfg.FuzzyThreshold),
		Name:            name,
		EffectiveState:  state,
		CarveBacks:      carveBacks,
		Conditions:      conditions,
		Sources:         sourcesOf(mods),
		Confidence:      confidenceOf(mods),
		Severity:        firstSeverity(mods),
		PageNumbers:     pages,
		SourceText:      sourceText,
		IsModified:      true,
		SynthesisMethod: "direct",
	}}
}

// coverageState applies step 2's priority order for coverages: Removed >
// Restored/Expanded > Narrowed/Partial > Introduced/Excluded.
func coverageState(mods []models.EndorsementModification) models.EffectiveState {
	has := effectSet(mods)
	switch {
	case has[models.EffectRemoves]:
		return models.StateRemoved
	case has[models.EffectRestores] || has[models.EffectExpands]:
		return models.StateExpandedCoverage
	case has[models.EffectNarrows] || has[models.EffectLimits]:
		return models.StateLimited
	case has[models.EffectIntroduces] || has[models.EffectAdds]:
		return models.StateAdded
	default:
		return models.StatePartially
	}
}

// exclusionState applies step 2's priority order for exclusions: Removed >
// Partially Excluded (narrowed) > Excluded (introduced).
func exclusionState(mods []models.EndorsementModification) models.EffectiveState {
	has := effectSet(mods)
	switch {
	case has[models.EffectRemoves] || has[models.EffectRestores]:
		return models.StateRemoved
	case has[models.EffectNarrows] || has[models.EffectLimits]:
		return models.StatePartiallyExcluded
	case has[models.EffectIntroduces] || has[models.EffectAdds] || has[models.EffectExpands]:
		return models.StateExcluded
	default:
		return models.StatePartiallyExcluded
	}
}

func effectSet(mods []models.EndorsementModification) map[models.EffectCategory]bool {
	out := make(map[models.EffectCategory]bool, len(mods))
	for _, m := range mods {
		out[m.EffectCategory] = true
	}
	return out
}

// collectCarveBacksAndConditions gathers narrowing modifications' scope text
// as carve-backs and every modification's condition text, deduplicated.
func collectCarveBacksAndConditions(mods []models.EndorsementModification) (carveBacks, conditions []string) {
	cbSeen := make(map[string]bool)
	condSeen := make(map[string]bool)
	for _, m := range mods {
		if m.EffectCategory == models.EffectNarrows && m.Scope != "" && !cbSeen[m.Scope] {
			cbSeen[m.Scope] = true
			carveBacks = append(carveBacks, m.Scope)
		}
		if m.Condition != "" && !condSeen[m.Condition] {
			condSeen[m.Condition] = true
			conditions = append(conditions, m.Condition)
		}
	}
	return
}

// confidenceOf implements step 4: base 0.7 + boosts, capped at 0.98.
func confidenceOf(mods []models.EndorsementModification) float64 {
	conf := 0.7
	detailedScope, severityPresent, fullyCategorized := false, false, true
	for _, m := range mods {
		if m.Scope != "" || m.VerbatimLanguage != "" {
			detailedScope = true
		}
		if m.Severity != "" {
			severityPresent = true
		}
		if m.EffectCategory == "" {
			fullyCategorized = false
		}
	}
	if detailedScope {
		conf += 0.1
	}
	if severityPresent {
		conf += 0.05
	}
	if fullyCategorized {
		conf += 0.1
	}
	if conf > 0.98 {
		conf = 0.98
	}
	return conf
}

func firstSeverity(mods []models.EndorsementModification) string {
	for _, m := range mods {
		if m.Severity != "" {
			return m.Severity
		}
	}
	return ""
}

// unionCitations implements step 5: union all page_numbers, take the first
// non-empty source_text/verbatim_language.
func unionCitations(mods []models.EndorsementModification) ([]int, string) {
	pageSet := make(map[int]bool)
	var sourceText string
	for _, m := range mods {
		for _, p := range m.PageNumbers {
			pageSet[p] = true
		}
		if sourceText == "" {
			if m.VerbatimLanguage != "" {
				sourceText = m.VerbatimLanguage
			} else if m.SourceText != "" {
				sourceText = m.SourceText
			}
		}
	}
	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, sourceText
}

func sourcesOf(mods []models.EndorsementModification) []models.ProvisionSource {
	out := make([]models.ProvisionSource, 0, len(mods))
	for _, m := range mods {
		out = append(out, models.ProvisionSource{
			EndorsementRef: m.EndorsementRef,
			PageNumbers:    m.PageNumbers,
			SourceText:     m.SourceText,
		})
	}
	return out
}

// baseAsProvision implements step 7: a base provision with no modifying
// endorsement converts 1-for-1 into a standard, unmodified entry.
func baseAsProvision(cfg Config, kind string, base models.BaseProvision, state models.EffectiveState) models.ProvisionCore {
	return models.ProvisionCore{
		CanonicalID:         CanonicalID(kind, base.Name, cfg.FuzzyThreshold),
		Name:                base.Name,
		EffectiveState:      state,
		Sources:             []models.ProvisionSource{{IsBaseForm: true, PageNumbers: base.PageNumbers, SourceText: base.SourceText}},
		Confidence:          0.9,
		PageNumbers:         base.PageNumbers,
		SourceText:          base.SourceText,
		IsStandardProvision: true,
		IsModified:          false,
		SynthesisMethod:     "direct",
	}
}
