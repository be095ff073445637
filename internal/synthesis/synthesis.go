package synthesis

import (
	"sort"

	"github.com/insurdocs/pipeline/internal/models"
)

// Config tunes the synthesis engine; zero value uses package defaults.
type Config struct {
	FuzzyThreshold float64
}

// SynthesizeCoverages runs the 7-step algorithm for coverages: group by
// normalized impacted-coverage name, resolve effective state, collect
// carve-backs/conditions, score confidence, propagate citations, assign a
// canonical id, and seed from base provisions when no endorsements exist.
func SynthesizeCoverages(cfg Config, mods []models.EndorsementModification, baseCoverages []models.BaseProvision) []models.EffectiveCoverage {
	groups := groupByProvision(mods, func(m models.EndorsementModification) string { return m.ImpactedCoverage })

	var out []models.EffectiveCoverage
	seen := make(map[string]bool)
	for name, group := range groups {
		if name == "" {
			continue
		}
		seen[normalize(name)] = true
		out = append(out, buildCoverage(cfg, name, group))
	}

	// Step 7: base provisions with no modifying endorsement become
	// "Covered" / standard / unmodified entries.
	for _, base := range baseCoverages {
		if seen[normalize(base.Name)] {
			continue
		}
		out = append(out, models.EffectiveCoverage{ProvisionCore: baseAsProvision(cfg, "coverage", base, models.StateCovered)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SynthesizeExclusions mirrors SynthesizeCoverages for exclusions; the
// effective-state priority order differs (Removed > Partially Excluded >
// Excluded), per spec.md §4.11 step 2.
func SynthesizeExclusions(cfg Config, mods []models.EndorsementModification, baseExclusions []models.BaseProvision) []models.EffectiveExclusion {
	groups := groupByProvision(mods, func(m models.EndorsementModification) string { return m.ImpactedExclusion })

	var out []models.EffectiveExclusion
	seen := make(map[string]bool)
	for name, group := range groups {
		if name == "" {
			continue
		}
		seen[normalize(name)] = true
		out = append(out, buildExclusion(cfg, name, group))
	}

	for _, base := range baseExclusions {
		if seen[normalize(base.Name)] {
			continue
		}
		out = append(out, models.EffectiveExclusion{ProvisionCore: baseAsProvision(cfg, "exclusion", base, models.StateExcluded)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func groupByProvision(mods []models.EndorsementModification, key func(models.EndorsementModification) string) map[string][]models.EndorsementModification {
	groups := make(map[string][]models.EndorsementModification)
	for _, m := range mods {
		k := key(m)
		if k == "" {
			continue
		}
		norm := normalize(k)
		groups[norm] = append(groups[norm], m)
	}
	// re-key by the first-seen display name so output keeps original casing
	display := make(map[string][]models.EndorsementModification, len(groups))
	firstName := make(map[string]string)
	for _, m := range mods {
		k := key(m)
		if k == "" {
			continue
		}
		norm := normalize(k)
		if _, ok := firstName[norm]; !ok {
			firstName[norm] = k
		}
	}
	for norm, ms := range groups {
		display[firstName[norm]] = ms
	}
	return display
}
