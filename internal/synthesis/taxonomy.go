// Package synthesis reconciles endorsement modifications against base-form
// provisions into EffectiveCoverage/EffectiveExclusion records — the
// deterministic post-extraction step described in spec.md §4.11 — plus the
// LLM-backed description and missing-provision inference fallbacks.
package synthesis

import (
	"strings"

	"github.com/insurdocs/pipeline/internal/keyword"
)

// taxonomyEntry is one curated standard ISO provision with common
// vendor-spelling variations, used to assign a stable canonical_id
// regardless of which exact wording a given form uses.
type taxonomyEntry struct {
	canonicalID string
	variations  []string
}

// coverageTaxonomy and exclusionTaxonomy are static, code-level tables;
// spec.md §4.11 step 6 calls for a fuzzy lookup against a curated table
// before falling back to a slug of the normalized name.
var coverageTaxonomy = []taxonomyEntry{
	{"bodily_injury_liability", []string{"bodily injury liability", "bodily injury", "bi liability"}},
	{"property_damage_liability", []string{"property damage liability", "property damage"}},
	{"personal_injury_protection", []string{"personal injury protection", "pip", "no-fault benefits"}},
	{"uninsured_motorist", []string{"uninsured motorist", "uninsured motorist coverage", "um coverage"}},
	{"underinsured_motorist", []string{"underinsured motorist", "uim coverage"}},
	{"medical_payments", []string{"medical payments", "medpay", "med pay"}},
	{"comprehensive_physical_damage", []string{"comprehensive", "other than collision", "otc"}},
	{"collision", []string{"collision", "collision coverage"}},
	{"general_liability", []string{"commercial general liability", "general liability", "cgl"}},
	{"products_completed_operations", []string{"products-completed operations", "products completed operations"}},
	{"business_income", []string{"business income", "business interruption"}},
	{"building_and_personal_property", []string{"building and personal property", "bpp"}},
	{"inland_marine_equipment", []string{"contractors equipment", "inland marine", "scheduled equipment"}},
}

var exclusionTaxonomy = []taxonomyEntry{
	{"war_and_military_action", []string{"war", "military action", "warlike action"}},
	{"nuclear_hazard", []string{"nuclear hazard", "nuclear energy liability"}},
	{"pollution", []string{"pollution", "pollution exclusion", "contamination"}},
	{"intentional_acts", []string{"expected or intended injury", "intentional acts"}},
	{"professional_services", []string{"professional services", "professional liability"}},
	{"employment_related_practices", []string{"employment-related practices", "employment practices"}},
	{"cyber_incident", []string{"access or disclosure", "cyber incident", "electronic data"}},
	{"flood", []string{"flood", "surface water", "water damage"}},
	{"earth_movement", []string{"earth movement", "earthquake"}},
	{"wear_and_tear", []string{"wear and tear", "mechanical breakdown", "inherent vice"}},
}

// defaultFuzzyThreshold applies when CanonicalID's fuzzyThreshold argument
// (config.Synthesis's TaxonomyFuzzyThreshold) is 0 or negative.
const defaultFuzzyThreshold = 0.82

// CanonicalID resolves a provision name to a taxonomy canonical_id via exact
// substring match first, then fuzzy (normalized Levenshtein similarity)
// match against each entry's known variations; falling back to a slug of
// the normalized name when nothing clears the threshold.
func CanonicalID(kind string, name string, fuzzyThreshold float64) string {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = defaultFuzzyThreshold
	}
	table := coverageTaxonomy
	if kind == "exclusion" {
		table = exclusionTaxonomy
	}
	normalized := normalize(name)

	for _, entry := range table {
		for _, v := range entry.variations {
			if normalized == v || strings.Contains(normalized, v) {
				return entry.canonicalID
			}
		}
	}

	best := ""
	bestScore := 0.0
	for _, entry := range table {
		for _, v := range entry.variations {
			score := similarity(normalized, v)
			if score > bestScore {
				bestScore = score
				best = entry.canonicalID
			}
		}
	}
	if bestScore >= fuzzyThreshold {
		return best
	}
	return slug(normalized)
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// similarity converts Levenshtein edit distance into a 0..1 score relative
// to the longer string's length: "bodily injury" against "bodily injury
// liability" is 1 - 10/23, about 0.57 (CanonicalID's substring check, not
// this score, matches such pairs).
func similarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := keyword.LevenshteinDistance(a, b)
	score := 1 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

func slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
