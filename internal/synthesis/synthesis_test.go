package synthesis

import (
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func TestSynthesizeCoverages_endorsementOverridesBase(t *testing.T) {
	base := []models.BaseProvision{
		{Name: "Business Income Coverage", Kind: "coverage", PageNumbers: []int{4}, SourceText: "base form text"},
		{Name: "Towing", Kind: "coverage", PageNumbers: []int{5}},
	}
	mods := []models.EndorsementModification{
		{
			EndorsementRef:   "CP 15 30",
			ImpactedCoverage: "Business Income Coverage",
			EffectCategory:   models.EffectExpands,
			Scope:            "extended period of indemnity",
			Severity:         "Material",
			PageNumbers:      []int{12},
			SourceText:       "extends the period of indemnity",
		},
	}

	out := SynthesizeCoverages(Config{}, mods, base)
	if len(out) != 2 {
		t.Fatalf("expected 2 coverages (1 modified + 1 base passthrough), got %d", len(out))
	}

	var biCoverage, towing *models.EffectiveCoverage
	for i := range out {
		switch out[i].Name {
		case "Business Income Coverage":
			biCoverage = &out[i]
		case "Towing":
			towing = &out[i]
		}
	}
	if biCoverage == nil || towing == nil {
		t.Fatalf("missing expected coverages in %+v", out)
	}

	if biCoverage.EffectiveState != models.StateExpandedCoverage {
		t.Errorf("expected expanded state, got %s", biCoverage.EffectiveState)
	}
	if !biCoverage.IsModified {
		t.Error("expected modified coverage to be flagged IsModified")
	}
	if biCoverage.Confidence <= 0.7 {
		t.Errorf("expected confidence boosted above base 0.7, got %f", biCoverage.Confidence)
	}
	if len(biCoverage.PageNumbers) == 0 {
		t.Error("expected page numbers propagated from modification")
	}
	if biCoverage.CanonicalID == "" {
		t.Error("expected a canonical id to be assigned")
	}

	if towing.IsModified {
		t.Error("unmodified base provision should not be flagged IsModified")
	}
	if !towing.IsStandardProvision {
		t.Error("base passthrough should be flagged IsStandardProvision")
	}
	if towing.EffectiveState != models.StateCovered {
		t.Errorf("expected base coverage state Covered, got %s", towing.EffectiveState)
	}
}

func TestSynthesizeExclusions_removedByEndorsement(t *testing.T) {
	base := []models.BaseProvision{
		{Name: "Fellow Employee Exclusion", Kind: "exclusion", PageNumbers: []int{7}},
	}
	mods := []models.EndorsementModification{
		{
			EndorsementRef:    "CA 20 70",
			ImpactedExclusion: "Fellow Employee Exclusion",
			EffectCategory:    models.EffectRemoves,
			PageNumbers:       []int{14},
			SourceText:        "fellow employee exclusion does not apply",
		},
	}

	out := SynthesizeExclusions(Config{}, mods, base)
	if len(out) != 1 {
		t.Fatalf("expected 1 exclusion, got %d", len(out))
	}
	if out[0].EffectiveState != models.StateRemoved {
		t.Errorf("expected Removed state, got %s", out[0].EffectiveState)
	}
}

func TestSynthesizeExclusions_narrowedAddsCarveBack(t *testing.T) {
	mods := []models.EndorsementModification{
		{
			EndorsementRef:    "CG 21 47",
			ImpactedExclusion: "Pollution Exclusion",
			EffectCategory:    models.EffectNarrows,
			Scope:             "except for hostile fire",
			PageNumbers:       []int{9},
		},
	}

	out := SynthesizeExclusions(Config{}, mods, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 exclusion, got %d", len(out))
	}
	if out[0].EffectiveState != models.StatePartiallyExcluded {
		t.Errorf("expected Partially Excluded state, got %s", out[0].EffectiveState)
	}
	if len(out[0].CarveBacks) != 1 || out[0].CarveBacks[0] != "except for hostile fire" {
		t.Errorf("expected carve-back recorded, got %v", out[0].CarveBacks)
	}
}

func TestSynthesizeCoverages_noEndorsementsSeedsFromBaseOnly(t *testing.T) {
	base := []models.BaseProvision{{Name: "Collision Coverage", Kind: "coverage"}}
	out := SynthesizeCoverages(Config{}, nil, base)
	if len(out) != 1 {
		t.Fatalf("expected 1 coverage, got %d", len(out))
	}
	if out[0].SynthesisMethod != "direct" {
		t.Errorf("expected direct synthesis method, got %s", out[0].SynthesisMethod)
	}
	if len(out[0].Sources) == 0 {
		t.Error("I6: expected non-empty sources on a base-seeded provision")
	}
}

func TestSynthesizeCoverages_emptyInputsYieldEmpty(t *testing.T) {
	out := SynthesizeCoverages(Config{}, nil, nil)
	if len(out) != 0 {
		t.Fatalf("expected no coverages, got %d", len(out))
	}
}

func TestCanonicalID_exactAndFuzzyMatch(t *testing.T) {
	if got := CanonicalID("coverage", "Bodily Injury Liability", 0); got != "bodily_injury_liability" {
		t.Errorf("expected exact match canonical id, got %q", got)
	}
	if got := CanonicalID("coverage", "Bodily Injury Liabilty", 0.6); got != "bodily_injury_liability" {
		t.Errorf("expected fuzzy match canonical id, got %q", got)
	}
	if got := CanonicalID("coverage", "Totally Unrelated Rider", 0.99); got == "bodily_injury_liability" {
		t.Error("expected unrelated name not to match an unrelated taxonomy entry")
	}
}

func TestKnownBaseForm(t *testing.T) {
	provisions, ok := KnownBaseForm("CA0001")
	if !ok {
		t.Fatal("expected CA0001 to normalize and match CA 00 01")
	}
	if len(provisions) == 0 {
		t.Error("expected seeded provisions for a known base form")
	}
	if _, ok := KnownBaseForm("ZZ 99 99"); ok {
		t.Error("expected unknown form to report not found")
	}
}

func TestNeedsInference(t *testing.T) {
	low := []models.EffectiveCoverage{{ProvisionCore: models.ProvisionCore{Confidence: 0.4}}}
	if !NeedsInference(low, nil) {
		t.Error("expected low average confidence to require inference")
	}
	high := []models.EffectiveCoverage{{ProvisionCore: models.ProvisionCore{Confidence: 0.95}}}
	if NeedsInference(high, nil) {
		t.Error("expected high confidence to skip inference")
	}
	if !NeedsInference(nil, nil) {
		t.Error("expected no provisions at all to require inference")
	}
}

func TestGenerateDescription_templateMatch(t *testing.T) {
	desc := GenerateDescription(nil, nil, "exclusion", "Pollution", "")
	if desc == "" {
		t.Fatal("expected a non-empty description from the curated template")
	}
}

func TestGenerateDescription_fallbackWithoutClient(t *testing.T) {
	desc := GenerateDescription(nil, nil, "coverage", "Some Novel Endorsed Rider", "verbatim text")
	if desc == "" {
		t.Fatal("expected a non-empty fallback description")
	}
}

func TestModificationSummary(t *testing.T) {
	got := ModificationSummary("Business Income Coverage", "expands", "CP 15 30", "extended period of indemnity")
	want := "Business Income Coverage expanded by endorsement CP 15 30. Scope change: extended period of indemnity."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
