package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insurdocs/pipeline/internal/llm"
	"github.com/insurdocs/pipeline/internal/models"
)

// lowConfidenceThreshold gates the LLM fallback described in spec.md §4.11's
// "Fallback inference" paragraph.
const lowConfidenceThreshold = 0.7

const inferencePrompt = `You are completing an insurance coverage synthesis.
Given the ISO base form references detected in this policy and a knowledge
base of typical provisions for those forms, infer any standard coverages or
exclusions not already captured from the endorsements and base-form text.

Respond with JSON only, matching this shape:
{"coverages": [{"name": "...", "scope": "..."}], "exclusions": [{"name": "...", "scope": "..."}]}

Omit any provision already present in the known-provisions list below.`

// InferMissingProvisions implements the fallback inference step: when the
// overall synthesized confidence is low and an LLM is configured, ask it to
// fill gaps using the detected form references and base-form knowledge base.
// Results are added with source "Inferred", reduced confidence, and
// synthesis_method "llm_inference" — they never overwrite a directly
// synthesized provision.
func InferMissingProvisions(ctx context.Context, client llm.Client, cfg Config, formRefs []string, knownCoverages []models.EffectiveCoverage, knownExclusions []models.EffectiveExclusion) ([]models.EffectiveCoverage, []models.EffectiveExclusion, error) {
	if client == nil || len(formRefs) == 0 {
		return nil, nil, nil
	}

	var kb strings.Builder
	for _, ref := range formRefs {
		provisions, ok := KnownBaseForm(ref)
		if !ok {
			continue
		}
		fmt.Fprintf(&kb, "%s:\n", ref)
		for _, p := range provisions {
			fmt.Fprintf(&kb, "  - %s (%s)\n", p.name, p.kind)
		}
	}
	if kb.Len() == 0 {
		return nil, nil, nil
	}

	var known strings.Builder
	for _, c := range knownCoverages {
		fmt.Fprintf(&known, "coverage: %s\n", c.Name)
	}
	for _, e := range knownExclusions {
		fmt.Fprintf(&known, "exclusion: %s\n", e.Name)
	}

	userPrompt := fmt.Sprintf("Detected base forms and their standard provisions:\n%s\nAlready captured:\n%s", kb.String(), known.String())

	raw, err := client.GenerateJSON(ctx, inferencePrompt, userPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("synthesis: inference call: %w", err)
	}

	var parsed struct {
		Coverages []struct {
			Name  string `json:"name"`
			Scope string `json:"scope"`
		} `json:"coverages"`
		Exclusions []struct {
			Name  string `json:"name"`
			Scope string `json:"scope"`
		} `json:"exclusions"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, nil, fmt.Errorf("synthesis: parse inference response: %w", err)
	}

	seenCoverage := make(map[string]bool, len(knownCoverages))
	for _, c := range knownCoverages {
		seenCoverage[normalize(c.Name)] = true
	}
	seenExclusion := make(map[string]bool, len(knownExclusions))
	for _, e := range knownExclusions {
		seenExclusion[normalize(e.Name)] = true
	}

	var inferredCoverages []models.EffectiveCoverage
	for _, c := range parsed.Coverages {
		if c.Name == "" || seenCoverage[normalize(c.Name)] {
			continue
		}
		inferredCoverages = append(inferredCoverages, models.EffectiveCoverage{ProvisionCore: inferredProvision("coverage", c.Name, c.Scope, cfg.FuzzyThreshold, models.StateCovered)})
	}

	var inferredExclusions []models.EffectiveExclusion
	for _, e := range parsed.Exclusions {
		if e.Name == "" || seenExclusion[normalize(e.Name)] {
			continue
		}
		inferredExclusions = append(inferredExclusions, models.EffectiveExclusion{ProvisionCore: inferredProvision("exclusion", e.Name, e.Scope, cfg.FuzzyThreshold, models.StateExcluded)})
	}

	return inferredCoverages, inferredExclusions, nil
}

// NeedsInference reports whether the synthesized set's overall confidence
// falls below the fallback threshold.
func NeedsInference(coverages []models.EffectiveCoverage, exclusions []models.EffectiveExclusion) bool {
	var sum float64
	var n int
	for _, c := range coverages {
		sum += c.Confidence
		n++
	}
	for _, e := range exclusions {
		sum += e.Confidence
		n++
	}
	if n == 0 {
		return true
	}
	return sum/float64(n) < lowConfidenceThreshold
}

func inferredProvision(kind, name, scope string, fuzzyThreshold float64, state models.EffectiveState) models.ProvisionCore {
	return models.ProvisionCore{
		CanonicalID:     CanonicalID(kind, name, fuzzyThreshold),
		Name:            name,
		EffectiveState:  state,
		Scope:           scope,
		Sources:         []models.ProvisionSource{{SourceText: "Inferred"}},
		Confidence:      0.4,
		SynthesisMethod: "llm_inference",
	}
}
