package extraction

import (
	"regexp"
	"strings"

	"github.com/insurdocs/pipeline/internal/models"
)

// Deterministic patterns for entities that are cheaper and more reliably
// found with a regex than an LLM call: policy/form numbers follow rigid
// vendor conventions (e.g. ISO form numbers), so a model call would spend
// tokens reproducing what a pattern already gets right.
var (
	formNumberRe  = regexp.MustCompile(`\b([A-Z]{2}\s?[A-Z0-9]{1,3}\s?\d{2}\s?\d{2}(?:\s?\d{2})?)\b`)
	policyNumRe   = regexp.MustCompile(`\b(?:Policy\s*(?:No\.?|Number)\s*:?\s*)([A-Z0-9-]{5,20})\b`)
	dollarRe      = regexp.MustCompile(`\$\s?[\d,]+(?:\.\d{2})?`)
)

// ExtractDeterministic scans raw section text for entities recognizable by
// fixed pattern alone, independent of any LLM call. Used to backstop the LLM
// extractor's entity list and to extract Form references even from sections
// RequiresLLM is false for.
func ExtractDeterministic(sectionType models.PageType, chunkID, text string) []models.EntityMention {
	var mentions []models.EntityMention

	for _, m := range formNumberRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[2]:m[3]]
		mentions = append(mentions, models.EntityMention{
			Type:            models.EntityForm,
			RawText:         raw,
			NormalizedValue: strings.ToUpper(strings.Join(strings.Fields(raw), " ")),
			Confidence:      0.9,
			SpanStart:       m[2],
			SpanEnd:         m[3],
			SourceChunkID:   chunkID,
			Source:          models.MentionSourceDeterministic,
		})
	}

	if sectionType == models.PageDeclarations {
		if loc := policyNumRe.FindStringSubmatchIndex(text); loc != nil {
			raw := text[loc[2]:loc[3]]
			mentions = append(mentions, models.EntityMention{
				Type:            models.EntityPolicy,
				RawText:         raw,
				NormalizedValue: strings.ToUpper(raw),
				Confidence:      0.85,
				SpanStart:       loc[2],
				SpanEnd:         loc[3],
				SourceChunkID:   chunkID,
				Source:          models.MentionSourceDeterministic,
			})
		}
	}

	return mentions
}

// Reconcile merges deterministic mentions into an LLM extractor's entity
// list, keyed by (Type, NormalizedValue). An LLM mention always wins over
// a deterministic one at the same key (spec.md §4.7): the regex pass only
// backstops entities the LLM missed entirely.
func Reconcile(llmMentions, deterministic []models.EntityMention) []models.EntityMention {
	seen := make(map[string]bool, len(llmMentions))
	for _, m := range llmMentions {
		seen[reconcileKey(m)] = true
	}
	out := append([]models.EntityMention{}, llmMentions...)
	for _, m := range deterministic {
		if seen[reconcileKey(m)] {
			continue
		}
		out = append(out, m)
	}
	return out
}

func reconcileKey(m models.EntityMention) string {
	return string(m.Type) + "|" + m.NormalizedValue
}

// ExtractDollarAmounts returns every dollar-formatted substring, used by the
// tables stage's SOV/loss-run fallback when a schedule section has no
// structural table (e.g. amounts described in prose).
func ExtractDollarAmounts(text string) []string {
	return dollarRe.FindAllString(text, -1)
}
