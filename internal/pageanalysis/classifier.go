package pageanalysis

import (
	"strings"

	"github.com/insurdocs/pipeline/internal/models"
)

// keywordRule scores a page type by the presence of anchor phrases, weighted
// by specificity; the same weighted-score-then-threshold shape as the
// teacher's content/filename scorers, generalized from filenames to page text.
type keywordRule struct {
	pageType models.PageType
	phrases  map[string]float64 // phrase -> weight
}

var rules = []keywordRule{
	{models.PageDeclarations, map[string]float64{
		"declarations": 5, "named insured": 4, "policy period": 3, "effective date": 2,
	}},
	{models.PageCoverages, map[string]float64{
		"insuring agreement": 5, "we will pay": 4, "coverage a": 3, "coverage b": 3, "limits of insurance": 3,
	}},
	{models.PageConditions, map[string]float64{
		"conditions": 4, "duties in the event": 4, "cancellation": 2, "subrogation": 3,
	}},
	{models.PageExclusions, map[string]float64{
		"exclusions": 5, "this insurance does not apply": 4, "we will not pay": 3,
	}},
	{models.PageEndorsements, map[string]float64{
		"endorsement": 5, "this endorsement changes the policy": 5, "schedule of forms": 2,
	}},
	{models.PageSchedule, map[string]float64{
		"schedule of locations": 4, "statement of values": 4, "schedule of vehicles": 4, "loss run": 4,
	}},
}

const (
	minConfidence      = 0.35
	boilerplateDensity = 0.00015
)

// Classify assigns a PageType and a ShouldProcess decision. Pages below the
// density floor with no table are boilerplate (cover sheets, blank
// separators); everything else is scored against keyword rules and the
// highest-weight match wins, defaulting to PageBoilerplate when nothing
// clears minConfidence.
func Classify(signal models.PageSignal, page models.Page) models.PageClassification {
	c := models.PageClassification{DocumentID: signal.DocumentID, PageNumber: signal.PageNumber}

	if signal.TextDensity < boilerplateDensity && !signal.HasTables {
		c.PageType = models.PageBoilerplate
		c.Confidence = 1.0
		c.ShouldProcess = false
		return c
	}

	lower := strings.ToLower(page.PlainText)
	bestType := models.PageBoilerplate
	bestScore := 0.0
	for _, rule := range rules {
		score := 0.0
		var maxWeight float64
		for phrase, weight := range rule.phrases {
			if weight > maxWeight {
				maxWeight = weight
			}
			if strings.Contains(lower, phrase) {
				score += weight
			}
		}
		normalized := score / (maxWeight * float64(len(rule.phrases)))
		if normalized > bestScore {
			bestScore = normalized
			bestType = rule.pageType
		}
	}

	if signal.HasTables && bestType == models.PageBoilerplate {
		bestType = models.PageSchedule
		bestScore = 0.5
	}

	c.PageType = bestType
	c.Confidence = bestScore
	c.ShouldProcess = bestScore >= minConfidence && bestType != models.PageBoilerplate
	return c
}

// DetectDuplicates marks pages whose VisualFingerprint repeats an earlier
// page as duplicates of that earlier page (I3): identical boilerplate pages
// (e.g. a reprinted state amendatory endorsement) are only processed once.
func DetectDuplicates(classifications []models.PageClassification, signals []models.PageSignal) []models.PageClassification {
	seen := make(map[string]int) // fingerprint -> first page number
	bySig := make(map[int]models.PageSignal, len(signals))
	for _, s := range signals {
		bySig[s.PageNumber] = s
	}
	out := make([]models.PageClassification, len(classifications))
	for i, c := range classifications {
		out[i] = c
		sig, ok := bySig[c.PageNumber]
		if !ok {
			continue
		}
		if first, dup := seen[sig.VisualFingerprint]; dup && first != c.PageNumber {
			out[i].PageType = models.PageDuplicate
			out[i].ShouldProcess = false
			out[i].DuplicateOf = first
			continue
		}
		seen[sig.VisualFingerprint] = c.PageNumber
	}
	return out
}
