package pageanalysis

import (
	"github.com/insurdocs/pipeline/internal/models"
)

// BuildManifest assembles the PageManifest from a document's per-page
// classifications: which pages to process (I2: only ShouldProcess pages
// continue to chunking), the profile's section boundaries (contiguous runs
// of the same PageType), and the page->section map used by the chunker.
func BuildManifest(documentID string, classifications []models.PageClassification) models.PageManifest {
	m := models.PageManifest{
		DocumentID:     documentID,
		PageSectionMap: make(map[int]models.PageType, len(classifications)),
	}

	total := len(classifications)
	for _, c := range classifications {
		m.PageSectionMap[c.PageNumber] = c.PageType
		if c.ShouldProcess {
			m.PagesToProcess = append(m.PagesToProcess, c.PageNumber)
		} else {
			m.PagesSkipped = append(m.PagesSkipped, c.PageNumber)
		}
	}
	if total > 0 {
		m.ProcessingRatio = float64(len(m.PagesToProcess)) / float64(total)
	}
	m.Profile = buildProfile(classifications)
	return m
}

// buildProfile groups consecutive pages of the same type into section
// boundaries and classifies the overall document type from the section mix.
func buildProfile(classifications []models.PageClassification) models.DocumentProfile {
	var boundaries []models.SectionBoundary
	var cur *models.SectionBoundary
	counts := make(map[models.PageType]int)

	for _, c := range classifications {
		counts[c.PageType]++
		if cur != nil && cur.Type == c.PageType {
			cur.EndPage = c.PageNumber
			continue
		}
		if cur != nil {
			boundaries = append(boundaries, *cur)
		}
		cur = &models.SectionBoundary{StartPage: c.PageNumber, EndPage: c.PageNumber, Type: c.PageType, Confidence: c.Confidence}
	}
	if cur != nil {
		boundaries = append(boundaries, *cur)
	}

	docType := "unknown"
	switch {
	case counts[models.PageDeclarations] > 0 && counts[models.PageEndorsements] > 0:
		docType = "policy"
	case counts[models.PageSchedule] > 0 && counts[models.PageDeclarations] == 0:
		docType = "schedule"
	case counts[models.PageDeclarations] > 0:
		docType = "quote"
	}

	return models.DocumentProfile{
		DocumentType:      docType,
		Confidence:        sectionConfidence(boundaries),
		SectionBoundaries: boundaries,
	}
}

func sectionConfidence(boundaries []models.SectionBoundary) float64 {
	if len(boundaries) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boundaries {
		sum += b.Confidence
	}
	return sum / float64(len(boundaries))
}
