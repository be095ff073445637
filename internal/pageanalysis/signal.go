// Package pageanalysis extracts per-page signals, classifies page type and
// duplication, and assembles the PageManifest that downstream stages use to
// skip boilerplate and duplicate pages (spec.md §4.3, invariants I2/I3).
package pageanalysis

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/insurdocs/pipeline/internal/models"
)

var wsCollapse = regexp.MustCompile(`\s+`)

// ExtractSignal computes the cheap, position-independent signals used to
// classify a page and detect duplicates before any LLM call is made.
func ExtractSignal(documentID string, page models.Page) models.PageSignal {
	normalized := normalizeForFingerprint(page.PlainText)
	return models.PageSignal{
		DocumentID:          documentID,
		PageNumber:          page.PageNumber,
		TextDensity:         textDensity(page),
		HasTables:           page.Metadata.HasTables,
		VisualFingerprint:   fingerprint(normalized),
		LexicalFingerprint:  lexicalFingerprint(page.PlainText),
	}
}

// textDensity is characters of plain text per unit page area; a near-blank
// or pure-image page (scanned cover sheet) yields a value near zero.
func textDensity(page models.Page) float64 {
	area := page.Dimensions.Width * page.Dimensions.Height
	if area <= 0 {
		area = 612 * 792
	}
	return float64(len(strings.TrimSpace(page.PlainText))) / area
}

// normalizeForFingerprint lowercases, strips digits and whitespace runs, so
// pages differing only by a date stamp or page number still fingerprint
// identically (boilerplate detection, I3).
func normalizeForFingerprint(text string) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return wsCollapse.ReplaceAllString(b.String(), " ")
}

func fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(normalized)))
	return hex.EncodeToString(sum[:])
}

// lexicalFingerprint hashes the first and last 200 characters together,
// catching near-duplicates (reprinted declarations pages with a changed
// endorsement list in the middle) that a full-text hash would miss.
func lexicalFingerprint(text string) string {
	t := strings.TrimSpace(text)
	head := t
	if len(head) > 200 {
		head = head[:200]
	}
	tail := t
	if len(tail) > 200 {
		tail = tail[len(tail)-200:]
	}
	sum := sha256.Sum256([]byte(head + "|" + tail))
	return hex.EncodeToString(sum[:])
}
