package pageanalysis

import (
	"regexp"
	"sort"

	"github.com/insurdocs/pipeline/internal/models"
)

// formNumberRe matches ISO-style form numbers typically printed in a page
// footer, e.g. "CA 00 01 03 10" or "CG 20 10 07 04": two letters, then two
// to four space-separated two-to-four-digit groups (form number plus an
// optional edition date).
var formNumberRe = regexp.MustCompile(`\b[A-Z]{2}(?:\s?T)?\s+\d{2,4}(?:\s+\d{2,4}){1,3}\b`)

// lastLines is how many trailing lines of a page's plain text count as its
// "footer" for scanning purposes — form numbers are printed at the bottom.
const lastLines = 3

// ExtractFormReferences scans each page's footer lines for ISO form
// numbers, returning the deduplicated, sorted set found across the
// document. Feeds DocumentProfile.FormReferences, which the synthesis
// engine's base-form knowledge base and inference fallback key off of.
func ExtractFormReferences(pages []models.Page) []string {
	seen := make(map[string]bool)
	for _, p := range pages {
		for _, line := range footerLines(p.PlainText) {
			for _, m := range formNumberRe.FindAllString(line, -1) {
				seen[m] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

func footerLines(text string) []string {
	var lines []string
	start := 0
	for i, r := range text {
		if r == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])

	trimmed := make([]string, 0, len(lines))
	for _, l := range lines {
		if len(trimmedSpace(l)) > 0 {
			trimmed = append(trimmed, l)
		}
	}
	if len(trimmed) <= lastLines {
		return trimmed
	}
	return trimmed[len(trimmed)-lastLines:]
}

func trimmedSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }
