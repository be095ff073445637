// Package tables classifies structurally-captured tables into domain kinds
// (SOV, loss run, schedules) and canonicalizes their rows into typed domain
// rows (spec.md §4.4).
package tables

import (
	"strings"

	"github.com/insurdocs/pipeline/internal/models"
)

type headerRule struct {
	kind    models.TableKind
	columns map[string]float64 // header substring -> weight
}

var headerRules = []headerRule{
	{models.TablePropertySOV, map[string]float64{
		"total insured value": 5, "tiv": 4, "building value": 3, "contents value": 3, "location": 2, "address": 2,
	}},
	{models.TableLossRun, map[string]float64{
		"date of loss": 5, "claim number": 4, "paid": 3, "reserve": 3, "incurred": 2,
	}},
	{models.TableInlandMarineSchedule, map[string]float64{
		"scheduled item": 5, "equipment": 3, "serial number": 3, "agreed value": 3,
	}},
	{models.TableAutoSchedule, map[string]float64{
		"vin": 5, "vehicle": 4, "year make model": 3, "radius": 2,
	}},
	{models.TablePremiumSchedule, map[string]float64{
		"premium": 5, "rate": 3, "class code": 3,
	}},
}

const minTableConfidence = 0.3

// Classify scores the text of a table's first two rows against each candidate kind's
// vocabulary and returns the best match, defaulting to TableOther.
func Classify(tbl models.TableJSON) models.TableClassification {
	header := strings.ToLower(headerText(tbl))

	best := models.TableOther
	bestScore := 0.0
	for _, rule := range headerRules {
		score := 0.0
		var maxWeight float64
		for col, weight := range rule.columns {
			if weight > maxWeight {
				maxWeight = weight
			}
			if strings.Contains(header, col) {
				score += weight
			}
		}
		normalized := score / (maxWeight * float64(len(rule.columns)))
		if normalized > bestScore {
			bestScore = normalized
			best = rule.kind
		}
	}
	if bestScore < minTableConfidence {
		best = models.TableOther
	}
	return models.TableClassification{
		TableID:    tbl.TableID,
		Kind:       best,
		Confidence: bestScore,
	}
}

func headerText(tbl models.TableJSON) string {
	rows := make(map[int][]string)
	limit := 0
	if tbl.NumRows < 2 {
		limit = tbl.NumRows
	} else {
		limit = 2
	}
	for _, c := range tbl.Cells {
		if c.Row < limit {
			rows[c.Row] = append(rows[c.Row], c.Text)
		}
	}
	var out string
	for _, row := range rows {
		for _, cell := range row {
			out += " " + cell
		}
	}
	return out
}
