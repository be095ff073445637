package tables

import (
	"strconv"
	"strings"
	"time"

	"github.com/insurdocs/pipeline/internal/models"
)

// sovColumnAliases and lossRunColumnAliases map a canonical field name to
// header substrings that identify its column; the leftmost header cell
// containing any of the aliases wins.
var sovColumnAliases = map[string][]string{
	"location":  {"location number", "loc #", "location"},
	"address":   {"address", "street"},
	"building":  {"building value", "building limit", "building"},
	"contents":  {"contents value", "contents limit", "contents", "bpp"},
	"bi":        {"business income", "bi/eo", "rental value"},
	"tiv":       {"total insured value", "tiv", "total value"},
	"construction": {"construction", "construction type"},
	"year_built":   {"year built", "yr built"},
}

var lossRunColumnAliases = map[string][]string{
	"claim_number": {"claim number", "claim #", "claim no"},
	"date_of_loss": {"date of loss", "dol", "loss date"},
	"description":  {"description", "cause", "loss description"},
	"paid":         {"paid amount", "total paid", "paid"},
	"reserve":      {"reserve amount", "outstanding reserve", "reserve"},
	"status":       {"status", "claim status"},
}

// CanonicalizeSOV maps a classified property_sov table's rows into typed
// SOVItems, using the header row to locate each column by alias. Rows that
// fail to resolve numeric fields default to 0 rather than dropping the row,
// since partial rows still carry identifying information.
func CanonicalizeSOV(tbl models.TableJSON) []models.SOVItem {
	cols := resolveColumns(tbl, sovColumnAliases)
	rows := rowsByIndex(tbl)

	items := make([]models.SOVItem, 0, len(rows)-1)
	for r := 1; r < tbl.NumRows; r++ {
		row := rows[r]
		if len(row) == 0 {
			continue
		}
		item := models.SOVItem{
			TableID:          tbl.TableID,
			RowIndex:         r,
			LocationNumber:   cellAt(row, cols["location"]),
			Address:          cellAt(row, cols["address"]),
			BuildingValue:    parseMoney(cellAt(row, cols["building"])),
			ContentsValue:    parseMoney(cellAt(row, cols["contents"])),
			BusinessIncome:   parseMoney(cellAt(row, cols["bi"])),
			TotalInsuredValue: parseMoney(cellAt(row, cols["tiv"])),
			ConstructionType: cellAt(row, cols["construction"]),
			YearBuilt:        int(parseMoney(cellAt(row, cols["year_built"]))),
		}
		if item.TotalInsuredValue == 0 {
			item.TotalInsuredValue = item.BuildingValue + item.ContentsValue + item.BusinessIncome
		}
		if item.TotalInsuredValue < 0 {
			item.TotalInsuredValue = 0
		}
		items = append(items, item)
	}
	return items
}

// CanonicalizeLossRun maps a classified loss_run table's rows into typed
// LossRunClaims, normalizing DateOfLoss to ISO 8601 when a recognizable
// format is found; unparseable dates are left as the raw cell text so the
// row is not silently dropped, deferring to the invariant check at write time.
func CanonicalizeLossRun(tbl models.TableJSON) []models.LossRunClaim {
	cols := resolveColumns(tbl, lossRunColumnAliases)
	rows := rowsByIndex(tbl)

	claims := make([]models.LossRunClaim, 0, len(rows)-1)
	for r := 1; r < tbl.NumRows; r++ {
		row := rows[r]
		if len(row) == 0 {
			continue
		}
		claims = append(claims, models.LossRunClaim{
			TableID:       tbl.TableID,
			RowIndex:      r,
			ClaimNumber:   cellAt(row, cols["claim_number"]),
			DateOfLoss:    normalizeDate(cellAt(row, cols["date_of_loss"])),
			Description:   cellAt(row, cols["description"]),
			PaidAmount:    parseMoney(cellAt(row, cols["paid"])),
			ReserveAmount: parseMoney(cellAt(row, cols["reserve"])),
			Status:        strings.ToLower(strings.TrimSpace(cellAt(row, cols["status"]))),
		})
	}
	return claims
}

// ValidateSOVItems enforces spec.md §4.4 step 4's non-negative TotalInsuredValue
// invariant. CanonicalizeSOV already clamps negatives to 0; this is the
// final check run just before a row is persisted.
func ValidateSOVItems(items []models.SOVItem) []models.SOVItem {
	for i := range items {
		if items[i].TotalInsuredValue < 0 {
			items[i].TotalInsuredValue = 0
		}
	}
	return items
}

// ValidateLossRunClaims drops claims whose DateOfLoss didn't normalize to
// ISO 8601 in CanonicalizeLossRun: spec.md §4.4 step 4 requires a
// parseable date, so a row that still carries raw, unparsed text fails the
// invariant rather than being stored as-is. A claim with no date at all is
// left in place — the field is optional, not invalid.
func ValidateLossRunClaims(claims []models.LossRunClaim) []models.LossRunClaim {
	valid := make([]models.LossRunClaim, 0, len(claims))
	for _, c := range claims {
		if c.DateOfLoss != "" {
			if _, err := time.Parse("2006-01-02", c.DateOfLoss); err != nil {
				continue
			}
		}
		valid = append(valid, c)
	}
	return valid
}

func resolveColumns(tbl models.TableJSON, aliases map[string][]string) map[string]int {
	header := rowsByIndex(tbl)[0]
	resolved := make(map[string]int, len(aliases))
	for field, names := range aliases {
		resolved[field] = -1
		for i, h := range header {
			hLower := strings.ToLower(strings.TrimSpace(h))
			for _, alias := range names {
				if strings.Contains(hLower, alias) {
					resolved[field] = i
					break
				}
			}
			if resolved[field] != -1 {
				break
			}
		}
	}
	return resolved
}

func rowsByIndex(tbl models.TableJSON) map[int][]string {
	rows := make(map[int][]string)
	for _, c := range tbl.Cells {
		for len(rows[c.Row]) <= c.Col {
			rows[c.Row] = append(rows[c.Row], "")
		}
		rows[c.Row][c.Col] = c.Text
	}
	return rows
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.Trim(s, "()")
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if negative {
		v = -v
	}
	return v
}

var dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02", "Jan 2, 2006", "January 2, 2006"}

func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
