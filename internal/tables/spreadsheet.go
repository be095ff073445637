package tables

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/insurdocs/pipeline/internal/models"
)

// ExtractSpreadsheetTables reads an .xlsx workbook and returns one TableJSON
// per non-empty sheet, preserving the row/column grid so CanonicalizeSOV and
// CanonicalizeLossRun can resolve columns by header alias. Unlike the
// extract package's flat tab-separated text, this keeps cells addressable.
func ExtractSpreadsheetTables(path string, documentID string) ([]models.TableJSON, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", path, err)
	}
	defer f.Close()

	var out []models.TableJSON
	for idx, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		maxCols := 0
		for _, r := range rows {
			if len(r) > maxCols {
				maxCols = len(r)
			}
		}
		cells := make([]models.TableCell, 0, len(rows)*maxCols)
		for r, row := range rows {
			for c, v := range row {
				if v == "" {
					continue
				}
				cells = append(cells, models.TableCell{Row: r, Col: c, Text: v, IsHeader: r == 0})
			}
		}
		out = append(out, models.TableJSON{
			TableID:          fmt.Sprintf("%s-sheet%d", documentID, idx),
			DocumentID:       documentID,
			TableIndex:       idx,
			Cells:            cells,
			HeaderRows:       []int{0},
			NumRows:          len(rows),
			NumCols:          maxCols,
			ExtractionSource: models.TableSourceStructural,
			Confidence:       0.95,
		})
	}
	return out, nil
}
