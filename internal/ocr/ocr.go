// Package ocr turns a source file into the pipeline's per-page representation:
// plain text, a markdown rendering, page dimensions, and any structurally
// detected tables (spec.md §4.2). PDF pages are walked individually so later
// stages can select a subset of pages (I2); other formats produce one
// synthetic page holding the whole document's text.
package ocr

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/insurdocs/pipeline/internal/extract"
	"github.com/insurdocs/pipeline/internal/models"
)

// Service extracts a document's pages.
type Service interface {
	ExtractPages(path string) ([]models.Page, error)
}

// NewService returns the default OCR service, dispatching by extension.
func NewService() Service {
	return &service{extractor: extract.NewExtractor()}
}

type service struct {
	extractor *extract.Extractor
}

func (s *service) ExtractPages(path string) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return extractPDFPages(path)
	}
	text, err := s.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return []models.Page{{
		PageNumber: 1,
		PlainText:  text,
		Markdown:   text,
		Metadata:   models.PageMetadata{Source: ext},
	}}, nil
}

// extractPDFPages walks a PDF page by page, producing plain text, a naive
// markdown rendering, page dimensions (from MediaBox), and row/column
// grouped structural tables detected from text positioning.
func extractPDFPages(path string) ([]models.Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF %s: %w", path, err)
	}
	defer f.Close()

	numPages := r.NumPage()
	pages := make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d plain text: %w", i, err)
		}

		dims := pageDimensions(p)
		tables := detectStructuralTables(p, i)

		pages = append(pages, models.Page{
			PageNumber: i,
			PlainText:  text,
			Markdown:   renderMarkdown(text, tables),
			Dimensions: dims,
			Metadata: models.PageMetadata{
				HasTables:        len(tables) > 0,
				StructuralTables: tables,
				Source:           ".pdf",
			},
		})
	}
	return pages, nil
}

// pageDimensions reads the page's MediaBox, falling back to US Letter at 72dpi
// when absent (scanned/malformed pages commonly omit it).
func pageDimensions(p pdf.Page) models.PageDimensions {
	box := p.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return models.PageDimensions{Width: 612, Height: 792}
	}
	x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
	x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
	return models.PageDimensions{Width: x1 - x0, Height: y1 - y0}
}

// detectStructuralTables groups a page's positioned text runs into rows by Y
// coordinate, reporting a candidate table whenever at least 3 rows hold 2+
// runs with a gap of more than 20pt between neighbours; column alignment
// across rows is not checked. This is a heuristic, not
// a layout parser: it exists to flag SOV/loss-run style grids for the tables
// stage, which re-verifies with its own classifier.
func detectStructuralTables(p pdf.Page, pageNum int) []models.TableJSON {
	content := p.Content()
	if len(content.Text) == 0 {
		return nil
	}

	cells := make([]cell, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		cells = append(cells, cell{x: t.X, y: t.Y, s: t.S})
	}
	if len(cells) == 0 {
		return nil
	}

	// Group into rows: cells within 2pt of Y are the same row.
	sort.Slice(cells, func(i, j int) bool { return cells[i].y > cells[j].y })
	var rows [][]cell
	for _, c := range cells {
		if len(rows) == 0 || rowY(rows[len(rows)-1]) - c.y > 2 {
			rows = append(rows, []cell{c})
			continue
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], c)
	}
	if len(rows) < 3 {
		return nil
	}

	// A row qualifies as tabular if it has 2+ cells separated by a gap wide
	// enough to suggest column boundaries rather than word spacing.
	tabularRows := 0
	var tableRows [][]string
	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].x < row[j].x })
		if len(row) < 2 {
			continue
		}
		gapFound := false
		for i := 1; i < len(row); i++ {
			if row[i].x-row[i-1].x > 20 {
				gapFound = true
				break
			}
		}
		if !gapFound {
			continue
		}
		tabularRows++
		cols := make([]string, len(row))
		for i, c := range row {
			cols[i] = strings.TrimSpace(c.s)
		}
		tableRows = append(tableRows, cols)
	}
	if tabularRows < 3 {
		return nil
	}

	maxCols := 0
	for _, r := range tableRows {
		if len(r) > maxCols {
			maxCols = len(r)
		}
	}
	flatCells := make([]models.TableCell, 0, len(tableRows)*maxCols)
	for ri, r := range tableRows {
		for ci, v := range r {
			flatCells = append(flatCells, models.TableCell{Row: ri, Col: ci, Text: v})
		}
	}

	return []models.TableJSON{{
		TableID:           fmt.Sprintf("p%d-t0", pageNum),
		PageNumber:        pageNum,
		TableIndex:        0,
		Cells:             flatCells,
		NumRows:           len(tableRows),
		NumCols:           maxCols,
		ExtractionSource:  models.TableSourceStructural,
		Confidence:        0.6,
	}}
}

// cell is a text run positioned on a PDF page, used to group words into rows
// and columns for structural table detection.
type cell struct {
	x, y float64
	s    string
}

func rowY(row []cell) float64 {
	return row[0].y
}

// renderMarkdown produces a best-effort markdown rendering of a page: plain
// text paragraphs, with detected tables rendered as GFM pipe tables appended
// after the prose so downstream LLM prompts keep tabular structure legible.
func renderMarkdown(text string, tables []models.TableJSON) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(text))
	for _, tbl := range tables {
		b.WriteString("\n\n")
		b.WriteString(tableToMarkdown(tbl))
	}
	return b.String()
}

func tableToMarkdown(tbl models.TableJSON) string {
	grid := make([][]string, tbl.NumRows)
	for i := range grid {
		grid[i] = make([]string, tbl.NumCols)
	}
	for _, c := range tbl.Cells {
		if c.Row < tbl.NumRows && c.Col < tbl.NumCols {
			grid[c.Row][c.Col] = c.Text
		}
	}
	var b strings.Builder
	for i, row := range grid {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
		if i == 0 {
			b.WriteString("|")
			for range row {
				b.WriteString(" --- |")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
