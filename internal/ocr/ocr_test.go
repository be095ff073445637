package ocr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func TestExtractPages_plainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0600); err != nil {
		t.Fatal(err)
	}
	svc := NewService()
	pages, err := svc.ExtractPages(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("len(pages) = %d, want 1", len(pages))
	}
	if pages[0].PageNumber != 1 {
		t.Errorf("PageNumber = %d, want 1", pages[0].PageNumber)
	}
	if pages[0].PlainText != "hello world" {
		t.Errorf("PlainText = %q", pages[0].PlainText)
	}
}

func TestTableToMarkdown(t *testing.T) {
	tbl := models.TableJSON{
		NumRows: 2,
		NumCols: 2,
		Cells: []models.TableCell{
			{Row: 0, Col: 0, Text: "Location"},
			{Row: 0, Col: 1, Text: "TIV"},
			{Row: 1, Col: 0, Text: "101 Main St"},
			{Row: 1, Col: 1, Text: "500000"},
		},
	}
	md := tableToMarkdown(tbl)
	if !strings.Contains(md, "Location") || !strings.Contains(md, "TIV") {
		t.Errorf("markdown missing header cells: %q", md)
	}
	if !strings.Contains(md, "---") {
		t.Errorf("markdown missing header separator: %q", md)
	}
}

func TestRenderMarkdown_noTables(t *testing.T) {
	md := renderMarkdown("plain page text", nil)
	if md != "plain page text" {
		t.Errorf("renderMarkdown() = %q", md)
	}
}
