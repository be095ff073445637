package tables

import (
	"testing"

	"github.com/insurdocs/pipeline/internal/models"
)

func sovTable() models.TableJSON {
	return models.TableJSON{
		TableID: "t1",
		NumRows: 3,
		NumCols: 3,
		Cells: []models.TableCell{
			{Row: 0, Col: 0, Text: "Location"}, {Row: 0, Col: 1, Text: "Address"}, {Row: 0, Col: 2, Text: "Total Insured Value"},
			{Row: 1, Col: 0, Text: "1"}, {Row: 1, Col: 1, Text: "101 Main St"}, {Row: 1, Col: 2, Text: "$1,200,000"},
			{Row: 2, Col: 0, Text: "2"}, {Row: 2, Col: 1, Text: "202 Oak Ave"}, {Row: 2, Col: 2, Text: "850000"},
		},
	}
}

func TestClassify_sov(t *testing.T) {
	c := Classify(sovTable())
	if c.Kind != models.TablePropertySOV {
		t.Errorf("Kind = %v, want property_sov", c.Kind)
	}
}

func TestCanonicalizeSOV(t *testing.T) {
	items := CanonicalizeSOV(sovTable())
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].TotalInsuredValue != 1200000 {
		t.Errorf("TotalInsuredValue = %v, want 1200000", items[0].TotalInsuredValue)
	}
	if items[0].Address != "101 Main St" {
		t.Errorf("Address = %q", items[0].Address)
	}
	for _, item := range items {
		if item.TotalInsuredValue < 0 {
			t.Errorf("row %d: TotalInsuredValue negative", item.RowIndex)
		}
	}
}

func TestCanonicalizeLossRun_dateNormalization(t *testing.T) {
	tbl := models.TableJSON{
		NumRows: 2, NumCols: 2,
		Cells: []models.TableCell{
			{Row: 0, Col: 0, Text: "Claim Number"}, {Row: 0, Col: 1, Text: "Date of Loss"},
			{Row: 1, Col: 0, Text: "CL-1001"}, {Row: 1, Col: 1, Text: "03/14/2025"},
		},
	}
	claims := CanonicalizeLossRun(tbl)
	if len(claims) != 1 {
		t.Fatalf("len(claims) = %d", len(claims))
	}
	if claims[0].DateOfLoss != "2025-03-14" {
		t.Errorf("DateOfLoss = %q, want 2025-03-14", claims[0].DateOfLoss)
	}
}

func TestParseMoney_parenNegative(t *testing.T) {
	if got := parseMoney("($500.00)"); got != -500 {
		t.Errorf("parseMoney = %v, want -500", got)
	}
}

func TestValidateSOVItems_clampsNegativeTIV(t *testing.T) {
	items := []models.SOVItem{{RowIndex: 1, TotalInsuredValue: -100}}
	got := ValidateSOVItems(items)
	if got[0].TotalInsuredValue != 0 {
		t.Errorf("TotalInsuredValue = %v, want 0", got[0].TotalInsuredValue)
	}
}

func TestValidateLossRunClaims_dropsUnparseableDate(t *testing.T) {
	claims := []models.LossRunClaim{
		{RowIndex: 1, DateOfLoss: "2025-03-14"},
		{RowIndex: 2, DateOfLoss: "not a date"},
		{RowIndex: 3, DateOfLoss: ""},
	}
	got := ValidateLossRunClaims(claims)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].RowIndex != 1 || got[1].RowIndex != 3 {
		t.Errorf("unexpected survivors: %+v", got)
	}
}
