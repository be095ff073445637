package models

// TableCell is one cell of a structurally-extracted table.
type TableCell struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Text     string `json:"text"`
	RowSpan  int    `json:"rowspan"`
	ColSpan  int    `json:"colspan"`
	IsHeader bool   `json:"is_header"`
}

// BBox is a page-relative bounding box.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// TableExtractionSource records which path produced a TableJSON.
type TableExtractionSource string

const (
	TableSourceStructural TableExtractionSource = "structural"
	TableSourceMarkdown   TableExtractionSource = "markdown"
)

// TableJSON is a first-class persisted table, captured during OCR or
// reconstructed from a markdown fallback.
type TableJSON struct {
	TableID          string                `json:"table_id"` // stable: derived from document+page+index
	DocumentID       string                `json:"document_id"`
	PageNumber       int                   `json:"page_number"`
	TableIndex       int                   `json:"table_index"`
	BBox             BBox                  `json:"bbox"`
	Cells            []TableCell           `json:"cells"`
	HeaderRows       []int                 `json:"header_rows"`
	NumRows          int                   `json:"num_rows"`
	NumCols          int                   `json:"num_cols"`
	ExtractionSource TableExtractionSource `json:"extraction_source"`
	Confidence       float64               `json:"confidence"`
	RawMarkdown      string                `json:"raw_markdown,omitempty"` // fallback text when structural capture failed
}

// TableKind is the classified domain role of a table.
type TableKind string

const (
	TablePropertySOV           TableKind = "property_sov"
	TableLossRun               TableKind = "loss_run"
	TableInlandMarineSchedule  TableKind = "inland_marine_schedule"
	TableAutoSchedule          TableKind = "auto_schedule"
	TablePremiumSchedule       TableKind = "premium_schedule"
	TableOther                 TableKind = "other"
)

// TableClassification is the derived type of a TableJSON.
type TableClassification struct {
	TableID    string    `json:"table_id"`
	Kind       TableKind `json:"kind"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
}

// SOVItem is one normalized row of a property_sov table.
type SOVItem struct {
	TableID          string  `json:"table_id"`
	RowIndex         int     `json:"row_index"`
	LocationNumber   string  `json:"location_number,omitempty"`
	Address          string  `json:"address,omitempty"`
	BuildingValue    float64 `json:"building_value"`
	ContentsValue    float64 `json:"contents_value"`
	BusinessIncome   float64 `json:"business_income"`
	TotalInsuredValue float64 `json:"total_insured_value"` // must be >= 0
	ConstructionType string  `json:"construction_type,omitempty"`
	YearBuilt        int     `json:"year_built,omitempty"`
}

// LossRunClaim is one normalized row of a loss_run table.
type LossRunClaim struct {
	TableID      string  `json:"table_id"`
	RowIndex     int     `json:"row_index"`
	ClaimNumber  string  `json:"claim_number,omitempty"`
	DateOfLoss   string  `json:"date_of_loss,omitempty"` // ISO 8601; must be parseable
	Description  string  `json:"description,omitempty"`
	PaidAmount   float64 `json:"paid_amount"`
	ReserveAmount float64 `json:"reserve_amount"`
	Status       string  `json:"status,omitempty"` // open | closed
}
