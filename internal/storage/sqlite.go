// Package storage provides the SQLite implementation of Storage, used for
// local development and single-node deployments (config.Storage.Backend ==
// "sqlite", the default). Schema-on-open follows the teacher's
// initSchema/NewSQLiteStorage shape verbatim; the schema itself is
// generalized from the teacher's two-table Document/DocumentChunk pair to
// the full relational model of spec.md §6.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/insurdocs/pipeline/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if missing.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		file_ref TEXT NOT NULL,
		mime_type TEXT,
		page_count INTEGER DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

	CREATE TABLE IF NOT EXISTS pages (
		document_id TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		plain_text TEXT,
		markdown TEXT,
		dimensions TEXT,
		metadata TEXT,
		PRIMARY KEY (document_id, page_number),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS tables (
		table_id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		table_index INTEGER NOT NULL,
		bbox TEXT,
		cells TEXT,
		header_rows TEXT,
		num_rows INTEGER,
		num_cols INTEGER,
		extraction_source TEXT,
		confidence REAL,
		raw_markdown TEXT,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_tables_document_id ON tables(document_id);

	CREATE TABLE IF NOT EXISTS sov_items (
		document_id TEXT NOT NULL,
		table_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		location_number TEXT,
		address TEXT,
		building_value REAL,
		contents_value REAL,
		business_income REAL,
		total_insured_value REAL,
		construction_type TEXT,
		year_built INTEGER,
		PRIMARY KEY (table_id, row_index),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sov_items_document_id ON sov_items(document_id);

	CREATE TABLE IF NOT EXISTS loss_run_claims (
		document_id TEXT NOT NULL,
		table_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		claim_number TEXT,
		date_of_loss TEXT,
		description TEXT,
		paid_amount REAL,
		reserve_amount REAL,
		status TEXT,
		PRIMARY KEY (table_id, row_index),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_loss_run_claims_document_id ON loss_run_claims(document_id);

	CREATE TABLE IF NOT EXISTS chunks (
		stable_chunk_id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		text TEXT NOT NULL,
		token_count INTEGER,
		section_type TEXT,
		page_range TEXT,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);

	CREATE TABLE IF NOT EXISTS section_extractions (
		document_id TEXT NOT NULL,
		section_type TEXT NOT NULL,
		run_id TEXT,
		fields TEXT,
		entities TEXT,
		confidence REAL,
		source_chunks TEXT,
		model_version TEXT,
		PRIMARY KEY (document_id, section_type),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS canonical_entities (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		attributes TEXT,
		confidence REAL
	);
	CREATE INDEX IF NOT EXISTS idx_canonical_entities_type ON canonical_entities(type);

	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		source_canonical_id TEXT NOT NULL,
		target_canonical_id TEXT NOT NULL,
		type TEXT NOT NULL,
		attributes TEXT,
		confidence REAL
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_canonical_id);

	CREATE TABLE IF NOT EXISTS effective_coverages (
		document_id TEXT NOT NULL,
		canonical_id TEXT NOT NULL,
		name TEXT,
		effective_state TEXT,
		scope TEXT,
		carve_backs TEXT,
		conditions TEXT,
		impacted_coverages TEXT,
		sources TEXT,
		confidence REAL,
		severity TEXT,
		description TEXT,
		page_numbers TEXT,
		source_text TEXT,
		clause_reference TEXT,
		is_standard_provision INTEGER,
		is_modified INTEGER,
		synthesis_method TEXT,
		PRIMARY KEY (document_id, canonical_id),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS effective_exclusions (
		document_id TEXT NOT NULL,
		canonical_id TEXT NOT NULL,
		name TEXT,
		effective_state TEXT,
		scope TEXT,
		carve_backs TEXT,
		conditions TEXT,
		impacted_coverages TEXT,
		sources TEXT,
		confidence REAL,
		severity TEXT,
		description TEXT,
		page_numbers TEXT,
		source_text TEXT,
		clause_reference TEXT,
		is_standard_provision INTEGER,
		is_modified INTEGER,
		synthesis_method TEXT,
		PRIMARY KEY (document_id, canonical_id),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS workflow_stage_runs (
		workflow_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		summary TEXT,
		error TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (workflow_id, document_id, stage)
	);
	`
	_, err := db.Exec(schema)
	return err
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// CreateDocument inserts a document.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	metadataJSON, err := marshalJSON(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, file_ref, mime_type, page_count, status, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.FileRef, doc.MimeType, doc.PageCount, doc.Status, metadataJSON, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var metadataJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_ref, mime_type, page_count, status, metadata, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.FileRef, &doc.MimeType, &doc.PageCount, &doc.Status, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metadataJSON, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &doc, nil
}

// UpdateDocumentStatus transitions a document's status (I1: documents are
// never deleted, only their status and derived rows change).
func (s *SQLiteStorage) UpdateDocumentStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// UpdateDocumentMetadata replaces a document's metadata blob with metadata;
// callers that add analysis-derived fields (e.g. the page analysis footer
// scan's form references) merge them into the existing map first.
func (s *SQLiteStorage) UpdateDocumentMetadata(ctx context.Context, id string, metadata map[string]any) error {
	metadataJSON, err := marshalJSON(metadata)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET metadata = ?, updated_at = ? WHERE id = ?`,
		metadataJSON, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// ListDocuments returns documents with offset and limit.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_ref, mime_type, page_count, status, metadata, created_at, updated_at
		 FROM documents ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.FileRef, &doc.MimeType, &doc.PageCount, &doc.Status, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(metadataJSON, &doc.Metadata)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// ReplacePages deletes a document's existing pages and inserts the new set
// in one transaction, matching the "delete-then-insert for the document
// scope" idempotence rule (spec.md §5) used throughout re-extraction.
func (s *SQLiteStorage) ReplacePages(ctx context.Context, docID string, pages []models.Page) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, docID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (document_id, page_number, plain_text, markdown, dimensions, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pages {
		dimJSON, err := marshalJSON(p.Dimensions)
		if err != nil {
			return err
		}
		metaJSON, err := marshalJSON(p.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, docID, p.PageNumber, p.PlainText, p.Markdown, dimJSON, metaJSON); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPages returns a document's pages ordered by page number.
func (s *SQLiteStorage) GetPages(ctx context.Context, docID string) ([]models.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, page_number, plain_text, markdown, dimensions, metadata
		 FROM pages WHERE document_id = ? ORDER BY page_number`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var p models.Page
		var dimJSON, metaJSON string
		if err := rows.Scan(&p.DocumentID, &p.PageNumber, &p.PlainText, &p.Markdown, &dimJSON, &metaJSON); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(dimJSON, &p.Dimensions)
		_ = unmarshalJSON(metaJSON, &p.Metadata)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ReplaceTables deletes a document's existing tables and inserts the new set.
func (s *SQLiteStorage) ReplaceTables(ctx context.Context, docID string, tables []models.TableJSON) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE document_id = ?`, docID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tables (table_id, document_id, page_number, table_index, bbox, cells, header_rows, num_rows, num_cols, extraction_source, confidence, raw_markdown)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tables {
		bboxJSON, _ := marshalJSON(t.BBox)
		cellsJSON, _ := marshalJSON(t.Cells)
		headerRowsJSON, _ := marshalJSON(t.HeaderRows)
		if _, err := stmt.ExecContext(ctx, t.TableID, docID, t.PageNumber, t.TableIndex, bboxJSON, cellsJSON, headerRowsJSON, t.NumRows, t.NumCols, t.ExtractionSource, t.Confidence, t.RawMarkdown); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTables returns a document's structural tables.
func (s *SQLiteStorage) GetTables(ctx context.Context, docID string) ([]models.TableJSON, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_id, document_id, page_number, table_index, bbox, cells, header_rows, num_rows, num_cols, extraction_source, confidence, raw_markdown
		 FROM tables WHERE document_id = ? ORDER BY page_number, table_index`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TableJSON
	for rows.Next() {
		var t models.TableJSON
		var bboxJSON, cellsJSON, headerRowsJSON string
		if err := rows.Scan(&t.TableID, &t.DocumentID, &t.PageNumber, &t.TableIndex, &bboxJSON, &cellsJSON, &headerRowsJSON, &t.NumRows, &t.NumCols, &t.ExtractionSource, &t.Confidence, &t.RawMarkdown); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(bboxJSON, &t.BBox)
		_ = unmarshalJSON(cellsJSON, &t.Cells)
		_ = unmarshalJSON(headerRowsJSON, &t.HeaderRows)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceSOVItems deletes a document's existing canonicalized SOV rows and
// inserts the new set.
func (s *SQLiteStorage) ReplaceSOVItems(ctx context.Context, docID string, items []models.SOVItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sov_items WHERE document_id = ?`, docID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sov_items (document_id, table_id, row_index, location_number, address, building_value, contents_value, business_income, total_insured_value, construction_type, year_built)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, docID, item.TableID, item.RowIndex, item.LocationNumber, item.Address,
			item.BuildingValue, item.ContentsValue, item.BusinessIncome, item.TotalInsuredValue,
			item.ConstructionType, item.YearBuilt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSOVItems returns a document's canonicalized SOV rows.
func (s *SQLiteStorage) GetSOVItems(ctx context.Context, docID string) ([]models.SOVItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_id, row_index, location_number, address, building_value, contents_value, business_income, total_insured_value, construction_type, year_built
		 FROM sov_items WHERE document_id = ? ORDER BY table_id, row_index`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SOVItem
	for rows.Next() {
		var item models.SOVItem
		if err := rows.Scan(&item.TableID, &item.RowIndex, &item.LocationNumber, &item.Address,
			&item.BuildingValue, &item.ContentsValue, &item.BusinessIncome, &item.TotalInsuredValue,
			&item.ConstructionType, &item.YearBuilt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ReplaceLossRunClaims deletes a document's existing canonicalized loss-run
// rows and inserts the new set.
func (s *SQLiteStorage) ReplaceLossRunClaims(ctx context.Context, docID string, claims []models.LossRunClaim) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM loss_run_claims WHERE document_id = ?`, docID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO loss_run_claims (document_id, table_id, row_index, claim_number, date_of_loss, description, paid_amount, reserve_amount, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range claims {
		if _, err := stmt.ExecContext(ctx, docID, c.TableID, c.RowIndex, c.ClaimNumber, c.DateOfLoss,
			c.Description, c.PaidAmount, c.ReserveAmount, c.Status); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetLossRunClaims returns a document's canonicalized loss-run rows.
func (s *SQLiteStorage) GetLossRunClaims(ctx context.Context, docID string) ([]models.LossRunClaim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_id, row_index, claim_number, date_of_loss, description, paid_amount, reserve_amount, status
		 FROM loss_run_claims WHERE document_id = ? ORDER BY table_id, row_index`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LossRunClaim
	for rows.Next() {
		var c models.LossRunClaim
		if err := rows.Scan(&c.TableID, &c.RowIndex, &c.ClaimNumber, &c.DateOfLoss, &c.Description,
			&c.PaidAmount, &c.ReserveAmount, &c.Status); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceChunks deletes a document's existing chunks and inserts the new
// set in a single transaction, mirroring teacher's BatchCreateChunks.
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, docID string, chunks []models.HybridChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, docID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (stable_chunk_id, document_id, text, token_count, section_type, page_range)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		pageRangeJSON, _ := marshalJSON(c.PageRange)
		if _, err := stmt.ExecContext(ctx, c.StableChunkID, docID, c.Text, c.TokenCount, c.SectionType, pageRangeJSON); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetChunks returns a document's chunks in insertion order.
func (s *SQLiteStorage) GetChunks(ctx context.Context, docID string) ([]models.HybridChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stable_chunk_id, document_id, text, token_count, section_type, page_range
		 FROM chunks WHERE document_id = ? ORDER BY rowid`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HybridChunk
	for rows.Next() {
		var c models.HybridChunk
		var pageRangeJSON string
		if err := rows.Scan(&c.StableChunkID, &c.DocumentID, &c.Text, &c.TokenCount, &c.SectionType, &pageRangeJSON); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(pageRangeJSON, &c.PageRange)
		out = append(out, c)
	}
	return out, rows.Err()
}

// PutExtraction upserts a section extraction, keyed by (document_id, section_type).
func (s *SQLiteStorage) PutExtraction(ctx context.Context, ex models.SectionExtraction) error {
	fieldsJSON, err := marshalJSON(ex.Fields)
	if err != nil {
		return err
	}
	entitiesJSON, err := marshalJSON(ex.Entities)
	if err != nil {
		return err
	}
	sourceChunksJSON, err := marshalJSON(ex.SourceChunks)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO section_extractions (document_id, section_type, run_id, fields, entities, confidence, source_chunks, model_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (document_id, section_type) DO UPDATE SET
		   run_id = excluded.run_id, fields = excluded.fields, entities = excluded.entities,
		   confidence = excluded.confidence, source_chunks = excluded.source_chunks, model_version = excluded.model_version`,
		ex.DocumentID, ex.SectionType, ex.RunID, fieldsJSON, entitiesJSON, ex.Confidence, sourceChunksJSON, ex.ModelVersion,
	)
	return err
}

// GetExtractions returns all section extractions for a document.
func (s *SQLiteStorage) GetExtractions(ctx context.Context, docID string) ([]models.SectionExtraction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, section_type, run_id, fields, entities, confidence, source_chunks, model_version
		 FROM section_extractions WHERE document_id = ?`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SectionExtraction
	for rows.Next() {
		var ex models.SectionExtraction
		var fieldsJSON, entitiesJSON, sourceChunksJSON string
		if err := rows.Scan(&ex.DocumentID, &ex.SectionType, &ex.RunID, &fieldsJSON, &entitiesJSON, &ex.Confidence, &sourceChunksJSON, &ex.ModelVersion); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(fieldsJSON, &ex.Fields)
		_ = unmarshalJSON(entitiesJSON, &ex.Entities)
		_ = unmarshalJSON(sourceChunksJSON, &ex.SourceChunks)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// UpsertCanonicalEntity inserts or replaces a canonical entity.
func (s *SQLiteStorage) UpsertCanonicalEntity(ctx context.Context, e models.CanonicalEntity) error {
	attrsJSON, err := marshalJSON(e.Attributes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO canonical_entities (id, type, attributes, confidence)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET type = excluded.type, attributes = excluded.attributes, confidence = excluded.confidence`,
		e.ID, e.Type, attrsJSON, e.Confidence,
	)
	return err
}

// DeleteCanonicalEntity removes a canonical entity by ID.
func (s *SQLiteStorage) DeleteCanonicalEntity(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM canonical_entities WHERE id = ?`, id)
	return err
}

// GetCanonicalEntity returns a canonical entity by ID.
func (s *SQLiteStorage) GetCanonicalEntity(ctx context.Context, id string) (models.CanonicalEntity, error) {
	var e models.CanonicalEntity
	var attrsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, type, attributes, confidence FROM canonical_entities WHERE id = ?`, id,
	).Scan(&e.ID, &e.Type, &attrsJSON, &e.Confidence)
	if err == sql.ErrNoRows {
		return models.CanonicalEntity{}, fmt.Errorf("canonical entity not found: %s", id)
	}
	if err != nil {
		return models.CanonicalEntity{}, err
	}
	_ = unmarshalJSON(attrsJSON, &e.Attributes)
	return e, nil
}

// ListCanonicalEntities returns all canonical entities of a given type, or
// all entities if entityType is empty.
func (s *SQLiteStorage) ListCanonicalEntities(ctx context.Context, entityType models.EntityType) ([]models.CanonicalEntity, error) {
	var rows *sql.Rows
	var err error
	if entityType == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, type, attributes, confidence FROM canonical_entities`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id, type, attributes, confidence FROM canonical_entities WHERE type = ?`, entityType)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CanonicalEntity
	for rows.Next() {
		var e models.CanonicalEntity
		var attrsJSON string
		if err := rows.Scan(&e.ID, &e.Type, &attrsJSON, &e.Confidence); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(attrsJSON, &e.Attributes)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutRelationship inserts or replaces a relationship edge.
func (s *SQLiteStorage) PutRelationship(ctx context.Context, r models.Relationship) error {
	attrsJSON, err := marshalJSON(r.Attributes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO relationships (id, source_canonical_id, target_canonical_id, type, attributes, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET source_canonical_id = excluded.source_canonical_id,
		   target_canonical_id = excluded.target_canonical_id, type = excluded.type,
		   attributes = excluded.attributes, confidence = excluded.confidence`,
		r.ID, r.SourceCanonicalID, r.TargetCanonicalID, r.Type, attrsJSON, r.Confidence,
	)
	return err
}

// ListRelationships returns relationships where canonicalID is the source.
func (s *SQLiteStorage) ListRelationships(ctx context.Context, canonicalID string) ([]models.Relationship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_canonical_id, target_canonical_id, type, attributes, confidence
		 FROM relationships WHERE source_canonical_id = ?`, canonicalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Relationship
	for rows.Next() {
		var r models.Relationship
		var attrsJSON string
		if err := rows.Scan(&r.ID, &r.SourceCanonicalID, &r.TargetCanonicalID, &r.Type, &attrsJSON, &r.Confidence); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(attrsJSON, &r.Attributes)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceEffectiveCoverages deletes a document's synthesized coverages and
// inserts the new set.
func (s *SQLiteStorage) ReplaceEffectiveCoverages(ctx context.Context, docID string, coverages []models.EffectiveCoverage) error {
	return replaceProvisions(ctx, s.db, "effective_coverages", docID, provisionCores(coverages, func(c models.EffectiveCoverage) models.ProvisionCore { return c.ProvisionCore }))
}

// ReplaceEffectiveExclusions deletes a document's synthesized exclusions and
// inserts the new set.
func (s *SQLiteStorage) ReplaceEffectiveExclusions(ctx context.Context, docID string, exclusions []models.EffectiveExclusion) error {
	return replaceProvisions(ctx, s.db, "effective_exclusions", docID, provisionCores(exclusions, func(e models.EffectiveExclusion) models.ProvisionCore { return e.ProvisionCore }))
}

func provisionCores[T any](items []T, get func(T) models.ProvisionCore) []models.ProvisionCore {
	out := make([]models.ProvisionCore, len(items))
	for i, it := range items {
		out[i] = get(it)
	}
	return out
}

func replaceProvisions(ctx context.Context, db *sql.DB, table, docID string, provisions []models.ProvisionCore) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = ?`, table), docID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (document_id, canonical_id, name, effective_state, scope, carve_backs, conditions,
		   impacted_coverages, sources, confidence, severity, description, page_numbers, source_text,
		   clause_reference, is_standard_provision, is_modified, synthesis_method)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range provisions {
		carveBacksJSON, _ := marshalJSON(p.CarveBacks)
		conditionsJSON, _ := marshalJSON(p.Conditions)
		impactedJSON, _ := marshalJSON(p.ImpactedCoverages)
		sourcesJSON, _ := marshalJSON(p.Sources)
		pageNumbersJSON, _ := marshalJSON(p.PageNumbers)

		if _, err := stmt.ExecContext(ctx,
			docID, p.CanonicalID, p.Name, p.EffectiveState, p.Scope, carveBacksJSON, conditionsJSON,
			impactedJSON, sourcesJSON, p.Confidence, p.Severity, p.Description, pageNumbersJSON, p.SourceText,
			p.ClauseReference, p.IsStandardProvision, p.IsModified, p.SynthesisMethod,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetEffectiveCoverages returns a document's synthesized coverages.
func (s *SQLiteStorage) GetEffectiveCoverages(ctx context.Context, docID string) ([]models.EffectiveCoverage, error) {
	cores, err := queryProvisions(ctx, s.db, "effective_coverages", docID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EffectiveCoverage, len(cores))
	for i, c := range cores {
		out[i] = models.EffectiveCoverage{ProvisionCore: c}
	}
	return out, nil
}

// GetEffectiveExclusions returns a document's synthesized exclusions.
func (s *SQLiteStorage) GetEffectiveExclusions(ctx context.Context, docID string) ([]models.EffectiveExclusion, error) {
	cores, err := queryProvisions(ctx, s.db, "effective_exclusions", docID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EffectiveExclusion, len(cores))
	for i, c := range cores {
		out[i] = models.EffectiveExclusion{ProvisionCore: c}
	}
	return out, nil
}

func queryProvisions(ctx context.Context, db *sql.DB, table, docID string) ([]models.ProvisionCore, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(
		`SELECT canonical_id, name, effective_state, scope, carve_backs, conditions, impacted_coverages,
		   sources, confidence, severity, description, page_numbers, source_text, clause_reference,
		   is_standard_provision, is_modified, synthesis_method
		 FROM %s WHERE document_id = ?`, table), docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProvisionCore
	for rows.Next() {
		var p models.ProvisionCore
		var carveBacksJSON, conditionsJSON, impactedJSON, sourcesJSON, pageNumbersJSON string
		if err := rows.Scan(&p.CanonicalID, &p.Name, &p.EffectiveState, &p.Scope, &carveBacksJSON, &conditionsJSON,
			&impactedJSON, &sourcesJSON, &p.Confidence, &p.Severity, &p.Description, &pageNumbersJSON, &p.SourceText,
			&p.ClauseReference, &p.IsStandardProvision, &p.IsModified, &p.SynthesisMethod); err != nil {
			return nil, err
		}
		_ = unmarshalJSON(carveBacksJSON, &p.CarveBacks)
		_ = unmarshalJSON(conditionsJSON, &p.Conditions)
		_ = unmarshalJSON(impactedJSON, &p.ImpactedCoverages)
		_ = unmarshalJSON(sourcesJSON, &p.Sources)
		_ = unmarshalJSON(pageNumbersJSON, &p.PageNumbers)
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetStageRun returns the stage-run row for (workflowID, docID, stage), or
// nil if no run has been recorded yet.
func (s *SQLiteStorage) GetStageRun(ctx context.Context, workflowID, docID string, stage models.Stage) (*models.WorkflowStageRun, error) {
	var run models.WorkflowStageRun
	var summaryJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT workflow_id, document_id, stage, status, summary, error, updated_at
		 FROM workflow_stage_runs WHERE workflow_id = ? AND document_id = ? AND stage = ?`,
		workflowID, docID, stage,
	).Scan(&run.WorkflowID, &run.DocumentID, &run.Stage, &run.Status, &summaryJSON, &run.Error, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = unmarshalJSON(summaryJSON, &run.Summary)
	return &run, nil
}

// PutStageRun upserts a stage-run row, the source of truth for stage
// skipping (spec.md §8 idempotence law).
func (s *SQLiteStorage) PutStageRun(ctx context.Context, run models.WorkflowStageRun) error {
	summaryJSON, err := marshalJSON(run.Summary)
	if err != nil {
		return err
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflow_stage_runs (workflow_id, document_id, stage, status, summary, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (workflow_id, document_id, stage) DO UPDATE SET
		   status = excluded.status, summary = excluded.summary, error = excluded.error, updated_at = excluded.updated_at`,
		run.WorkflowID, run.DocumentID, run.Stage, run.Status, summaryJSON, run.Error, run.UpdatedAt,
	)
	return err
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
