// Package storage's Postgres backend hosts the same schema as sqlite.go,
// for deployments where config.Storage.Backend == "postgres" and
// pgvector already requires a Postgres instance for internal/vector —
// this backend lets both the relational schema and the vector index
// live in one database. Uses pgxpool, the same driver
// internal/vector.PGVectorIndex is built on.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insurdocs/pipeline/internal/models"
)

// PostgresStorage implements Storage using Postgres via pgx.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to Postgres at dsn and initializes the schema.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	if err := pgInitSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: init postgres schema: %w", err)
	}
	return &PostgresStorage{pool: pool}, nil
}

func pgInitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		file_ref TEXT NOT NULL,
		mime_type TEXT,
		page_count INTEGER DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		metadata JSONB,
		created_at TIMESTAMPTZ DEFAULT now(),
		updated_at TIMESTAMPTZ DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

	CREATE TABLE IF NOT EXISTS pages (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		page_number INTEGER NOT NULL,
		plain_text TEXT,
		markdown TEXT,
		dimensions JSONB,
		metadata JSONB,
		PRIMARY KEY (document_id, page_number)
	);

	CREATE TABLE IF NOT EXISTS tables (
		table_id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		page_number INTEGER NOT NULL,
		table_index INTEGER NOT NULL,
		bbox JSONB,
		cells JSONB,
		header_rows JSONB,
		num_rows INTEGER,
		num_cols INTEGER,
		extraction_source TEXT,
		confidence DOUBLE PRECISION,
		raw_markdown TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tables_document_id ON tables(document_id);

	CREATE TABLE IF NOT EXISTS sov_items (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		table_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		location_number TEXT,
		address TEXT,
		building_value DOUBLE PRECISION,
		contents_value DOUBLE PRECISION,
		business_income DOUBLE PRECISION,
		total_insured_value DOUBLE PRECISION,
		construction_type TEXT,
		year_built INTEGER,
		PRIMARY KEY (table_id, row_index)
	);
	CREATE INDEX IF NOT EXISTS idx_sov_items_document_id ON sov_items(document_id);

	CREATE TABLE IF NOT EXISTS loss_run_claims (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		table_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		claim_number TEXT,
		date_of_loss TEXT,
		description TEXT,
		paid_amount DOUBLE PRECISION,
		reserve_amount DOUBLE PRECISION,
		status TEXT,
		PRIMARY KEY (table_id, row_index)
	);
	CREATE INDEX IF NOT EXISTS idx_loss_run_claims_document_id ON loss_run_claims(document_id);

	CREATE TABLE IF NOT EXISTS chunks (
		stable_chunk_id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		token_count INTEGER,
		section_type TEXT,
		page_range JSONB
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);

	CREATE TABLE IF NOT EXISTS section_extractions (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		section_type TEXT NOT NULL,
		run_id TEXT,
		fields JSONB,
		entities JSONB,
		confidence DOUBLE PRECISION,
		source_chunks JSONB,
		model_version TEXT,
		PRIMARY KEY (document_id, section_type)
	);

	CREATE TABLE IF NOT EXISTS canonical_entities (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		attributes JSONB,
		confidence DOUBLE PRECISION
	);
	CREATE INDEX IF NOT EXISTS idx_canonical_entities_type ON canonical_entities(type);

	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		source_canonical_id TEXT NOT NULL,
		target_canonical_id TEXT NOT NULL,
		type TEXT NOT NULL,
		attributes JSONB,
		confidence DOUBLE PRECISION
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_canonical_id);

	CREATE TABLE IF NOT EXISTS effective_coverages (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		canonical_id TEXT NOT NULL,
		name TEXT,
		effective_state TEXT,
		scope TEXT,
		carve_backs JSONB,
		conditions JSONB,
		impacted_coverages JSONB,
		sources JSONB,
		confidence DOUBLE PRECISION,
		severity TEXT,
		description TEXT,
		page_numbers JSONB,
		source_text TEXT,
		clause_reference TEXT,
		is_standard_provision BOOLEAN,
		is_modified BOOLEAN,
		synthesis_method TEXT,
		PRIMARY KEY (document_id, canonical_id)
	);

	CREATE TABLE IF NOT EXISTS effective_exclusions (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		canonical_id TEXT NOT NULL,
		name TEXT,
		effective_state TEXT,
		scope TEXT,
		carve_backs JSONB,
		conditions JSONB,
		impacted_coverages JSONB,
		sources JSONB,
		confidence DOUBLE PRECISION,
		severity TEXT,
		description TEXT,
		page_numbers JSONB,
		source_text TEXT,
		clause_reference TEXT,
		is_standard_provision BOOLEAN,
		is_modified BOOLEAN,
		synthesis_method TEXT,
		PRIMARY KEY (document_id, canonical_id)
	);

	CREATE TABLE IF NOT EXISTS workflow_stage_runs (
		workflow_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		summary JSONB,
		error TEXT,
		updated_at TIMESTAMPTZ DEFAULT now(),
		PRIMARY KEY (workflow_id, document_id, stage)
	);
	`
	_, err := pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO documents (id, file_ref, mime_type, page_count, status, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		doc.ID, doc.FileRef, doc.MimeType, doc.PageCount, doc.Status, doc.Metadata,
	)
	return row.Scan(&doc.CreatedAt, &doc.UpdatedAt)
}

func (s *PostgresStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, file_ref, mime_type, page_count, status, metadata, created_at, updated_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.FileRef, &doc.MimeType, &doc.PageCount, &doc.Status, &doc.Metadata, &doc.CreatedAt, &doc.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *PostgresStorage) UpdateDocumentStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE documents SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStorage) UpdateDocumentMetadata(ctx context.Context, id string, metadata map[string]any) error {
	tag, err := s.pool.Exec(ctx, `UPDATE documents SET metadata = $1, updated_at = now() WHERE id = $2`, metadata, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, file_ref, mime_type, page_count, status, metadata, created_at, updated_at
		 FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.FileRef, &doc.MimeType, &doc.PageCount, &doc.Status, &doc.Metadata, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStorage) ReplacePages(ctx context.Context, docID string, pages []models.Page) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pages WHERE document_id = $1`, docID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, p := range pages {
		batch.Queue(
			`INSERT INTO pages (document_id, page_number, plain_text, markdown, dimensions, metadata)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			docID, p.PageNumber, p.PlainText, p.Markdown, p.Dimensions, p.Metadata,
		)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) GetPages(ctx context.Context, docID string) ([]models.Page, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_id, page_number, plain_text, markdown, dimensions, metadata
		 FROM pages WHERE document_id = $1 ORDER BY page_number`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.DocumentID, &p.PageNumber, &p.PlainText, &p.Markdown, &p.Dimensions, &p.Metadata); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PostgresStorage) ReplaceTables(ctx context.Context, docID string, tables []models.TableJSON) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tables WHERE document_id = $1`, docID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, t := range tables {
		batch.Queue(
			`INSERT INTO tables (table_id, document_id, page_number, table_index, bbox, cells, header_rows, num_rows, num_cols, extraction_source, confidence, raw_markdown)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			t.TableID, docID, t.PageNumber, t.TableIndex, t.BBox, t.Cells, t.HeaderRows, t.NumRows, t.NumCols, t.ExtractionSource, t.Confidence, t.RawMarkdown,
		)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) GetTables(ctx context.Context, docID string) ([]models.TableJSON, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT table_id, document_id, page_number, table_index, bbox, cells, header_rows, num_rows, num_cols, extraction_source, confidence, raw_markdown
		 FROM tables WHERE document_id = $1 ORDER BY page_number, table_index`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TableJSON
	for rows.Next() {
		var t models.TableJSON
		if err := rows.Scan(&t.TableID, &t.DocumentID, &t.PageNumber, &t.TableIndex, &t.BBox, &t.Cells, &t.HeaderRows, &t.NumRows, &t.NumCols, &t.ExtractionSource, &t.Confidence, &t.RawMarkdown); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) ReplaceSOVItems(ctx context.Context, docID string, items []models.SOVItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sov_items WHERE document_id = $1`, docID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(
			`INSERT INTO sov_items (document_id, table_id, row_index, location_number, address, building_value, contents_value, business_income, total_insured_value, construction_type, year_built)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			docID, item.TableID, item.RowIndex, item.LocationNumber, item.Address,
			item.BuildingValue, item.ContentsValue, item.BusinessIncome, item.TotalInsuredValue,
			item.ConstructionType, item.YearBuilt,
		)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) GetSOVItems(ctx context.Context, docID string) ([]models.SOVItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT table_id, row_index, location_number, address, building_value, contents_value, business_income, total_insured_value, construction_type, year_built
		 FROM sov_items WHERE document_id = $1 ORDER BY table_id, row_index`, docID)
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

func (s *PostgresStorage) ReplaceLossRunClaims(ctx context.Context, docID string, claims []models.LossRunClaim) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM loss_run_claims WHERE document_id = $1`, docID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, c := range claims {
		batch.Queue(
			`INSERT INTO loss_run_claims (document_id, table_id, row_index, claim_number, date_of_loss, description, paid_amount, reserve_amount, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			docID, c.TableID, c.RowIndex, c.ClaimNumber, c.DateOfLoss, c.Description, c.PaidAmount, c.ReserveAmount, c.Status,
		)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) GetLossRunClaims(ctx context.Context, docID string) ([]models.LossRunClaim, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT table_id, row_index, claim_number, date_of_loss, description, paid_amount, reserve_amount, status
		 FROM loss_run_claims WHERE document_id = $1 ORDER BY table_id, row_index`, docID)
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

func (s *PostgresStorage) ReplaceChunks(ctx context.Context, docID string, chunks []models.HybridChunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, docID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(
			`INSERT INTO chunks (stable_chunk_id, document_id, text, token_count, section_type, page_range)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.StableChunkID, docID, c.Text, c.TokenCount, c.SectionType, c.PageRange,
		)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) GetChunks(ctx context.Context, docID string) ([]models.HybridChunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT stable_chunk_id, document_id, text, token_count, section_type, page_range
		 FROM chunks WHERE document_id = $1`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HybridChunk
	for rows.Next() {
		var c models.HybridChunk
		if err := rows.Scan(&c.StableChunkID, &c.DocumentID, &c.Text, &c.TokenCount, &c.SectionType, &c.PageRange); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) PutExtraction(ctx context.Context, ex models.SectionExtraction) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO section_extractions (document_id, section_type, run_id, fields, entities, confidence, source_chunks, model_version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (document_id, section_type) DO UPDATE SET
		   run_id = excluded.run_id, fields = excluded.fields, entities = excluded.entities,
		   confidence = excluded.confidence, source_chunks = excluded.source_chunks, model_version = excluded.model_version`,
		ex.DocumentID, ex.SectionType, ex.RunID, ex.Fields, ex.Entities, ex.Confidence, ex.SourceChunks, ex.ModelVersion,
	)
	return err
}

func (s *PostgresStorage) GetExtractions(ctx context.Context, docID string) ([]models.SectionExtraction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_id, section_type, run_id, fields, entities, confidence, source_chunks, model_version
		 FROM section_extractions WHERE document_id = $1`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SectionExtraction
	for rows.Next() {
		var ex models.SectionExtraction
		if err := rows.Scan(&ex.DocumentID, &ex.SectionType, &ex.RunID, &ex.Fields, &ex.Entities, &ex.Confidence, &ex.SourceChunks, &ex.ModelVersion); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) UpsertCanonicalEntity(ctx context.Context, e models.CanonicalEntity) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO canonical_entities (id, type, attributes, confidence) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET type = excluded.type, attributes = excluded.attributes, confidence = excluded.confidence`,
		e.ID, e.Type, e.Attributes, e.Confidence,
	)
	return err
}

func (s *PostgresStorage) DeleteCanonicalEntity(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM canonical_entities WHERE id = $1`, id)
	return err
}

func (s *PostgresStorage) GetCanonicalEntity(ctx context.Context, id string) (models.CanonicalEntity, error) {
	var e models.CanonicalEntity
	err := s.pool.QueryRow(ctx, `SELECT id, type, attributes, confidence FROM canonical_entities WHERE id = $1`, id).
		Scan(&e.ID, &e.Type, &e.Attributes, &e.Confidence)
	if err == pgx.ErrNoRows {
		return models.CanonicalEntity{}, fmt.Errorf("canonical entity not found: %s", id)
	}
	return e, err
}

func (s *PostgresStorage) ListCanonicalEntities(ctx context.Context, entityType models.EntityType) ([]models.CanonicalEntity, error) {
	var rows pgx.Rows
	var err error
	if entityType == "" {
		rows, err = s.pool.Query(ctx, `SELECT id, type, attributes, confidence FROM canonical_entities`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT id, type, attributes, confidence FROM canonical_entities WHERE type = $1`, entityType)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CanonicalEntity
	for rows.Next() {
		var e models.CanonicalEntity
		if err := rows.Scan(&e.ID, &e.Type, &e.Attributes, &e.Confidence); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) PutRelationship(ctx context.Context, r models.Relationship) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO relationships (id, source_canonical_id, target_canonical_id, type, attributes, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET source_canonical_id = excluded.source_canonical_id,
		   target_canonical_id = excluded.target_canonical_id, type = excluded.type,
		   attributes = excluded.attributes, confidence = excluded.confidence`,
		r.ID, r.SourceCanonicalID, r.TargetCanonicalID, r.Type, r.Attributes, r.Confidence,
	)
	return err
}

func (s *PostgresStorage) ListRelationships(ctx context.Context, canonicalID string) ([]models.Relationship, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_canonical_id, target_canonical_id, type, attributes, confidence
		 FROM relationships WHERE source_canonical_id = $1`, canonicalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Relationship
	for rows.Next() {
		var r models.Relationship
		if err := rows.Scan(&r.ID, &r.SourceCanonicalID, &r.TargetCanonicalID, &r.Type, &r.Attributes, &r.Confidence); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) ReplaceEffectiveCoverages(ctx context.Context, docID string, coverages []models.EffectiveCoverage) error {
	cores := provisionCores(coverages, func(c models.EffectiveCoverage) models.ProvisionCore { return c.ProvisionCore })
	return pgReplaceProvisions(ctx, s.pool, "effective_coverages", docID, cores)
}

func (s *PostgresStorage) ReplaceEffectiveExclusions(ctx context.Context, docID string, exclusions []models.EffectiveExclusion) error {
	cores := provisionCores(exclusions, func(e models.EffectiveExclusion) models.ProvisionCore { return e.ProvisionCore })
	return pgReplaceProvisions(ctx, s.pool, "effective_exclusions", docID, cores)
}

func pgReplaceProvisions(ctx context.Context, pool *pgxpool.Pool, table, docID string, provisions []models.ProvisionCore) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table), docID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	insert := fmt.Sprintf(
		`INSERT INTO %s (document_id, canonical_id, name, effective_state, scope, carve_backs, conditions,
		   impacted_coverages, sources, confidence, severity, description, page_numbers, source_text,
		   clause_reference, is_standard_provision, is_modified, synthesis_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`, table)
	for _, p := range provisions {
		batch.Queue(insert,
			docID, p.CanonicalID, p.Name, p.EffectiveState, p.Scope, p.CarveBacks, p.Conditions,
			p.ImpactedCoverages, p.Sources, p.Confidence, p.Severity, p.Description, p.PageNumbers, p.SourceText,
			p.ClauseReference, p.IsStandardProvision, p.IsModified, p.SynthesisMethod,
		)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) GetEffectiveCoverages(ctx context.Context, docID string) ([]models.EffectiveCoverage, error) {
	cores, err := pgQueryProvisions(ctx, s.pool, "effective_coverages", docID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EffectiveCoverage, len(cores))
	for i, c := range cores {
		out[i] = models.EffectiveCoverage{ProvisionCore: c}
	}
	return out, nil
}

func (s *PostgresStorage) GetEffectiveExclusions(ctx context.Context, docID string) ([]models.EffectiveExclusion, error) {
	cores, err := pgQueryProvisions(ctx, s.pool, "effective_exclusions", docID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EffectiveExclusion, len(cores))
	for i, c := range cores {
		out[i] = models.EffectiveExclusion{ProvisionCore: c}
	}
	return out, nil
}

func pgQueryProvisions(ctx context.Context, pool *pgxpool.Pool, table, docID string) ([]models.ProvisionCore, error) {
	rows, err := pool.Query(ctx, fmt.Sprintf(
		`SELECT canonical_id, name, effective_state, scope, carve_backs, conditions, impacted_coverages,
		   sources, confidence, severity, description, page_numbers, source_text, clause_reference,
		   is_standard_provision, is_modified, synthesis_method
		 FROM %s WHERE document_id = $1`, table), docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProvisionCore
	for rows.Next() {
		var p models.ProvisionCore
		if err := rows.Scan(&p.CanonicalID, &p.Name, &p.EffectiveState, &p.Scope, &p.CarveBacks, &p.Conditions,
			&p.ImpactedCoverages, &p.Sources, &p.Confidence, &p.Severity, &p.Description, &p.PageNumbers, &p.SourceText,
			&p.ClauseReference, &p.IsStandardProvision, &p.IsModified, &p.SynthesisMethod); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) GetStageRun(ctx context.Context, workflowID, docID string, stage models.Stage) (*models.WorkflowStageRun, error) {
	var run models.WorkflowStageRun
	err := s.pool.QueryRow(ctx,
		`SELECT workflow_id, document_id, stage, status, summary, error, updated_at
		 FROM workflow_stage_runs WHERE workflow_id = $1 AND document_id = $2 AND stage = $3`,
		workflowID, docID, stage,
	).Scan(&run.WorkflowID, &run.DocumentID, &run.Stage, &run.Status, &run.Summary, &run.Error, &run.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *PostgresStorage) PutStageRun(ctx context.Context, run models.WorkflowStageRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workflow_stage_runs (workflow_id, document_id, stage, status, summary, error)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (workflow_id, document_id, stage) DO UPDATE SET
		   status = excluded.status, summary = excluded.summary, error = excluded.error, updated_at = now()`,
		run.WorkflowID, run.DocumentID, run.Stage, run.Status, run.Summary, run.Error,
	)
	return err
}

func (s *PostgresStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

func (s *PostgresStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
