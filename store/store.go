package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/legigraph/relation"
)

func init() {
	sqlite_vec.Auto()
}

// Document represents a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Format      string `json:"format"`
	ContentHash string `json:"content_hash"`
	ParseMethod string `json:"parse_method"`
	Status      string `json:"status"`
	DocType     string `json:"doc_type,omitempty"`
	DocNumber   string `json:"doc_number,omitempty"`
	Metadata    string `json:"metadata,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Section represents a row in the sections table.
type Section struct {
	ID            int64  `json:"id"`
	DocumentID    int64  `json:"document_id"`
	Heading       string `json:"heading"`
	Content       string `json:"content"`
	SectionType   string `json:"section_type"`
	Level         int    `json:"level"`
	PageNumber    int    `json:"page_number"`
	PositionInDoc int    `json:"position_in_doc"`
	ContentHash   string `json:"content_hash"`
}

// RetrievalResult holds a section with its retrieval score and document info.
type RetrievalResult struct {
	SectionID   int64   `json:"section_id"`
	DocumentID  int64   `json:"document_id"`
	Content     string  `json:"content"`
	Heading     string  `json:"heading"`
	SectionType string  `json:"section_type"`
	PageNumber  int     `json:"page_number"`
	Filename    string  `json:"filename"`
	Path        string  `json:"path"`
	Score       float64 `json:"score"`
}

// AnalysisRecord is a row in the analysis audit log.
type AnalysisRecord struct {
	ID                string `json:"id"`
	DocumentID        int64  `json:"document_id"`
	RelationshipCount int    `json:"relationship_count"`
	ClusterCount      int    `json:"cluster_count"`
	DurationMS        int64  `json:"duration_ms"`
	CreatedAt         string `json:"created_at"`
}

// Store wraps the SQLite database for all legigraph persistence.
type Store struct {
	db        *sql.DB
	vectorDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including sqlite-vec and FTS5 virtual tables.
func New(dbPath string, vectorDim int) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(vectorDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, vectorDim: vectorDim}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// VectorDim returns the configured vector dimension.
func (s *Store) VectorDim() int {
	return s.vectorDim
}

// --- Document operations ---

// UpsertDocument inserts or updates a document record. Returns the document ID.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, filename, format, content_hash, parse_method, status, doc_type, doc_number, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			format = excluded.format,
			content_hash = excluded.content_hash,
			parse_method = excluded.parse_method,
			status = excluded.status,
			doc_type = excluded.doc_type,
			doc_number = excluded.doc_number,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`, doc.Path, doc.Filename, doc.Format, doc.ContentHash, doc.ParseMethod,
		doc.Status, doc.DocType, doc.DocNumber, doc.Metadata)
	if err != nil {
		return 0, err
	}

	// When the UPSERT takes the UPDATE path, LastInsertId does not reflect
	// the existing row; resolve the ID by path instead.
	var id int64
	row := s.db.QueryRowContext(ctx, "SELECT id FROM documents WHERE path = ?", doc.Path)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const documentColumns = `id, path, filename, format, content_hash, parse_method, status,
	COALESCE(doc_type, ''), COALESCE(doc_number, ''), metadata, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	doc := &Document{}
	var metadata sql.NullString
	err := row.Scan(&doc.ID, &doc.Path, &doc.Filename, &doc.Format,
		&doc.ContentHash, &doc.ParseMethod, &doc.Status,
		&doc.DocType, &doc.DocNumber, &metadata, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Metadata = metadata.String
	return doc, nil
}

// GetDocumentByPath retrieves a document by its file path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE path = ?", path)
	return scanDocument(row)
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// ListDocuments returns all documents ordered by creation time.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus updates just the status field.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	return err
}

// DeleteDocument removes a document and cascades to all related data.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_sections WHERE section_id IN (
				SELECT id FROM sections WHERE document_id = ?
			)`, id); err != nil {
			return err
		}

		// Sections first so the FTS triggers fire; the rest cascades.
		for _, stmt := range []string{
			"DELETE FROM sections WHERE document_id = ?",
			"DELETE FROM legal_refs WHERE document_id = ?",
			"DELETE FROM relations WHERE document_id = ?",
			"DELETE FROM clusters WHERE document_id = ?",
			"DELETE FROM analysis_log WHERE document_id = ?",
			"DELETE FROM documents WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDocumentData removes sections, embeddings and analysis output for a
// document but keeps the document record itself. Used before re-ingesting a
// changed file.
func (s *Store) DeleteDocumentData(ctx context.Context, docID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_sections WHERE section_id IN (
				SELECT id FROM sections WHERE document_id = ?
			)`, docID); err != nil {
			return err
		}

		for _, stmt := range []string{
			"DELETE FROM sections WHERE document_id = ?",
			"DELETE FROM legal_refs WHERE document_id = ?",
			"DELETE FROM relations WHERE document_id = ?",
			"DELETE FROM clusters WHERE document_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, docID); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Section operations ---

// InsertSections inserts a batch of sections and returns their IDs.
func (s *Store) InsertSections(ctx context.Context, sections []Section) ([]int64, error) {
	ids := make([]int64, len(sections))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sections (document_id, heading, content, section_type,
				level, page_number, position_in_doc, content_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, sec := range sections {
			hash := sha256.Sum256([]byte(sec.Content))
			contentHash := hex.EncodeToString(hash[:])

			res, err := stmt.ExecContext(ctx,
				sec.DocumentID, sec.Heading, sec.Content, sec.SectionType,
				sec.Level, sec.PageNumber, sec.PositionInDoc, contentHash)
			if err != nil {
				return err
			}
			ids[i], err = res.LastInsertId()
			if err != nil {
				return err
			}
		}
		return nil
	})

	return ids, err
}

// GetSectionsByDocument returns all sections for a document in order.
func (s *Store) GetSectionsByDocument(ctx context.Context, docID int64) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, heading, content, section_type, level,
			page_number, position_in_doc, content_hash
		FROM sections WHERE document_id = ? ORDER BY position_in_doc
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Heading, &sec.Content,
			&sec.SectionType, &sec.Level, &sec.PageNumber, &sec.PositionInDoc,
			&sec.ContentHash); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// --- Embedding operations ---

// InsertEmbedding stores a feature vector for a section.
func (s *Store) InsertEmbedding(ctx context.Context, sectionID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_sections (section_id, embedding) VALUES (?, ?)",
		sectionID, serializeFloat32(embedding))
	return err
}

// VectorSearch performs a KNN search returning the top-k nearest sections.
func (s *Store) VectorSearch(ctx context.Context, queryVector []float32, k int) ([]RetrievalResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.section_id, v.distance,
			sec.content, sec.heading, sec.section_type, sec.page_number, sec.document_id,
			d.filename, d.path
		FROM vec_sections v
		JOIN sections sec ON sec.id = v.section_id
		JOIN documents d ON d.id = sec.document_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(queryVector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RetrievalResult
	for rows.Next() {
		var r RetrievalResult
		var distance float64
		if err := rows.Scan(&r.SectionID, &distance,
			&r.Content, &r.Heading, &r.SectionType, &r.PageNumber, &r.DocumentID,
			&r.Filename, &r.Path); err != nil {
			return nil, err
		}
		// Convert distance to similarity score (1 - distance for cosine)
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// FTSSearch performs a full-text search using FTS5 BM25 ranking.
func (s *Store) FTSSearch(ctx context.Context, query string, limit int) ([]RetrievalResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.rowid, f.rank,
			sec.content, sec.heading, sec.section_type, sec.page_number, sec.document_id,
			d.filename, d.path
		FROM sections_fts f
		JOIN sections sec ON sec.id = f.rowid
		JOIN documents d ON d.id = sec.document_id
		WHERE sections_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RetrievalResult
	for rows.Next() {
		var r RetrievalResult
		var rank float64
		if err := rows.Scan(&r.SectionID, &rank,
			&r.Content, &r.Heading, &r.SectionType, &r.PageNumber, &r.DocumentID,
			&r.Filename, &r.Path); err != nil {
			return nil, err
		}
		// FTS5 rank is negative (lower = better), convert to positive score
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Graph operations ---

// SaveGraph replaces the stored analysis output for a document with the
// given graph, atomically.
func (s *Store) SaveGraph(ctx context.Context, docID int64, g *relation.Graph) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM legal_refs WHERE document_id = ?",
			"DELETE FROM relations WHERE document_id = ?",
			"DELETE FROM clusters WHERE document_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, docID); err != nil {
				return err
			}
		}

		for key, ref := range g.Documents {
			var gregorian, hijri string
			if ref.Date != nil {
				gregorian = ref.Date.Gregorian
				hijri = ref.Date.Hijri
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO legal_refs (document_id, ref_key, ref_type, ref_number,
					date_gregorian, date_hijri, title, issuing_authority)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, docID, key, ref.Type, ref.Number, gregorian, hijri,
				ref.Title, ref.IssuingAuthority); err != nil {
				return err
			}
		}

		for _, rel := range g.Relationships {
			var details []byte
			if rel.Details != nil {
				var err error
				if details, err = json.Marshal(rel.Details); err != nil {
					return err
				}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO relations (document_id, kind, source_key, target_key,
					description, confidence, start_index, end_index, page_number, details)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, docID, string(rel.Kind),
				relation.DocumentKey(rel.Source), relation.DocumentKey(rel.Target),
				rel.Description, rel.Confidence,
				rel.Position.StartIndex, rel.Position.EndIndex, rel.Position.Page,
				nullableJSON(details)); err != nil {
				return err
			}
		}

		for _, c := range g.Clusters {
			members, err := json.Marshal(c.Documents)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO clusters (document_id, cluster_id, cluster_type, description, members)
				VALUES (?, ?, ?, ?, ?)
			`, docID, c.ID, string(c.Type), c.Description, string(members)); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetGraph reconstructs the stored graph for a document.
func (s *Store) GetGraph(ctx context.Context, docID int64) (*relation.Graph, error) {
	g := &relation.Graph{Documents: make(map[string]relation.DocumentRef)}

	refRows, err := s.db.QueryContext(ctx, `
		SELECT ref_key, ref_type, ref_number, date_gregorian, date_hijri, title, issuing_authority
		FROM legal_refs WHERE document_id = ? ORDER BY id
	`, docID)
	if err != nil {
		return nil, err
	}
	defer refRows.Close()

	for refRows.Next() {
		var key, gregorian, hijri string
		var ref relation.DocumentRef
		if err := refRows.Scan(&key, &ref.Type, &ref.Number,
			&gregorian, &hijri, &ref.Title, &ref.IssuingAuthority); err != nil {
			return nil, err
		}
		if gregorian != "" || hijri != "" {
			ref.Date = &relation.DocumentDate{Gregorian: gregorian, Hijri: hijri}
		}
		g.Documents[key] = ref
	}
	if err := refRows.Err(); err != nil {
		return nil, err
	}

	relRows, err := s.db.QueryContext(ctx, `
		SELECT kind, source_key, target_key, description, confidence,
			start_index, end_index, page_number, details
		FROM relations WHERE document_id = ? ORDER BY start_index, id
	`, docID)
	if err != nil {
		return nil, err
	}
	defer relRows.Close()

	for relRows.Next() {
		var rel relation.Relationship
		var kind, sourceKey, targetKey string
		var details sql.NullString
		if err := relRows.Scan(&kind, &sourceKey, &targetKey,
			&rel.Description, &rel.Confidence,
			&rel.Position.StartIndex, &rel.Position.EndIndex, &rel.Position.Page,
			&details); err != nil {
			return nil, err
		}
		rel.Kind = relation.Kind(kind)
		rel.Source = g.Documents[sourceKey]
		rel.Target = g.Documents[targetKey]
		if details.Valid && details.String != "" {
			rel.Details = &relation.Details{}
			if err := json.Unmarshal([]byte(details.String), rel.Details); err != nil {
				return nil, fmt.Errorf("decoding relation details: %w", err)
			}
		}
		g.Relationships = append(g.Relationships, rel)
	}
	if err := relRows.Err(); err != nil {
		return nil, err
	}

	clusterRows, err := s.db.QueryContext(ctx, `
		SELECT cluster_id, cluster_type, description, members
		FROM clusters WHERE document_id = ? ORDER BY id
	`, docID)
	if err != nil {
		return nil, err
	}
	defer clusterRows.Close()

	for clusterRows.Next() {
		var c relation.Cluster
		var clusterType, members string
		if err := clusterRows.Scan(&c.ID, &clusterType, &c.Description, &members); err != nil {
			return nil, err
		}
		c.Type = relation.ClusterType(clusterType)
		if err := json.Unmarshal([]byte(members), &c.Documents); err != nil {
			return nil, fmt.Errorf("decoding cluster members: %w", err)
		}
		g.Clusters = append(g.Clusters, c)
	}
	return g, clusterRows.Err()
}

// --- Analysis log ---

// LogAnalysis writes an entry to the analysis audit log.
func (s *Store) LogAnalysis(ctx context.Context, rec AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_log (id, document_id, relationship_count, cluster_count, duration_ms)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.DocumentID, rec.RelationshipCount, rec.ClusterCount, rec.DurationMS)
	return err
}

// AnalysisHistory returns the audit log entries for a document, newest first.
func (s *Store) AnalysisHistory(ctx context.Context, docID int64) ([]AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, relationship_count, cluster_count, duration_ms, created_at
		FROM analysis_log WHERE document_id = ? ORDER BY created_at DESC, id
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.RelationshipCount,
			&rec.ClusterCount, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// --- Diagnostics ---

// DBStats holds counts of key database objects.
type DBStats struct {
	Documents  int `json:"documents"`
	Sections   int `json:"sections"`
	Embeddings int `json:"embeddings"`
	LegalRefs  int `json:"legal_refs"`
	Relations  int `json:"relations"`
	Clusters   int `json:"clusters"`
}

// Stats returns counts of documents, sections, embeddings, refs, relations
// and clusters.
func (s *Store) Stats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM sections", &stats.Sections},
		{"SELECT COUNT(*) FROM vec_sections", &stats.Embeddings},
		{"SELECT COUNT(*) FROM legal_refs", &stats.LegalRefs},
		{"SELECT COUNT(*) FROM relations", &stats.Relations},
		{"SELECT COUNT(*) FROM clusters", &stats.Clusters},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
