// Package legigraph extracts cross-reference relationships from Algerian
// legal texts (Journal officiel instruments), builds relationship graphs,
// and persists documents for hybrid full-text + vector retrieval.
package legigraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/legigraph/parser"
	"github.com/brunobiangulo/legigraph/relation"
	"github.com/brunobiangulo/legigraph/retrieval"
	"github.com/brunobiangulo/legigraph/store"
)

// Engine is the main entry point for the relationship-mining engine.
type Engine interface {
	// Analyze runs relationship extraction over raw text. It never fails:
	// text that matches nothing yields an empty slice.
	Analyze(ctx context.Context, text string, source *relation.DocumentRef) []relation.Relationship

	// BuildGraph aggregates extracted relationships into a document graph
	// with thematic and chronological clusters.
	BuildGraph(relationships []relation.Relationship) *relation.Graph

	// Ingest parses a document file, extracts relationships, builds the
	// graph, and persists everything. Returns the document ID. Skips work
	// if the file's content hash is unchanged.
	Ingest(ctx context.Context, path string, opts ...IngestOption) (int64, error)

	// Graph returns the persisted relationship graph for a document.
	Graph(ctx context.Context, documentID int64) (*relation.Graph, error)

	// Search runs hybrid FTS + vector retrieval over ingested sections.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Update re-checks a document by hash. Re-ingests if changed.
	Update(ctx context.Context, path string) (bool, error)

	// UpdateAll checks all ingested documents for changes.
	UpdateAll(ctx context.Context) ([]UpdateResult, error)

	// Delete removes a document and all associated data.
	Delete(ctx context.Context, documentID int64) error

	// ListDocuments returns all ingested documents.
	ListDocuments(ctx context.Context) ([]Document, error)

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// Document represents an ingested document.
type Document struct {
	ID          int64             `json:"id"`
	Path        string            `json:"path"`
	Filename    string            `json:"filename"`
	Format      string            `json:"format"`
	ContentHash string            `json:"content_hash"`
	ParseMethod string            `json:"parse_method"`
	Status      string            `json:"status"`
	DocType     string            `json:"doc_type,omitempty"`
	DocNumber   string            `json:"doc_number,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// SearchResult is a retrieved section backing a search hit.
type SearchResult struct {
	SectionID   int64   `json:"section_id"`
	DocumentID  int64   `json:"document_id"`
	Filename    string  `json:"filename"`
	Heading     string  `json:"heading"`
	Content     string  `json:"content"`
	SectionType string  `json:"section_type"`
	PageNumber  int     `json:"page_number"`
	Score       float64 `json:"score"`
}

// UpdateResult reports the outcome of a document update check.
type UpdateResult struct {
	DocumentID int64  `json:"document_id"`
	Path       string `json:"path"`
	Changed    bool   `json:"changed"`
	Error      error  `json:"error,omitempty"`
}

// IngestOption configures ingestion behavior.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	forceReparse bool
	sourceRef    *relation.DocumentRef
	metadata     map[string]string
}

// WithForceReparse forces re-parsing even if the hash hasn't changed.
func WithForceReparse() IngestOption {
	return func(o *ingestOptions) { o.forceReparse = true }
}

// WithSourceRef sets the source document identity for extracted
// relationships, overriding the identity derived from the text itself.
func WithSourceRef(ref relation.DocumentRef) IngestOption {
	return func(o *ingestOptions) { o.sourceRef = &ref }
}

// WithMetadata attaches custom metadata to the ingested document.
func WithMetadata(metadata map[string]string) IngestOption {
	return func(o *ingestOptions) { o.metadata = metadata }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg       Config
	store     *store.Store
	parsers   *parser.Registry
	vec       *retrieval.Vectorizer
	retriever *retrieval.Engine
}

// New creates a new LegiGraph engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if cfg.WeightVector < 0 || cfg.WeightFTS < 0 {
		return nil, fmt.Errorf("%w: retrieval weights must be non-negative", ErrInvalidConfig)
	}

	// Resolve database path from config (DBPath > DBName+StorageDir > default)
	dbPath := cfg.resolveDBPath()

	// Apply defaults for zero values
	if cfg.VectorDim == 0 {
		cfg.VectorDim = 256
	}
	if cfg.WeightVector == 0 {
		cfg.WeightVector = 1.0
	}
	if cfg.WeightFTS == 0 {
		cfg.WeightFTS = 1.0
	}

	s, err := store.New(dbPath, cfg.VectorDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	vec := retrieval.NewVectorizer(cfg.VectorDim)
	retriever := retrieval.New(s, vec, retrieval.Config{
		WeightVector: cfg.WeightVector,
		WeightFTS:    cfg.WeightFTS,
	})

	slog.Info("engine initialised", "db", dbPath, "vector_dim", cfg.VectorDim)

	return &engine{
		cfg:       cfg,
		store:     s,
		parsers:   parser.NewRegistry(),
		vec:       vec,
		retriever: retriever,
	}, nil
}

// Analyze runs relationship extraction with the default pattern catalog.
func (e *engine) Analyze(ctx context.Context, text string, source *relation.DocumentRef) []relation.Relationship {
	return relation.AnalyzeRelationships(text, source)
}

// BuildGraph aggregates relationships into a document graph.
func (e *engine) BuildGraph(relationships []relation.Relationship) *relation.Graph {
	return relation.BuildGraph(relationships)
}

// Ingest processes a document file through the full pipeline.
func (e *engine) Ingest(ctx context.Context, path string, opts ...IngestOption) (int64, error) {
	options := &ingestOptions{}
	for _, o := range opts {
		o(options)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}

	hash, err := fileHash(absPath)
	if err != nil {
		return 0, fmt.Errorf("hashing file: %w", err)
	}

	// Check if document already exists with same hash
	if !options.forceReparse {
		existing, err := e.store.GetDocumentByPath(ctx, absPath)
		if err == nil && existing.ContentHash == hash {
			return existing.ID, nil // no change
		}
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(absPath), "."))

	var metadataJSON string
	if options.metadata != nil {
		data, _ := json.Marshal(options.metadata)
		metadataJSON = string(data)
	}

	filename := filepath.Base(absPath)
	docID, err := e.store.UpsertDocument(ctx, store.Document{
		Path:        absPath,
		Filename:    filename,
		Format:      format,
		ContentHash: hash,
		ParseMethod: "pending",
		Status:      "processing",
		Metadata:    metadataJSON,
	})
	if err != nil {
		return 0, fmt.Errorf("upserting document: %w", err)
	}

	slog.Info("ingest: parsing document", "file", filename, "format", format, "doc_id", docID)
	parseStart := time.Now()

	p, err := e.parsers.Get(format)
	if err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	parsed, err := p.Parse(ctx, absPath)
	if err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	slog.Info("ingest: parsing complete",
		"file", filename, "method", parsed.Method,
		"sections", len(parsed.Sections), "elapsed", time.Since(parseStart).Round(time.Millisecond))

	// Derive the instrument identity from the parsed headings. An explicit
	// WithSourceRef wins over the derived identity.
	docType, docNumber := instrumentIdentity(parsed)
	source := options.sourceRef
	if source == nil && docType != "" {
		source = &relation.DocumentRef{Type: docType, Number: docNumber}
	}

	// Delete old sections/embeddings/graph for this document (re-ingest)
	if err := e.store.DeleteDocumentData(ctx, docID); err != nil {
		return 0, fmt.Errorf("cleaning old data: %w", err)
	}

	sections := make([]store.Section, len(parsed.Sections))
	for i, sec := range parsed.Sections {
		sections[i] = store.Section{
			DocumentID:    docID,
			Heading:       sec.Heading,
			Content:       sec.Content,
			SectionType:   sec.Type,
			Level:         sec.Level,
			PageNumber:    sec.PageNumber,
			PositionInDoc: i,
		}
	}

	sectionIDs, err := e.store.InsertSections(ctx, sections)
	if err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("inserting sections: %w", err)
	}

	// Vectorize each section for KNN retrieval
	embedStart := time.Now()
	for i, id := range sectionIDs {
		text := sections[i].Content
		if sections[i].Heading != "" {
			text = sections[i].Heading + ": " + text
		}
		if err := e.store.InsertEmbedding(ctx, id, e.vec.Vectorize(text)); err != nil {
			slog.Warn("storing section vector failed", "section_id", id, "error", err)
		}
	}
	slog.Info("ingest: section vectors stored",
		"file", filename, "sections", len(sectionIDs),
		"elapsed", time.Since(embedStart).Round(time.Millisecond))

	// Relationship extraction over the full document text
	analyzeStart := time.Now()
	relationships := relation.AnalyzeRelationships(parser.Text(parsed), source)
	g := relation.BuildGraph(relationships)
	slog.Info("ingest: relationship analysis complete",
		"file", filename, "relationships", len(relationships),
		"documents", len(g.Documents), "clusters", len(g.Clusters),
		"elapsed", time.Since(analyzeStart).Round(time.Millisecond))

	if err := e.store.SaveGraph(ctx, docID, g); err != nil {
		e.store.UpdateDocumentStatus(ctx, docID, "error")
		return 0, fmt.Errorf("saving graph: %w", err)
	}

	if err := e.store.LogAnalysis(ctx, store.AnalysisRecord{
		ID:                uuid.NewString(),
		DocumentID:        docID,
		RelationshipCount: len(relationships),
		ClusterCount:      len(g.Clusters),
		DurationMS:        time.Since(parseStart).Milliseconds(),
	}); err != nil {
		slog.Warn("recording analysis log failed", "doc_id", docID, "error", err)
	}

	// Final upsert records the derived identity and marks the document ready.
	if _, err := e.store.UpsertDocument(ctx, store.Document{
		Path:        absPath,
		Filename:    filename,
		Format:      format,
		ContentHash: hash,
		ParseMethod: parsed.Method,
		Status:      "ready",
		DocType:     docType,
		DocNumber:   docNumber,
		Metadata:    metadataJSON,
	}); err != nil {
		return 0, fmt.Errorf("finalising document: %w", err)
	}

	slog.Info("ingest: document ready",
		"file", filename, "doc_id", docID,
		"total_elapsed", time.Since(parseStart).Round(time.Millisecond))
	return docID, nil
}

// Graph returns the persisted relationship graph for a document.
func (e *engine) Graph(ctx context.Context, documentID int64) (*relation.Graph, error) {
	if _, err := e.store.GetDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("%w: id %d", ErrDocumentNotFound, documentID)
	}
	return e.store.GetGraph(ctx, documentID)
}

// Search runs hybrid retrieval over ingested sections.
func (e *engine) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	results, _, err := e.retriever.Search(ctx, query, retrieval.SearchOptions{
		MaxResults: k,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			SectionID:   r.SectionID,
			DocumentID:  r.DocumentID,
			Filename:    r.Filename,
			Heading:     r.Heading,
			Content:     r.Content,
			SectionType: r.SectionType,
			PageNumber:  r.PageNumber,
			Score:       r.Score,
		}
	}
	return out, nil
}

// Update checks if a document has changed and re-ingests if needed.
func (e *engine) Update(ctx context.Context, path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolving path: %w", err)
	}

	doc, err := e.store.GetDocumentByPath(ctx, absPath)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrDocumentNotFound, absPath)
	}

	hash, err := fileHash(absPath)
	if err != nil {
		return false, fmt.Errorf("hashing file: %w", err)
	}

	if hash == doc.ContentHash {
		return false, nil
	}

	_, err = e.Ingest(ctx, absPath, WithForceReparse())
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateAll checks all documents for changes.
func (e *engine) UpdateAll(ctx context.Context) ([]UpdateResult, error) {
	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]UpdateResult, 0, len(docs))
	for _, doc := range docs {
		changed, err := e.Update(ctx, doc.Path)
		results = append(results, UpdateResult{
			DocumentID: doc.ID,
			Path:       doc.Path,
			Changed:    changed,
			Error:      err,
		})
	}
	return results, nil
}

// Delete removes a document and all its associated data.
func (e *engine) Delete(ctx context.Context, documentID int64) error {
	if _, err := e.store.GetDocument(ctx, documentID); err != nil {
		return fmt.Errorf("%w: id %d", ErrDocumentNotFound, documentID)
	}
	return e.store.DeleteDocument(ctx, documentID)
}

// ListDocuments returns all ingested documents.
func (e *engine) ListDocuments(ctx context.Context) ([]Document, error) {
	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Document, len(docs))
	for i, d := range docs {
		result[i] = Document{
			ID:          d.ID,
			Path:        d.Path,
			Filename:    d.Filename,
			Format:      d.Format,
			ContentHash: d.ContentHash,
			ParseMethod: d.ParseMethod,
			Status:      d.Status,
			DocType:     d.DocType,
			DocNumber:   d.DocNumber,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
		}
		if d.Metadata != "" {
			_ = json.Unmarshal([]byte(d.Metadata), &result[i].Metadata)
		}
	}
	return result, nil
}

// Store returns the underlying store for diagnostic access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	return e.store.Close()
}

// instrumentIdentityPattern pulls the instrument type and number out of a
// gazette heading like "Décret exécutif n° 21-112 du 25 mars 2021 ...".
var instrumentIdentityPattern = regexp.MustCompile(
	`(?i)^(loi|ordonnance|décret\s+(?:exécutif|présidentiel|législatif)|décret|arrêté\s+interministériel|arrêté|décision|circulaire|instruction)\b.*?n[°]\s*([\d][\d\-/]*)`)

// instrumentIdentity derives (type, number) from the first instrument
// heading of a parsed document. Returns empty strings when the document
// carries no recognisable instrument heading.
func instrumentIdentity(res *parser.ParseResult) (string, string) {
	for _, sec := range res.Sections {
		if sec.Type != "instrument" || sec.Heading == "" {
			continue
		}
		m := instrumentIdentityPattern.FindStringSubmatch(sec.Heading)
		if m == nil {
			continue
		}
		docType := strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
		return docType, m[2]
	}
	return "", ""
}

// fileHash computes the SHA-256 hash of a file's content.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
