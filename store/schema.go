package store

import "fmt"

// schemaSQL returns the DDL for all tables. vectorDim controls the vec0
// virtual table dimension.
func schemaSQL(vectorDim int) string {
	return fmt.Sprintf(`
-- Document registry with hash-based change detection
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL,
    format TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    parse_method TEXT NOT NULL,
    status TEXT DEFAULT 'pending',
    metadata JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Gazette sections in document order
CREATE TABLE IF NOT EXISTS sections (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    heading TEXT,
    content TEXT NOT NULL,
    section_type TEXT NOT NULL,
    level INTEGER DEFAULT 0,
    page_number INTEGER,
    position_in_doc INTEGER,
    content_hash TEXT NOT NULL
);

-- Vector index via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_sections USING vec0(
    section_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Full-text search via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS sections_fts USING fts5(
    content,
    heading,
    content='sections',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS sections_ai AFTER INSERT ON sections BEGIN
    INSERT INTO sections_fts(rowid, content, heading) VALUES (new.id, new.content, new.heading);
END;
CREATE TRIGGER IF NOT EXISTS sections_ad AFTER DELETE ON sections BEGIN
    INSERT INTO sections_fts(sections_fts, rowid, content, heading) VALUES ('delete', old.id, old.content, old.heading);
END;
CREATE TRIGGER IF NOT EXISTS sections_au AFTER UPDATE ON sections BEGIN
    INSERT INTO sections_fts(sections_fts, rowid, content, heading) VALUES ('delete', old.id, old.content, old.heading);
    INSERT INTO sections_fts(sections_fts, rowid, content, heading) VALUES (new.id, new.content, new.heading);
END;

-- Referenced instruments, one row per document graph node
CREATE TABLE IF NOT EXISTS legal_refs (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    ref_key TEXT NOT NULL,
    ref_type TEXT NOT NULL,
    ref_number TEXT NOT NULL,
    date_gregorian TEXT DEFAULT '',
    date_hijri TEXT DEFAULT '',
    title TEXT DEFAULT '',
    issuing_authority TEXT DEFAULT '',
    UNIQUE(document_id, ref_key)
);

-- Extracted relationships between instruments
CREATE TABLE IF NOT EXISTS relations (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    source_key TEXT NOT NULL,
    target_key TEXT NOT NULL,
    description TEXT,
    confidence REAL NOT NULL,
    start_index INTEGER NOT NULL,
    end_index INTEGER NOT NULL,
    page_number INTEGER,
    details JSON
);

-- Derived document clusters
CREATE TABLE IF NOT EXISTS clusters (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    cluster_id TEXT NOT NULL,
    cluster_type TEXT NOT NULL,
    description TEXT,
    members JSON NOT NULL
);

-- Analysis audit log
CREATE TABLE IF NOT EXISTS analysis_log (
    id TEXT PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    relationship_count INTEGER DEFAULT 0,
    cluster_count INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_sections_document ON sections(document_id);
CREATE INDEX IF NOT EXISTS idx_sections_type ON sections(section_type);
CREATE INDEX IF NOT EXISTS idx_legal_refs_document ON legal_refs(document_id);
CREATE INDEX IF NOT EXISTS idx_legal_refs_key ON legal_refs(ref_key);
CREATE INDEX IF NOT EXISTS idx_relations_document ON relations(document_id);
CREATE INDEX IF NOT EXISTS idx_relations_kind ON relations(kind);
CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target_key);
CREATE INDEX IF NOT EXISTS idx_clusters_document ON clusters(document_id);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
`, vectorDim)
}
