package store

import "fmt"

// tableDDL returns the DDL for the four typed tables plus the pages table.
// Every *_ids array field is stored as JSON text and decoded by the
// repository layer at read time — it is never the authoritative form.
const tableDDL = `
CREATE TABLE IF NOT EXISTS catalog (
    id INTEGER PRIMARY KEY,
    source TEXT NOT NULL UNIQUE,
    title TEXT,
    author TEXT,
    authors JSON,
    year INTEGER,
    publisher TEXT,
    isbn TEXT,
    doi TEXT,
    arxiv_id TEXT,
    venue TEXT,
    keywords JSON,
    abstract TEXT,
    document_type TEXT NOT NULL DEFAULT 'unknown',
    summary TEXT,
    concept_ids JSON,
    category_ids JSON,
    concept_names JSON,
    category_names JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY,
    catalog_id INTEGER NOT NULL REFERENCES catalog(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    text TEXT NOT NULL,
    hash TEXT NOT NULL,
    page_number INTEGER,
    concept_ids JSON,
    concept_density REAL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS concepts (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    summary TEXT,
    concept_type TEXT NOT NULL DEFAULT 'thematic',
    catalog_ids JSON,
    chunk_ids JSON,
    adjacent_ids JSON,
    related_ids JSON,
    synonyms JSON,
    broader_terms JSON,
    narrower_terms JSON,
    weight REAL DEFAULT 0,
    catalog_titles JSON
);

CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    parent_id INTEGER REFERENCES categories(id),
    aliases JSON,
    related_ids JSON,
    document_count INTEGER DEFAULT 0,
    chunk_count INTEGER DEFAULT 0,
    concept_count INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY,
    catalog_id INTEGER NOT NULL REFERENCES catalog(id) ON DELETE CASCADE,
    page_number INTEGER NOT NULL,
    concept_ids JSON,
    text_preview TEXT
);

CREATE INDEX IF NOT EXISTS idx_chunks_catalog ON chunks(catalog_id);
CREATE INDEX IF NOT EXISTS idx_pages_catalog ON pages(catalog_id);
CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id);
`

// vecDDL returns the companion vec0 virtual tables for nearest-neighbour
// search over the embeddingDim-float vector column of each typed table.
func vecDDL(embeddingDim int) string {
	return fmt.Sprintf(`
CREATE VIRTUAL TABLE IF NOT EXISTS vec_catalog USING vec0(
    catalog_id INTEGER PRIMARY KEY,
    embedding float[%[1]d]
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%[1]d]
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_concepts USING vec0(
    concept_id INTEGER PRIMARY KEY,
    embedding float[%[1]d]
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_categories USING vec0(
    category_id INTEGER PRIMARY KEY,
    embedding float[%[1]d]
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_pages USING vec0(
    page_id INTEGER PRIMARY KEY,
    embedding float[%[1]d]
);
`, embeddingDim)
}

// ftsDDL holds the FTS5 virtual tables and sync triggers. Only catalog,
// chunks and concepts get a BM25 field per spec.md §4.8 step 4 (categories
// and pages are never BM25-scored).
const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS catalog_fts USING fts5(
    summary,
    content='catalog',
    content_rowid='id',
    tokenize='porter unicode61'
);
CREATE TRIGGER IF NOT EXISTS catalog_ai AFTER INSERT ON catalog BEGIN
    INSERT INTO catalog_fts(rowid, summary) VALUES (new.id, new.summary);
END;
CREATE TRIGGER IF NOT EXISTS catalog_ad AFTER DELETE ON catalog BEGIN
    INSERT INTO catalog_fts(catalog_fts, rowid, summary) VALUES ('delete', old.id, old.summary);
END;
CREATE TRIGGER IF NOT EXISTS catalog_au AFTER UPDATE ON catalog BEGIN
    INSERT INTO catalog_fts(catalog_fts, rowid, summary) VALUES ('delete', old.id, old.summary);
    INSERT INTO catalog_fts(rowid, summary) VALUES (new.id, new.summary);
END;

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
    text,
    content='chunks',
    content_rowid='id',
    tokenize='porter unicode61'
);
CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
    INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
END;
CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.id, old.text);
END;
CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
    INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.id, old.text);
    INSERT INTO chunks_fts(rowid, text) VALUES (new.id, new.text);
END;

CREATE VIRTUAL TABLE IF NOT EXISTS concepts_fts USING fts5(
    name,
    summary,
    synonyms,
    content='concepts',
    content_rowid='id',
    tokenize='porter unicode61'
);
CREATE TRIGGER IF NOT EXISTS concepts_ai AFTER INSERT ON concepts BEGIN
    INSERT INTO concepts_fts(rowid, name, summary, synonyms) VALUES (new.id, new.name, new.summary, new.synonyms);
END;
CREATE TRIGGER IF NOT EXISTS concepts_ad AFTER DELETE ON concepts BEGIN
    INSERT INTO concepts_fts(concepts_fts, rowid, name, summary, synonyms) VALUES ('delete', old.id, old.name, old.summary, old.synonyms);
END;
CREATE TRIGGER IF NOT EXISTS concepts_au AFTER UPDATE ON concepts BEGIN
    INSERT INTO concepts_fts(concepts_fts, rowid, name, summary, synonyms) VALUES ('delete', old.id, old.name, old.summary, old.synonyms);
    INSERT INTO concepts_fts(rowid, name, summary, synonyms) VALUES (new.id, new.name, new.summary, new.synonyms);
END;
`

// schemaSQL returns the full DDL applied at store open time.
func schemaSQL(embeddingDim int) string {
	return tableDDL + vecDDL(embeddingDim) + ftsDDL + `
CREATE TABLE IF NOT EXISTS category_summary_cache (
    category_name TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
}
