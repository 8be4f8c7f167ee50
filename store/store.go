// Package store implements the physical realization of the four typed
// tables (catalog, chunks, concepts, categories) plus the auxiliary pages
// table over SQLite, sqlite-vec and FTS5.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// DocumentType enumerates the catalog entry's document_type column.
const (
	DocumentTypeBook    = "book"
	DocumentTypePaper   = "paper"
	DocumentTypeArticle = "article"
	DocumentTypeUnknown = "unknown"
)

// ConceptType enumerates the concepts.concept_type column.
const (
	ConceptThematic   = "thematic"
	ConceptTerminology = "terminology"
)

// CatalogEntry represents a row in the catalog table (spec.md §3.1).
type CatalogEntry struct {
	ID            int64
	Source        string
	Title         string
	Author        string
	Authors       []string
	Year          int
	Publisher     string
	ISBN          string
	DOI           string
	ArxivID       string
	Venue         string
	Keywords      []string
	Abstract      string
	DocumentType  string
	Summary       string
	ConceptIDs    []int64
	CategoryIDs   []int64
	ConceptNames  []string
	CategoryNames []string
	CreatedAt     string
	UpdatedAt     string
	Vector        []float32
}

// Chunk represents a row in the chunks table.
type Chunk struct {
	ID             int64
	CatalogID      int64
	ChunkIndex     int
	Text           string
	Hash           string
	PageNumber     *int
	ConceptIDs     []int64
	ConceptDensity float64
	Vector         []float32
}

// Concept represents a row in the concepts table.
type Concept struct {
	ID            int64
	Name          string
	Summary       string
	ConceptType   string
	CatalogIDs    []int64
	ChunkIDs      []int64
	AdjacentIDs   []int64
	RelatedIDs    []int64
	Synonyms      []string
	BroaderTerms  []string
	NarrowerTerms []string
	Weight        float64
	CatalogTitles []string
	Vector        []float32
}

// Category represents a row in the categories table.
type Category struct {
	ID            int64
	Name          string
	Description   string
	ParentID      *int64
	Aliases       []string
	RelatedIDs    []int64
	DocumentCount int
	ChunkCount    int
	ConceptCount  int
	Vector        []float32
}

// Page represents a row in the pages table.
type Page struct {
	ID          int64
	CatalogID   int64
	PageNumber  int
	ConceptIDs  []int64
	TextPreview string
	Vector      []float32
}

// Store wraps the SQLite database backing all concept-rag persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at dbPath and initializes the
// schema, including sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
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

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

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

// DB returns the underlying *sql.DB for repository-level queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// inTx runs fn inside a transaction, committing on success and rolling
// back on any error fn returns.
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

// serializeFloat32 encodes a vector for storage in a vec0 column.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 decodes a vec0 column value back into a vector.
func deserializeFloat32(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// encodeIDs JSON-encodes an int64 slice for a *_ids column. A nil slice
// encodes as "[]" so downstream scans never see a NULL array.
func encodeIDs(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

// decodeIDs decodes a *_ids column back into an int64 slice.
func decodeIDs(raw sql.NullString) []int64 {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw.String), &ids); err != nil {
		return nil
	}
	return ids
}

// encodeStrings JSON-encodes a string slice for a JSON text column.
func encodeStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

// decodeStrings decodes a JSON text column back into a string slice.
func decodeStrings(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(raw.String), &ss); err != nil {
		return nil
	}
	return ss
}

// VectorHit is one row returned by a nearest-neighbour vec0 search,
// carrying only identity and distance — repositories hydrate the full
// row by id.
type VectorHit struct {
	ID       int64
	Distance float64
}

// vectorSearch runs a KNN query against the named vec0 table and its
// <idColumn> primary key, returning the top-k nearest rows ordered by
// ascending distance.
func (s *Store) vectorSearch(ctx context.Context, vecTable, idColumn string, query []float32, k int) ([]VectorHit, error) {
	q := fmt.Sprintf(`
		SELECT %[1]s, distance FROM %[2]s
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance
	`, idColumn, vecTable)
	rows, err := s.db.QueryContext(ctx, q, serializeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("vector search on %s: %w", vecTable, err)
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var h VectorHit
		if err := rows.Scan(&h.ID, &h.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// FTSHit is one row returned by an FTS5 BM25 query.
type FTSHit struct {
	ID    int64
	Score float64 // bm25() output; more negative is more relevant (raw FTS5 convention)
}

// ftsSearch runs a MATCH query against the named FTS5 table, returning
// up to limit rows ordered by bm25 rank (best first).
func (s *Store) ftsSearch(ctx context.Context, ftsTable, query string, limit int) ([]FTSHit, error) {
	q := fmt.Sprintf(`
		SELECT rowid, bm25(%[1]s) FROM %[1]s
		WHERE %[1]s MATCH ?
		ORDER BY bm25(%[1]s)
		LIMIT ?
	`, ftsTable)
	rows, err := s.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search on %s: %w", ftsTable, err)
	}
	defer rows.Close()

	var hits []FTSHit
	for rows.Next() {
		var h FTSHit
		if err := rows.Scan(&h.ID, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// upsertEmbedding writes a row into the given vec0 table, replacing any
// existing vector for the same id.
func (s *Store) upsertEmbedding(ctx context.Context, vecTable, idColumn string, id int64, embedding []float32) error {
	q := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, embedding) VALUES (?, ?)", vecTable, idColumn)
	_, err := s.db.ExecContext(ctx, q, id, serializeFloat32(embedding))
	return err
}

// deleteAllStatements returns the statements that clear every row from the
// four typed tables, pages and their vec0/FTS5 companions, used by the
// index build's atomic rebuild (WriteSnapshot runs them and the subsequent
// inserts in one transaction via inTx, so readers on other connections
// never observe the tables empty).
func deleteAllStatements() []string {
	return []string{
		"DELETE FROM pages",
		"DELETE FROM vec_pages",
		"DELETE FROM chunks", // triggers chunks_fts delete
		"DELETE FROM vec_chunks",
		"DELETE FROM concepts", // triggers concepts_fts delete
		"DELETE FROM vec_concepts",
		"DELETE FROM categories",
		"DELETE FROM vec_categories",
		"DELETE FROM catalog", // triggers catalog_fts delete
		"DELETE FROM vec_catalog",
	}
}
