package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkRepository wraps read/write access to the chunks table.
type ChunkRepository struct {
	store *Store
}

// Chunks returns a repository bound to this store.
func (s *Store) Chunks() *ChunkRepository { return &ChunkRepository{store: s} }

const chunkSelectCols = `id, catalog_id, chunk_index, text, hash, page_number, concept_ids, concept_density`

func scanChunkRow(row interface{ Scan(...interface{}) error }) (Chunk, error) {
	var c Chunk
	var conceptIDs sql.NullString
	var pageNumber sql.NullInt64
	if err := row.Scan(&c.ID, &c.CatalogID, &c.ChunkIndex, &c.Text, &c.Hash, &pageNumber, &conceptIDs, &c.ConceptDensity); err != nil {
		return Chunk{}, err
	}
	if pageNumber.Valid {
		n := int(pageNumber.Int64)
		c.PageNumber = &n
	}
	c.ConceptIDs = decodeIDs(conceptIDs)
	return c, nil
}

// FindByID looks up a chunk by its hash id.
func (r *ChunkRepository) FindByID(ctx context.Context, id int64) (Chunk, bool, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+chunkSelectCols+" FROM chunks WHERE id = ?", id)
	c, err := scanChunkRow(row)
	if err == sql.ErrNoRows {
		return Chunk{}, false, nil
	}
	if err != nil {
		return Chunk{}, false, fmt.Errorf("chunk find_by_id: %w", err)
	}
	return c, true, nil
}

// FindByCatalog returns up to limit chunks belonging to catalogID, ordered
// by chunk_index. excludeReferences is reserved for a future
// reference/bibliography chunk classifier; it is accepted for API
// stability with spec.md §4.5 and currently has no effect since the
// chunker (chunker/chunker.go) does not yet tag reference sections.
func (r *ChunkRepository) FindByCatalog(ctx context.Context, catalogID int64, limit int, excludeReferences bool) ([]Chunk, error) {
	_ = excludeReferences
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+chunkSelectCols+" FROM chunks WHERE catalog_id = ? ORDER BY chunk_index LIMIT ?", catalogID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindByConceptID returns every chunk whose concept_ids contains
// conceptID, up to limit.
func (r *ChunkRepository) FindByConceptID(ctx context.Context, conceptID int64, limit int) ([]Chunk, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT "+chunkSelectCols+" FROM chunks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, err
		}
		for _, id := range c.ConceptIDs {
			if id == conceptID {
				out = append(out, c)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// VectorSearch returns the top-k nearest chunks to query, optionally
// scoped to a single catalog id (catalogID == 0 means unscoped).
func (r *ChunkRepository) VectorSearch(ctx context.Context, query []float32, k int, catalogID int64) ([]VectorHit, error) {
	hits, err := r.store.vectorSearch(ctx, "vec_chunks", "chunk_id", query, k)
	if err != nil || catalogID == 0 {
		return hits, err
	}
	var filtered []VectorHit
	for _, h := range hits {
		c, ok, err := r.FindByID(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		if ok && c.CatalogID == catalogID {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

// FTSSearch returns chunk ids whose text matches the FTS5 query, ranked
// by bm25.
func (r *ChunkRepository) FTSSearch(ctx context.Context, query string, limit int) ([]FTSHit, error) {
	return r.store.ftsSearch(ctx, "chunks_fts", query, limit)
}
