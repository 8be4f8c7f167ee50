package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CatalogRepository wraps read/write access to the catalog table. Methods
// that look up a single row return (row, true, nil) on a hit and
// (zero, false, nil) on a miss — absence is not an error (spec.md §4.5).
type CatalogRepository struct {
	store *Store
}

// Catalog returns a repository bound to this store.
func (s *Store) Catalog() *CatalogRepository { return &CatalogRepository{store: s} }

func scanCatalogRow(row interface{ Scan(...interface{}) error }) (CatalogEntry, error) {
	var c CatalogEntry
	var authors, keywords, conceptIDs, categoryIDs, conceptNames, categoryNames sql.NullString
	if err := row.Scan(
		&c.ID, &c.Source, &c.Title, &c.Author, &authors, &c.Year, &c.Publisher,
		&c.ISBN, &c.DOI, &c.ArxivID, &c.Venue, &keywords, &c.Abstract,
		&c.DocumentType, &c.Summary, &conceptIDs, &categoryIDs, &conceptNames, &categoryNames,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return CatalogEntry{}, err
	}
	c.Authors = decodeStrings(authors)
	c.Keywords = decodeStrings(keywords)
	c.ConceptIDs = decodeIDs(conceptIDs)
	c.CategoryIDs = decodeIDs(categoryIDs)
	c.ConceptNames = decodeStrings(conceptNames)
	c.CategoryNames = decodeStrings(categoryNames)
	return c, nil
}

const catalogSelectCols = `
	id, source, title, author, authors, year, publisher, isbn, doi, arxiv_id,
	venue, keywords, abstract, document_type, summary, concept_ids,
	category_ids, concept_names, category_names, created_at, updated_at
`

// FindByID looks up a catalog entry by its hash id.
func (r *CatalogRepository) FindByID(ctx context.Context, id int64) (CatalogEntry, bool, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+catalogSelectCols+" FROM catalog WHERE id = ?", id)
	c, err := scanCatalogRow(row)
	if err == sql.ErrNoRows {
		return CatalogEntry{}, false, nil
	}
	if err != nil {
		return CatalogEntry{}, false, fmt.Errorf("catalog find_by_id: %w", err)
	}
	return c, true, nil
}

// FindBySourceExact looks up a catalog entry by its exact source path.
// find_by_source (spec.md §4.5) additionally falls back to hybrid search
// when there is no exact match; that composition lives in the query
// package, which has access to the Hybrid Search Service.
func (r *CatalogRepository) FindBySourceExact(ctx context.Context, source string) (CatalogEntry, bool, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+catalogSelectCols+" FROM catalog WHERE source = ?", source)
	c, err := scanCatalogRow(row)
	if err == sql.ErrNoRows {
		return CatalogEntry{}, false, nil
	}
	if err != nil {
		return CatalogEntry{}, false, fmt.Errorf("catalog find_by_source: %w", err)
	}
	return c, true, nil
}

// List returns every catalog entry, used by the index build's readback
// path and by tools that enumerate the whole corpus.
func (r *CatalogRepository) List(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT "+catalogSelectCols+" FROM catalog ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CatalogEntry
	for rows.Next() {
		c, err := scanCatalogRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindByConceptID returns every catalog entry whose concept_ids contains
// conceptID — used to power find_bibliography_for_concept after the
// concept name has been resolved to an id.
func (r *CatalogRepository) FindByConceptID(ctx context.Context, conceptID int64) ([]CatalogEntry, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []CatalogEntry
	for _, c := range all {
		for _, id := range c.ConceptIDs {
			if id == conceptID {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// VectorSearch returns the top-k nearest catalog rows to query.
func (r *CatalogRepository) VectorSearch(ctx context.Context, query []float32, k int) ([]VectorHit, error) {
	return r.store.vectorSearch(ctx, "vec_catalog", "catalog_id", query, k)
}

// FTSSearch returns catalog rows whose summary matches the FTS5 query,
// ranked by bm25.
func (r *CatalogRepository) FTSSearch(ctx context.Context, query string, limit int) ([]FTSHit, error) {
	return r.store.ftsSearch(ctx, "catalog_fts", query, limit)
}
