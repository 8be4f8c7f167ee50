package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ConceptRepository wraps read/write access to the concepts table.
type ConceptRepository struct {
	store *Store
}

// Concepts returns a repository bound to this store.
func (s *Store) Concepts() *ConceptRepository { return &ConceptRepository{store: s} }

const conceptSelectCols = `
	id, name, summary, concept_type, catalog_ids, chunk_ids, adjacent_ids,
	related_ids, synonyms, broader_terms, narrower_terms, weight, catalog_titles
`

func scanConceptRow(row interface{ Scan(...interface{}) error }) (Concept, error) {
	var c Concept
	var catalogIDs, chunkIDs, adjacentIDs, relatedIDs, synonyms, broader, narrower, catalogTitles sql.NullString
	if err := row.Scan(
		&c.ID, &c.Name, &c.Summary, &c.ConceptType, &catalogIDs, &chunkIDs, &adjacentIDs,
		&relatedIDs, &synonyms, &broader, &narrower, &c.Weight, &catalogTitles,
	); err != nil {
		return Concept{}, err
	}
	c.CatalogIDs = decodeIDs(catalogIDs)
	c.ChunkIDs = decodeIDs(chunkIDs)
	c.AdjacentIDs = decodeIDs(adjacentIDs)
	c.RelatedIDs = decodeIDs(relatedIDs)
	c.Synonyms = decodeStrings(synonyms)
	c.BroaderTerms = decodeStrings(broader)
	c.NarrowerTerms = decodeStrings(narrower)
	c.CatalogTitles = decodeStrings(catalogTitles)
	return c, nil
}

// FindByID looks up a concept by its hash id.
func (r *ConceptRepository) FindByID(ctx context.Context, id int64) (Concept, bool, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+conceptSelectCols+" FROM concepts WHERE id = ?", id)
	c, err := scanConceptRow(row)
	if err == sql.ErrNoRows {
		return Concept{}, false, nil
	}
	if err != nil {
		return Concept{}, false, fmt.Errorf("concept find_by_id: %w", err)
	}
	return c, true, nil
}

// FindByName looks up a concept by case-insensitive exact name match
// (spec.md §4.5: concept repository find_by_name).
func (r *ConceptRepository) FindByName(ctx context.Context, name string) (Concept, bool, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+conceptSelectCols+" FROM concepts WHERE name = ?", NormalizeName(name))
	c, err := scanConceptRow(row)
	if err == sql.ErrNoRows {
		return Concept{}, false, nil
	}
	if err != nil {
		return Concept{}, false, fmt.Errorf("concept find_by_name: %w", err)
	}
	return c, true, nil
}

// List returns every concept, for tools that enumerate the whole concept
// graph.
func (r *ConceptRepository) List(ctx context.Context) ([]Concept, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT "+conceptSelectCols+" FROM concepts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Concept
	for rows.Next() {
		c, err := scanConceptRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindByIDs resolves a batch of concept ids, skipping any that no longer
// resolve to a row (a dangling reference is a pipeline defect per
// spec.md §3.2 invariant 2, but repositories tolerate it defensively at
// read time rather than failing the whole query).
func (r *ConceptRepository) FindByIDs(ctx context.Context, ids []int64) ([]Concept, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+conceptSelectCols+" FROM concepts WHERE id IN ("+strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Concept
	for rows.Next() {
		c, err := scanConceptRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// VectorSearch returns the top-k nearest concepts to query.
func (r *ConceptRepository) VectorSearch(ctx context.Context, query []float32, k int) ([]VectorHit, error) {
	return r.store.vectorSearch(ctx, "vec_concepts", "concept_id", query, k)
}

// FTSSearch returns concept ids whose name+summary+synonyms match the
// FTS5 query, ranked by bm25.
func (r *ConceptRepository) FTSSearch(ctx context.Context, query string, limit int) ([]FTSHit, error) {
	return r.store.ftsSearch(ctx, "concepts_fts", query, limit)
}
