package store

import (
	"context"
	"database/sql"
)

// PageRepository wraps read access to the (optional, intermediate) pages
// table, used by the engine to list a document's pages.
type PageRepository struct {
	store *Store
}

// Pages returns a repository bound to this store.
func (s *Store) Pages() *PageRepository { return &PageRepository{store: s} }

const pageSelectCols = `id, catalog_id, page_number, concept_ids, text_preview`

func scanPageRow(row interface{ Scan(...interface{}) error }) (Page, error) {
	var p Page
	var conceptIDs sql.NullString
	if err := row.Scan(&p.ID, &p.CatalogID, &p.PageNumber, &conceptIDs, &p.TextPreview); err != nil {
		return Page{}, err
	}
	p.ConceptIDs = decodeIDs(conceptIDs)
	return p, nil
}

// FindByCatalog returns every page belonging to catalogID, ordered by
// page number.
func (r *PageRepository) FindByCatalog(ctx context.Context, catalogID int64) ([]Page, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+pageSelectCols+" FROM pages WHERE catalog_id = ? ORDER BY page_number", catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		p, err := scanPageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
