package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Snapshot is the complete set of rows the index build (spec.md §4.2)
// produces from a pass over the stage cache. WriteSnapshot replaces the
// entire contents of the four typed tables and pages with it, atomically.
type Snapshot struct {
	Catalog    []CatalogEntry
	Chunks     []Chunk
	Concepts   []Concept
	Categories []Category
	Pages      []Page
}

// WriteSnapshot performs the atomic table rebuild described in
// spec.md §4.2 step 8: every row of the prior snapshot is deleted and the
// new snapshot inserted in a single write transaction. Concurrent readers
// on other connections see the prior snapshot in full until COMMIT, and
// the new snapshot in full afterward — the transaction boundary is the
// atomicity mechanism, so no on-disk staging directory or page rename is
// needed.
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range deleteAllStatements() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clearing tables: %w", err)
			}
		}

		for _, c := range snap.Catalog {
			if err := insertCatalogTx(ctx, tx, c); err != nil {
				return fmt.Errorf("inserting catalog %d: %w", c.ID, err)
			}
		}
		for _, c := range snap.Chunks {
			if err := insertChunkTx(ctx, tx, c); err != nil {
				return fmt.Errorf("inserting chunk %d: %w", c.ID, err)
			}
		}
		for _, c := range snap.Concepts {
			if err := insertConceptTx(ctx, tx, c); err != nil {
				return fmt.Errorf("inserting concept %d: %w", c.ID, err)
			}
		}
		for _, c := range snap.Categories {
			if err := insertCategoryTx(ctx, tx, c); err != nil {
				return fmt.Errorf("inserting category %d: %w", c.ID, err)
			}
		}
		for _, p := range snap.Pages {
			if err := insertPageTx(ctx, tx, p); err != nil {
				return fmt.Errorf("inserting page %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

func insertCatalogTx(ctx context.Context, tx *sql.Tx, c CatalogEntry) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog (
			id, source, title, author, authors, year, publisher, isbn, doi,
			arxiv_id, venue, keywords, abstract, document_type, summary,
			concept_ids, category_ids, concept_names, category_names
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, c.ID, c.Source, c.Title, c.Author, encodeStrings(c.Authors), c.Year, c.Publisher,
		c.ISBN, c.DOI, c.ArxivID, c.Venue, encodeStrings(c.Keywords), c.Abstract,
		c.DocumentType, c.Summary, encodeIDs(c.ConceptIDs), encodeIDs(c.CategoryIDs),
		encodeStrings(c.ConceptNames), encodeStrings(c.CategoryNames)); err != nil {
		return err
	}
	if len(c.Vector) > 0 {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO vec_catalog (catalog_id, embedding) VALUES (?, ?)",
			c.ID, serializeFloat32(c.Vector)); err != nil {
			return err
		}
	}
	return nil
}

func insertChunkTx(ctx context.Context, tx *sql.Tx, c Chunk) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chunks (id, catalog_id, chunk_index, text, hash, page_number, concept_ids, concept_density)
		VALUES (?,?,?,?,?,?,?,?)
	`, c.ID, c.CatalogID, c.ChunkIndex, c.Text, c.Hash, c.PageNumber, encodeIDs(c.ConceptIDs), c.ConceptDensity); err != nil {
		return err
	}
	if len(c.Vector) > 0 {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)",
			c.ID, serializeFloat32(c.Vector)); err != nil {
			return err
		}
	}
	return nil
}

func insertConceptTx(ctx context.Context, tx *sql.Tx, c Concept) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO concepts (
			id, name, summary, concept_type, catalog_ids, chunk_ids, adjacent_ids,
			related_ids, synonyms, broader_terms, narrower_terms, weight, catalog_titles
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, c.ID, c.Name, c.Summary, c.ConceptType, encodeIDs(c.CatalogIDs), encodeIDs(c.ChunkIDs),
		encodeIDs(c.AdjacentIDs), encodeIDs(c.RelatedIDs), encodeStrings(c.Synonyms),
		encodeStrings(c.BroaderTerms), encodeStrings(c.NarrowerTerms), c.Weight,
		encodeStrings(c.CatalogTitles)); err != nil {
		return err
	}
	if len(c.Vector) > 0 {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO vec_concepts (concept_id, embedding) VALUES (?, ?)",
			c.ID, serializeFloat32(c.Vector)); err != nil {
			return err
		}
	}
	return nil
}

func insertCategoryTx(ctx context.Context, tx *sql.Tx, c Category) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, name, description, parent_id, aliases, related_ids, document_count, chunk_count, concept_count)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, c.ID, c.Name, c.Description, c.ParentID, encodeStrings(c.Aliases), encodeIDs(c.RelatedIDs),
		c.DocumentCount, c.ChunkCount, c.ConceptCount); err != nil {
		return err
	}
	if len(c.Vector) > 0 {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO vec_categories (category_id, embedding) VALUES (?, ?)",
			c.ID, serializeFloat32(c.Vector)); err != nil {
			return err
		}
	}
	return nil
}

func insertPageTx(ctx context.Context, tx *sql.Tx, p Page) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages (id, catalog_id, page_number, concept_ids, text_preview)
		VALUES (?,?,?,?,?)
	`, p.ID, p.CatalogID, p.PageNumber, encodeIDs(p.ConceptIDs), p.TextPreview); err != nil {
		return err
	}
	if len(p.Vector) > 0 {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO vec_pages (page_id, embedding) VALUES (?, ?)",
			p.ID, serializeFloat32(p.Vector)); err != nil {
			return err
		}
	}
	return nil
}
