package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CategoryRepository wraps read/write access to the categories table.
type CategoryRepository struct {
	store *Store
}

// Categories returns a repository bound to this store.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{store: s} }

const categorySelectCols = `
	id, name, description, parent_id, aliases, related_ids,
	document_count, chunk_count, concept_count
`

func scanCategoryRow(row interface{ Scan(...interface{}) error }) (Category, error) {
	var c Category
	var parentID sql.NullInt64
	var aliases, relatedIDs sql.NullString
	if err := row.Scan(
		&c.ID, &c.Name, &c.Description, &parentID, &aliases, &relatedIDs,
		&c.DocumentCount, &c.ChunkCount, &c.ConceptCount,
	); err != nil {
		return Category{}, err
	}
	if parentID.Valid {
		id := parentID.Int64
		c.ParentID = &id
	}
	c.Aliases = decodeStrings(aliases)
	c.RelatedIDs = decodeIDs(relatedIDs)
	return c, nil
}

// FindByID looks up a category by its hash id.
func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (Category, bool, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+categorySelectCols+" FROM categories WHERE id = ?", id)
	c, err := scanCategoryRow(row)
	if err == sql.ErrNoRows {
		return Category{}, false, nil
	}
	if err != nil {
		return Category{}, false, fmt.Errorf("category find_by_id: %w", err)
	}
	return c, true, nil
}

// FindByName looks up a category by case-insensitive exact name match.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (Category, bool, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+categorySelectCols+" FROM categories WHERE name = ?", NormalizeName(name))
	c, err := scanCategoryRow(row)
	if err == sql.ErrNoRows {
		return Category{}, false, nil
	}
	if err != nil {
		return Category{}, false, fmt.Errorf("category find_by_name: %w", err)
	}
	return c, true, nil
}

// List returns every category, used by find_by_alias (resolved in-memory
// against aliases) and by the engine's category listing.
func (r *CategoryRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT "+categorySelectCols+" FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategoryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Children returns every category whose parent_id is parentID.
func (r *CategoryRepository) Children(ctx context.Context, parentID int64) ([]Category, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT "+categorySelectCols+" FROM categories WHERE parent_id = ?", parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategoryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SummaryCacheGet returns a previously generated category description
// keyed by category name, supporting the at-most-once LLM post-pass
// described in spec.md §4.2.
func (r *CategoryRepository) SummaryCacheGet(ctx context.Context, categoryName string) (string, bool, error) {
	var desc string
	err := r.store.db.QueryRowContext(ctx,
		"SELECT description FROM category_summary_cache WHERE category_name = ?", NormalizeName(categoryName)).Scan(&desc)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return desc, true, nil
}

// SummaryCachePut stores a generated category description.
func (r *CategoryRepository) SummaryCachePut(ctx context.Context, categoryName, description string) error {
	_, err := r.store.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO category_summary_cache (category_name, description) VALUES (?, ?)",
		NormalizeName(categoryName), description)
	return err
}
