package cache

import (
	"sync"
)

// CategoryIndex is an in-memory name/alias/hierarchy index built from a
// category listing. It provides O(1) name->id and alias->id lookups,
// parent, direct-children and transitive-descendant traversal, and a
// Size count; it keeps no id->name map and no per-category stats. Reload
// replaces its contents wholesale.
type CategoryIndex struct {
	mu        sync.RWMutex
	nameToID  map[string]int64
	aliasToID map[string]int64
	children  map[int64][]int64
	parent    map[int64]int64
}

// CategoryEntry is the minimal shape CategoryIndex needs to build its
// lookup tables from a full category listing.
type CategoryEntry struct {
	ID       int64
	Name     string
	Aliases  []string
	ParentID *int64
}

// NewCategoryIndex builds an index from entries.
func NewCategoryIndex(entries []CategoryEntry) *CategoryIndex {
	idx := &CategoryIndex{
		nameToID:  make(map[string]int64, len(entries)),
		aliasToID: make(map[string]int64),
		children:  make(map[int64][]int64),
		parent:    make(map[int64]int64),
	}
	idx.Reload(entries)
	return idx
}

// Reload replaces the index's contents atomically.
func (idx *CategoryIndex) Reload(entries []CategoryEntry) {
	nameToID := make(map[string]int64, len(entries))
	aliasToID := make(map[string]int64)
	children := make(map[int64][]int64)
	parent := make(map[int64]int64)

	for _, e := range entries {
		nameToID[e.Name] = e.ID
		for _, a := range e.Aliases {
			aliasToID[a] = e.ID
		}
		if e.ParentID != nil {
			parent[e.ID] = *e.ParentID
			children[*e.ParentID] = append(children[*e.ParentID], e.ID)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.nameToID = nameToID
	idx.aliasToID = aliasToID
	idx.children = children
	idx.parent = parent
}

// IDByName resolves a category name to its id.
func (idx *CategoryIndex) IDByName(name string) (int64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.nameToID[name]
	return id, ok
}

// IDByAlias resolves a category alias to its id.
func (idx *CategoryIndex) IDByAlias(alias string) (int64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.aliasToID[alias]
	return id, ok
}

// Children returns the direct child category ids of parentID.
func (idx *CategoryIndex) Children(parentID int64) []int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]int64(nil), idx.children[parentID]...)
}

// Parent returns the parent category id, if any.
func (idx *CategoryIndex) Parent(id int64) (int64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.parent[id]
	return p, ok
}

// Descendants returns every transitive child of id (include_children
// expansion for category_search, spec.md §6.2).
func (idx *CategoryIndex) Descendants(id int64) []int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []int64
	var walk func(int64)
	walk = func(cur int64) {
		for _, child := range idx.children[cur] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(id)
	return out
}

// Size returns the number of categories currently indexed by name.
func (idx *CategoryIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nameToID)
}
