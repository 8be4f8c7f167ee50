package cache

import "testing"

func testEntries() []CategoryEntry {
	root := int64(1)
	return []CategoryEntry{
		{ID: 1, Name: "science", Aliases: []string{"sciences"}},
		{ID: 2, Name: "physics", Aliases: []string{"phys"}, ParentID: &root},
		{ID: 3, Name: "mechanics", ParentID: int64Ptr(2)},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestCategoryIndexIDByName(t *testing.T) {
	idx := NewCategoryIndex(testEntries())
	id, ok := idx.IDByName("physics")
	if !ok || id != 2 {
		t.Fatalf("IDByName(physics) = %v, %v, want 2, true", id, ok)
	}
}

func TestCategoryIndexIDByAlias(t *testing.T) {
	idx := NewCategoryIndex(testEntries())
	id, ok := idx.IDByAlias("phys")
	if !ok || id != 2 {
		t.Fatalf("IDByAlias(phys) = %v, %v, want 2, true", id, ok)
	}
}

func TestCategoryIndexUnknownName(t *testing.T) {
	idx := NewCategoryIndex(testEntries())
	if _, ok := idx.IDByName("unknown"); ok {
		t.Fatal("expected miss for unknown category name")
	}
}

func TestCategoryIndexChildrenAndParent(t *testing.T) {
	idx := NewCategoryIndex(testEntries())
	children := idx.Children(1)
	if len(children) != 1 || children[0] != 2 {
		t.Fatalf("Children(1) = %v, want [2]", children)
	}
	parent, ok := idx.Parent(2)
	if !ok || parent != 1 {
		t.Fatalf("Parent(2) = %v, %v, want 1, true", parent, ok)
	}
}

func TestCategoryIndexDescendants(t *testing.T) {
	idx := NewCategoryIndex(testEntries())
	desc := idx.Descendants(1)
	if len(desc) != 2 {
		t.Fatalf("Descendants(1) = %v, want 2 entries", desc)
	}
}

func TestCategoryIndexReload(t *testing.T) {
	idx := NewCategoryIndex(testEntries())
	idx.Reload([]CategoryEntry{{ID: 99, Name: "new-category"}})

	if idx.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", idx.Size())
	}
	if _, ok := idx.IDByName("physics"); ok {
		t.Fatal("expected old entries to be gone after Reload")
	}
	if id, ok := idx.IDByName("new-category"); !ok || id != 99 {
		t.Fatalf("IDByName(new-category) = %v, %v, want 99, true", id, ok)
	}
}
