package store

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Entity identity is a hash-based 32-bit integer derived from stable
// attributes, never an auto-increment counter. This lets ingestion be
// restarted, re-ordered, or partially replayed without renumbering, and
// lets cross-table references survive a full table rebuild (see schema.go).
//
// hashID runs FNV-32a over the given parts joined with a separator byte
// that cannot appear in any part unescaped, so distinct part tuples never
// collide on concatenation alone.
func hashID(parts ...string) int64 {
	h := fnv.New32a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return int64(h.Sum32())
}

// CatalogID derives a catalog entry's id from its absolute source path.
func CatalogID(absSourcePath string) int64 {
	return hashID(absSourcePath)
}

// ChunkID derives a chunk's id from its owning catalog id and its
// zero-based position within that document.
func ChunkID(catalogID int64, chunkIndex int) int64 {
	return hashID(strconv.FormatInt(catalogID, 10), strconv.Itoa(chunkIndex))
}

// ConceptID derives a concept's id from its normalized name.
func ConceptID(name string) int64 {
	return hashID(NormalizeName(name))
}

// CategoryID derives a category's id from its normalized name.
func CategoryID(name string) int64 {
	return hashID(NormalizeName(name))
}

// PageID derives a page's id from its owning catalog id and 1-indexed
// page number.
func PageID(catalogID int64, pageNumber int) int64 {
	return hashID(strconv.FormatInt(catalogID, 10), strconv.Itoa(pageNumber))
}

// NormalizeName lower-cases, trims, and collapses internal whitespace in a
// concept or category name so that equivalent spellings hash to the same
// id and merge during index build (spec.md §4.2 step 2).
func NormalizeName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, " ")
}
