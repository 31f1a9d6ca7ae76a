package diff

import (
	"github.com/tidwall/btree"
)

// IndexEntry describes one object found in the destination.
type IndexEntry struct {
	RelativePath string
	Hash         string
	Size         int64
	IsDirectory  bool
}

// Index is a read-only snapshot of the destination keyed by relative path.
type Index struct {
	entries btree.Map[string, IndexEntry]
}

func newIndex(entries []IndexEntry) *Index {
	idx := &Index{}
	for _, entry := range entries {
		idx.entries.Set(entry.RelativePath, entry)
	}

	return idx
}

func (idx *Index) Get(relative string) (IndexEntry, bool) {
	return idx.entries.Get(relative)
}

func (idx *Index) Len() int {
	return idx.entries.Len()
}

// Entries returns all entries ordered by relative path.
func (idx *Index) Entries() []IndexEntry {
	entries := make([]IndexEntry, 0, idx.entries.Len())
	idx.entries.Scan(func(_ string, entry IndexEntry) bool {
		entries = append(entries, entry)
		return true
	})

	return entries
}
