// Package forward holds the per-document index: each entry lists the
// document's terms with section frequencies and global positions, plus
// the document length used by the ranker.
package forward

import (
	"errors"
	"sort"
	"sync"

	"github.com/mnohosten/paperfind/pkg/container"
)

// ErrDuplicateDoc is returned when adding a document ID that is already indexed.
var ErrDuplicateDoc = errors.New("document already in forward index")

// Sections of a document, in concatenation order. Positions are global:
// a token's offset within its section plus the token count of all prior
// sections.
const (
	SectionTitle = iota
	SectionAbstract
	SectionKeywords
	NumSections
)

// TermData records one term's occurrences within a single document.
type TermData struct {
	Frequency [NumSections]int `json:"frequency"`
	Positions []int            `json:"positions"`
}

// Entry is the full forward-index record for one document. Length counts
// title and abstract tokens only; keywords are excluded.
type Entry struct {
	Length   int               `json:"length"`
	WordData map[int]*TermData `json:"word_data"`
}

// Index is the in-memory forward index, persisted as a single container.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty forward index.
func New() *Index {
	return &Index{entries: make(map[string]*Entry)}
}

// Add inserts a document entry. Existing documents are never
// overwritten.
func (idx *Index) Add(docID string, entry *Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.entries[docID]; exists {
		return ErrDuplicateDoc
	}
	idx.entries[docID] = entry
	return nil
}

// Get returns the entry for docID, if present.
func (idx *Index) Get(docID string) (*Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entry, ok := idx.entries[docID]
	return entry, ok
}

// Has reports whether docID is indexed.
func (idx *Index) Has(docID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.entries[docID]
	return ok
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// TotalLength sums the length of every entry.
func (idx *Index) TotalLength() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	total := 0
	for _, entry := range idx.entries {
		total += entry.Length
	}
	return total
}

// DocIDs returns all document IDs sorted, for deterministic iteration
// during the inverted-index build.
func (idx *Index) DocIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0, len(idx.entries))
	for id := range idx.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save persists the forward index to path.
func (idx *Index) Save(codec *container.Codec, path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return codec.Save(path, idx.entries)
}

// Load reads a forward index from path.
func Load(codec *container.Codec, path string) (*Index, error) {
	entries := make(map[string]*Entry)
	if err := codec.Load(path, &entries); err != nil {
		return nil, err
	}
	return &Index{entries: entries}, nil
}
