// Package lexicon maps normalized surface tokens to compact integer term
// IDs and tracks corpus term frequency.
package lexicon

import (
	"sort"
	"sync"

	"github.com/mnohosten/paperfind/pkg/container"
)

// Entry records a token's permanent term ID and its corpus frequency.
// Frequency counts every occurrence across all sections of all documents
// ever admitted, so it is monotonically non-decreasing.
type Entry struct {
	ID        int `json:"id"`
	Frequency int `json:"frequency"`
}

// Lexicon assigns term IDs in order of first observation. IDs are dense:
// they form a bijection with [0, Len()).
type Lexicon struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{entries: make(map[string]*Entry)}
}

// GetOrAdd returns the term ID for token, assigning the next dense ID on
// first observation. Frequency is incremented on every call.
func (l *Lexicon) GetOrAdd(token string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.entries[token]; ok {
		entry.Frequency++
		return entry.ID
	}

	id := len(l.entries)
	l.entries[token] = &Entry{ID: id, Frequency: 1}
	return id
}

// GetID returns the term ID for token, if present.
func (l *Lexicon) GetID(token string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[token]
	if !ok {
		return 0, false
	}
	return entry.ID, true
}

// Frequency returns the corpus frequency for token, if present.
func (l *Lexicon) Frequency(token string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[token]
	if !ok {
		return 0, false
	}
	return entry.Frequency, true
}

// Keys returns all tokens sorted lexicographically. The autocomplete
// trie and the typo suggester are built from this set.
func (l *Lexicon) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.entries))
	for token := range l.entries {
		keys = append(keys, token)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct tokens.
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Save persists the lexicon to path.
func (l *Lexicon) Save(codec *container.Codec, path string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return codec.Save(path, l.entries)
}

// Load reads a lexicon from path.
func Load(codec *container.Codec, path string) (*Lexicon, error) {
	entries := make(map[string]*Entry)
	if err := codec.Load(path, &entries); err != nil {
		return nil, err
	}
	return &Lexicon{entries: entries}, nil
}
