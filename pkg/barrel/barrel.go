// Package barrel materializes the inverted index as size-bounded on-disk
// shards. Each term ID lives in exactly one barrel; a metadata map names
// the owning barrel so a lookup loads a single small file instead of the
// whole index.
package barrel

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/mnohosten/paperfind/pkg/cache"
	"github.com/mnohosten/paperfind/pkg/container"
	"github.com/mnohosten/paperfind/pkg/forward"
)

const (
	// DefaultTargetSize is the serialized size at which a barrel rolls over.
	DefaultTargetSize = 2 << 20
	// Overshoot is the slack allowed for the entry that triggers rollover.
	Overshoot = 500 << 10
	// DefaultCacheSize is the number of loaded barrels kept in memory.
	DefaultCacheSize = 8

	metadataFile = "barrel_metadata"
)

// Posting records one document's occurrences of a term. Length mirrors
// the forward-index document length so the ranker never opens the
// forward index at query time.
type Posting struct {
	DocID     string                   `json:"doc_id"`
	Frequency [forward.NumSections]int `json:"frequency"`
	Positions []int                    `json:"positions"`
	Length    int                      `json:"length"`
}

// Options configures a barrel store.
type Options struct {
	// TargetSize is the rollover threshold in serialized bytes.
	TargetSize int
	// CacheSize is the barrel LRU capacity.
	CacheSize int
	// LastBarrel seeds the last-allocated-barrel counter from the
	// engine's persisted metadata record.
	LastBarrel int
	Codec      *container.Codec
	Logger     *slog.Logger
	// OnLoad, when set, is invoked for every barrel read from disk.
	OnLoad func()
}

// Store owns the barrel directory, the term → barrel map, and an LRU of
// loaded barrels. Reads are shared; writes are exclusive and rewrite
// whole barrels via atomic rename, data files before metadata.
type Store struct {
	dir        string
	targetSize int
	codec      *container.Codec
	logger     *slog.Logger

	mu         sync.RWMutex
	meta       map[int]int
	lastBarrel int
	loaded     *cache.LRUCache
	onLoad     func()
}

// Open creates a store over dir, loading the barrel metadata map when it
// exists.
func Open(dir string, opts Options) (*Store, error) {
	if opts.TargetSize <= 0 {
		opts.TargetSize = DefaultTargetSize
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create barrel directory: %w", err)
	}

	s := &Store{
		dir:        dir,
		targetSize: opts.TargetSize,
		codec:      opts.Codec,
		logger:     opts.Logger,
		meta:       make(map[int]int),
		lastBarrel: opts.LastBarrel,
		loaded:     cache.NewLRUCache(opts.CacheSize, 0),
		onLoad:     opts.OnLoad,
	}

	metaPath := filepath.Join(dir, metadataFile)
	if container.Exists(metaPath) {
		if err := s.codec.Load(metaPath, &s.meta); err != nil {
			return nil, fmt.Errorf("failed to load barrel metadata: %w", err)
		}
	}

	return s, nil
}

func (s *Store) barrelPath(barrelID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("barrel_%d", barrelID))
}

func cacheKey(barrelID int) string {
	return "barrel_" + strconv.Itoa(barrelID)
}

// entrySize estimates the serialized footprint of one `"term_id":
// postings` pair including separators.
func entrySize(termID int, marshaled []byte) int {
	return len(marshaled) + len(strconv.Itoa(termID)) + 6
}

// BuildFromForward streams the inverted pairs derived from the forward
// index into sequential barrels, rolling over when the next entry would
// push the current barrel past target + Overshoot. Term IDs are emitted
// in ascending order; postings within a term follow ascending doc ID.
func (s *Store) BuildFromForward(fwd *forward.Index) error {
	inverted := make(map[int][]*Posting)
	for _, docID := range fwd.DocIDs() {
		entry, _ := fwd.Get(docID)
		for termID, td := range entry.WordData {
			inverted[termID] = append(inverted[termID], &Posting{
				DocID:     docID,
				Frequency: td.Frequency,
				Positions: td.Positions,
				Length:    entry.Length,
			})
		}
	}

	termIDs := make([]int, 0, len(inverted))
	for termID := range inverted {
		termIDs = append(termIDs, termID)
	}
	sort.Ints(termIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	meta := make(map[int]int, len(termIDs))
	barrelID := 0
	current := make(map[int][]*Posting)
	currentSize := 2 // container braces

	for _, termID := range termIDs {
		postings := inverted[termID]
		marshaled, err := json.Marshal(postings)
		if err != nil {
			return fmt.Errorf("failed to marshal postings for term %d: %w", termID, err)
		}
		added := entrySize(termID, marshaled)

		if len(current) > 0 && currentSize+added >= s.targetSize+Overshoot {
			if err := s.codec.Save(s.barrelPath(barrelID), current); err != nil {
				return fmt.Errorf("failed to write barrel %d: %w", barrelID, err)
			}
			barrelID++
			current = make(map[int][]*Posting)
			currentSize = 2
		}

		current[termID] = postings
		currentSize += added
		meta[termID] = barrelID
	}

	if err := s.codec.Save(s.barrelPath(barrelID), current); err != nil {
		return fmt.Errorf("failed to write barrel %d: %w", barrelID, err)
	}

	metaPath := filepath.Join(s.dir, metadataFile)
	if err := s.codec.Save(metaPath, meta); err != nil {
		return fmt.Errorf("failed to write barrel metadata: %w", err)
	}

	s.meta = meta
	s.lastBarrel = barrelID
	s.loaded.Clear()

	s.logger.Info("barrels built",
		slog.Int("terms", len(termIDs)),
		slog.Int("barrels", barrelID+1))

	return nil
}

// PostingsFor returns the posting list for termID, or nil when the term
// is unknown. A barrel named by metadata but missing on disk is logged
// and treated as an empty posting list.
func (s *Store) PostingsFor(termID int) ([]*Posting, error) {
	s.mu.RLock()
	barrelID, ok := s.meta[termID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	barrel, err := s.loadBarrel(barrelID)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("barrel file missing",
				slog.Int("barrel", barrelID),
				slog.Int("term", termID))
			return nil, nil
		}
		return nil, err
	}

	return barrel[termID], nil
}

// loadBarrel returns a barrel's contents, going through the LRU.
func (s *Store) loadBarrel(barrelID int) (map[int][]*Posting, error) {
	key := cacheKey(barrelID)
	if v, ok := s.loaded.Get(key); ok {
		return v.(map[int][]*Posting), nil
	}

	barrel, err := s.readBarrel(barrelID)
	if err != nil {
		return nil, err
	}

	s.loaded.Put(key, barrel)
	return barrel, nil
}

// readBarrel reads a barrel from disk, bypassing the cache.
func (s *Store) readBarrel(barrelID int) (map[int][]*Posting, error) {
	barrel := make(map[int][]*Posting)
	if err := s.codec.Load(s.barrelPath(barrelID), &barrel); err != nil {
		return nil, err
	}
	if s.onLoad != nil {
		s.onLoad()
	}
	return barrel, nil
}

// AddPosting appends a posting for termID. Known terms go to their
// owning barrel; new terms go to the last barrel while it has room,
// otherwise to a freshly allocated one. The barrel file is written
// before the metadata map so a crash in between leaves the store
// recoverable.
func (s *Store) AddPosting(termID int, p *Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if barrelID, ok := s.meta[termID]; ok {
		barrel, err := s.readBarrel(barrelID)
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			s.logger.Warn("barrel file missing on write, recreating",
				slog.Int("barrel", barrelID))
			barrel = make(map[int][]*Posting)
		}

		barrel[termID] = append(barrel[termID], p)
		if err := s.codec.Save(s.barrelPath(barrelID), barrel); err != nil {
			return fmt.Errorf("failed to rewrite barrel %d: %w", barrelID, err)
		}
		s.loaded.Remove(cacheKey(barrelID))
		return nil
	}

	barrelID := s.lastBarrel
	barrel, err := s.readBarrel(barrelID)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		barrel = make(map[int][]*Posting)
	}

	if s.serializedSize(barrel) >= s.targetSize {
		barrelID++
		barrel = make(map[int][]*Posting)
	}

	barrel[termID] = []*Posting{p}
	if err := s.codec.Save(s.barrelPath(barrelID), barrel); err != nil {
		return fmt.Errorf("failed to write barrel %d: %w", barrelID, err)
	}
	s.loaded.Remove(cacheKey(barrelID))

	s.meta[termID] = barrelID
	s.lastBarrel = barrelID

	metaPath := filepath.Join(s.dir, metadataFile)
	if err := s.codec.Save(metaPath, s.meta); err != nil {
		return fmt.Errorf("failed to write barrel metadata: %w", err)
	}

	return nil
}

// serializedSize measures a barrel's uncompressed JSON footprint, the
// same unit the build-time rollover uses.
func (s *Store) serializedSize(barrel map[int][]*Posting) int {
	data, err := json.Marshal(barrel)
	if err != nil {
		return 0
	}
	return len(data)
}

// LastBarrel returns the highest allocated barrel ID. The engine
// persists it in the global metadata record.
func (s *Store) LastBarrel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBarrel
}

// TermCount returns the number of terms with a barrel assignment.
func (s *Store) TermCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meta)
}

// BarrelOf returns the barrel assignment for termID, if any.
func (s *Store) BarrelOf(termID int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.meta[termID]
	return id, ok
}

// CacheStats exposes the barrel LRU counters for the metrics collector.
func (s *Store) CacheStats() (hits, misses, evictions uint64) {
	return s.loaded.Stats()
}
