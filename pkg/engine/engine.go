// Package engine owns the index state objects and drives the build,
// query, and insertion paths across them.
package engine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/mnohosten/paperfind/pkg/barrel"
	"github.com/mnohosten/paperfind/pkg/cache"
	"github.com/mnohosten/paperfind/pkg/compression"
	"github.com/mnohosten/paperfind/pkg/container"
	"github.com/mnohosten/paperfind/pkg/docstore"
	"github.com/mnohosten/paperfind/pkg/forward"
	"github.com/mnohosten/paperfind/pkg/fuzzy"
	"github.com/mnohosten/paperfind/pkg/lexicon"
	"github.com/mnohosten/paperfind/pkg/metrics"
	"github.com/mnohosten/paperfind/pkg/rank"
	"github.com/mnohosten/paperfind/pkg/text"
	"github.com/mnohosten/paperfind/pkg/trie"
)

const (
	// MaxResults caps the hydrated result list.
	MaxResults = 50
	// MaxCompletions caps autocomplete suggestions.
	MaxCompletions = 5
	// MaxTypoSuggestions caps fuzzy typo suggestions.
	MaxTypoSuggestions = 5

	// abstractPreviewLen is where result abstracts are cut off.
	abstractPreviewLen = 500
)

// Config holds engine settings.
type Config struct {
	DataDir    string
	CorpusPath string

	BarrelTargetSize int
	BarrelCacheSize  int
	Compression      compression.Algorithm

	QueryCacheSize int
	QueryCacheTTL  time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns engine defaults for the given directories.
func DefaultConfig(dataDir, corpusPath string) Config {
	return Config{
		DataDir:          dataDir,
		CorpusPath:       corpusPath,
		BarrelTargetSize: barrel.DefaultTargetSize,
		BarrelCacheSize:  barrel.DefaultCacheSize,
		Compression:      compression.AlgorithmSnappy,
		QueryCacheSize:   256,
		QueryCacheTTL:    5 * time.Minute,
	}
}

// Document is an incoming record for AddDocument. Title, abstract,
// keywords, venue, and year are required.
type Document struct {
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	Keywords   []string `json:"keywords"`
	Venue      string   `json:"venue"`
	Year       int      `json:"year"`
	NCitation  int      `json:"n_citation"`
	URL        string   `json:"url"`
	Authors    string   `json:"authors"`
	DocType    string   `json:"doc_type"`
	References string   `json:"references"`
}

// SearchResult is one hydrated hit.
type SearchResult struct {
	DocID     string  `json:"doc_id"`
	Score     float64 `json:"score"`
	Title     string  `json:"title"`
	Abstract  string  `json:"abstract"`
	Keywords  string  `json:"keywords"`
	Year      string  `json:"year"`
	Venue     string  `json:"venue"`
	Citations string  `json:"citations"`
	URL       string  `json:"url"`
}

// SearchResponse is the full answer to a search query. Query carries
// the normalized form actually ranked.
type SearchResponse struct {
	ResultsCount int            `json:"results_count"`
	Query        string         `json:"normalized_query"`
	Results      []SearchResult `json:"results"`
}

// Engine ties the lexicon, forward index, barrels, and document store
// together. Reads may run concurrently; writes are serialized by the
// engine's mutex.
type Engine struct {
	mu  sync.RWMutex
	cfg Config

	codec       *container.Codec
	analyzer    *text.Analyzer
	lexicon     *lexicon.Lexicon
	forward     *forward.Index
	barrels     *barrel.Store
	docs        *docstore.Store
	completions *trie.Trie
	typos       *fuzzy.Suggester
	meta        *Metadata

	queryCache *cache.LRUCache
	collector  *metrics.Collector
	logger     *slog.Logger
}

func (c Config) lexiconPath() string  { return filepath.Join(c.DataDir, "lexicon") }
func (c Config) forwardPath() string  { return filepath.Join(c.DataDir, "forward_index") }
func (c Config) metadataPath() string { return filepath.Join(c.DataDir, "metadata") }
func (c Config) docIndexPath() string { return filepath.Join(c.DataDir, "document_index") }
func (c Config) barrelDir() string    { return filepath.Join(c.DataDir, "barrels") }

func newEngine(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Engine{
		cfg:        cfg,
		codec:      container.NewCodec(cfg.Compression),
		analyzer:   text.NewAnalyzer(),
		queryCache: cache.NewLRUCache(cfg.QueryCacheSize, cfg.QueryCacheTTL),
		collector:  metrics.NewCollector(),
		logger:     cfg.Logger,
	}
	return e
}

func (e *Engine) openBarrels(lastBarrel int) error {
	store, err := barrel.Open(e.cfg.barrelDir(), barrel.Options{
		TargetSize: e.cfg.BarrelTargetSize,
		CacheSize:  e.cfg.BarrelCacheSize,
		LastBarrel: lastBarrel,
		Codec:      e.codec,
		Logger:     e.logger,
		OnLoad:     e.collector.RecordBarrelLoad,
	})
	if err != nil {
		return err
	}
	e.barrels = store
	return nil
}

// Build creates all indexes from the corpus CSV, persists them, and
// returns an open engine.
func Build(cfg Config) (*Engine, error) {
	e := newEngine(cfg)
	start := time.Now()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	e.lexicon = lexicon.New()
	e.forward = forward.New()

	f, err := os.Open(cfg.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(docstore.Columns)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read corpus header: %w", err)
	}

	docs := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan corpus: %w", err)
		}

		docID, title, keywords, abstract := row[0], row[1], row[2], row[7]
		entry, _ := e.indexSections(title, abstract, keywords)
		if err := e.forward.Add(docID, entry); err != nil {
			return nil, fmt.Errorf("failed to index document %s: %w", docID, err)
		}
		docs++
	}

	if err := e.openBarrels(0); err != nil {
		return nil, err
	}
	if err := e.barrels.BuildFromForward(e.forward); err != nil {
		return nil, err
	}

	e.docs = docstore.New(cfg.CorpusPath, cfg.docIndexPath(), e.codec)
	if err := e.docs.BuildIndex(); err != nil {
		return nil, err
	}
	if err := e.docs.Open(); err != nil {
		return nil, err
	}

	e.meta = &Metadata{
		TotalDocLength:     e.forward.TotalLength(),
		ForwardIndexLength: e.forward.Len(),
		LastBarrel:         e.barrels.LastBarrel(),
	}

	if err := e.lexicon.Save(e.codec, cfg.lexiconPath()); err != nil {
		return nil, err
	}
	if err := e.forward.Save(e.codec, cfg.forwardPath()); err != nil {
		return nil, err
	}
	if err := e.meta.Save(e.codec, cfg.metadataPath()); err != nil {
		return nil, err
	}

	e.buildSuggesters()

	e.logger.Info("index build complete",
		slog.Int("documents", docs),
		slog.Int("terms", e.lexicon.Len()),
		slog.Int("barrels", e.barrels.LastBarrel()+1),
		slog.Duration("elapsed", time.Since(start)))

	return e, nil
}

// Open loads previously built indexes from the data directory.
func Open(cfg Config) (*Engine, error) {
	e := newEngine(cfg)

	lex, err := lexicon.Load(e.codec, cfg.lexiconPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	e.lexicon = lex

	fwd, err := forward.Load(e.codec, cfg.forwardPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load forward index: %w", err)
	}
	e.forward = fwd

	meta, err := LoadMetadata(e.codec, cfg.metadataPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	e.meta = meta

	if err := e.openBarrels(meta.LastBarrel); err != nil {
		return nil, err
	}

	e.docs = docstore.New(cfg.CorpusPath, cfg.docIndexPath(), e.codec)
	if err := e.docs.LoadIndex(); err != nil {
		return nil, fmt.Errorf("failed to load document index: %w", err)
	}
	if err := e.docs.Open(); err != nil {
		return nil, err
	}

	e.buildSuggesters()
	return e, nil
}

// Close releases the document store handle.
func (e *Engine) Close() error {
	return e.docs.Close()
}

// buildSuggesters constructs the autocomplete trie and the typo
// suggester over the current lexicon keys.
func (e *Engine) buildSuggesters() {
	t := trie.New()
	for _, key := range e.lexicon.Keys() {
		t.Insert(key)
	}
	e.completions = t
	e.typos = fuzzy.New(e.lexicon)
}

// indexSections tokenizes the three sections, assigns term IDs, and
// produces the forward entry plus the distinct tokens encountered.
// Positions are global across title‖abstract‖keywords.
func (e *Engine) indexSections(title, abstract, keywords string) (*forward.Entry, []string) {
	sections := [forward.NumSections][]string{
		e.analyzer.Tokens(title),
		e.analyzer.Tokens(abstract),
		e.analyzer.Tokens(keywords),
	}

	wordData := make(map[int]*forward.TermData)
	var tokens []string
	base := 0

	for sectionIdx, sectionTokens := range sections {
		for pos, token := range sectionTokens {
			id := e.lexicon.GetOrAdd(token)
			td, ok := wordData[id]
			if !ok {
				td = &forward.TermData{}
				wordData[id] = td
				tokens = append(tokens, token)
			}
			td.Frequency[sectionIdx]++
			td.Positions = append(td.Positions, base+pos)
		}
		base += len(sectionTokens)
	}

	return &forward.Entry{
		Length:   len(sections[forward.SectionTitle]) + len(sections[forward.SectionAbstract]),
		WordData: wordData,
	}, tokens
}

// Search normalizes the query, ranks matching documents, and hydrates
// the top hits from the document store.
func (e *Engine) Search(query string) (*SearchResponse, error) {
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		e.collector.RecordSearch(0, true)
		return nil, ErrEmptyQuery
	}

	normalized := e.analyzer.Normalize(query)
	resp := &SearchResponse{Query: normalized, Results: []SearchResult{}}

	terms := strings.Fields(normalized)
	if len(terms) == 0 {
		e.collector.RecordSearch(time.Since(start), false)
		return resp, nil
	}

	if cached, ok := e.queryCache.Get(normalized); ok {
		e.collector.RecordSearch(time.Since(start), false)
		return cached.(*SearchResponse), nil
	}

	e.mu.RLock()
	totalDocs := e.meta.ForwardIndexLength
	avgDocLength := e.meta.AvgDocLength()
	e.mu.RUnlock()

	ranker := rank.New(e.lexicon, e.barrels, totalDocs, avgDocLength)
	ranked, err := ranker.Rank(terms)
	if err != nil {
		e.collector.RecordSearch(time.Since(start), true)
		return nil, err
	}

	resp.ResultsCount = len(ranked)
	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.DocID
	}
	records, err := e.docs.GetMany(ids)
	if err != nil {
		e.collector.RecordSearch(time.Since(start), true)
		return nil, err
	}

	for i, r := range ranked {
		rec := records[i]
		if rec == nil {
			e.logger.Warn("ranked document missing from store", slog.String("doc_id", r.DocID))
			continue
		}
		resp.Results = append(resp.Results, SearchResult{
			DocID:     r.DocID,
			Score:     r.Score,
			Title:     rec.Title,
			Abstract:  abstractPreview(rec.Abstract),
			Keywords:  rec.Keywords,
			Year:      rec.Year,
			Venue:     rec.Venue,
			Citations: rec.NCitation,
			URL:       rec.URL,
		})
	}

	e.queryCache.Put(normalized, resp)
	e.collector.RecordSearch(time.Since(start), false)
	return resp, nil
}

func abstractPreview(abstract string) string {
	if len(abstract) <= abstractPreviewLen {
		return abstract
	}
	return abstract[:abstractPreviewLen] + "..."
}

// Autocomplete completes the final token of the query against the
// lexicon keys, prefixing the leading tokens back onto each suggestion.
// An empty or trailing-space final token yields nothing.
func (e *Engine) Autocomplete(query string) []string {
	e.collector.RecordCompletion()

	if query == "" {
		return nil
	}
	if unicode.IsSpace(rune(query[len(query)-1])) {
		return nil
	}

	parts := strings.Fields(strings.ToLower(query))
	if len(parts) == 0 {
		return nil
	}

	prefix := parts[len(parts)-1]
	completions := e.completions.Suggest(prefix, MaxCompletions)
	if len(completions) == 0 {
		return nil
	}

	leading := strings.Join(parts[:len(parts)-1], " ")
	if leading == "" {
		return completions
	}

	out := make([]string, len(completions))
	for i, c := range completions {
		out[i] = leading + " " + c
	}
	return out
}

// SuggestTypo returns fuzzy lexicon matches for the final query token.
func (e *Engine) SuggestTypo(query string) []string {
	e.collector.RecordSuggestion()

	parts := strings.Fields(strings.ToLower(query))
	if len(parts) == 0 {
		return nil
	}

	return e.typos.Suggest(parts[len(parts)-1], MaxTypoSuggestions)
}

// AddDocument indexes a new record across the lexicon, forward index,
// barrels, corpus CSV, and metadata. A generated ID that collides is
// regenerated once. The update is not globally atomic; a failure
// mid-sequence leaves a partially updated state that a retry with a
// fresh ID resolves.
func (e *Engine) AddDocument(doc *Document) (string, error) {
	start := time.Now()

	if err := validateDocument(doc); err != nil {
		e.collector.RecordAdd(0, true)
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	docID := generateDocID()
	if e.docs.Has(docID) || e.forward.Has(docID) {
		docID = generateDocID()
		if e.docs.Has(docID) || e.forward.Has(docID) {
			e.collector.RecordAdd(0, true)
			return "", ErrDuplicateDoc
		}
	}

	keywordsText := strings.Join(doc.Keywords, " ")
	entry, tokens := e.indexSections(doc.Title, doc.Abstract, keywordsText)

	if err := e.forward.Add(docID, entry); err != nil {
		e.collector.RecordAdd(0, true)
		return "", err
	}

	termIDs := make([]int, 0, len(entry.WordData))
	for termID := range entry.WordData {
		termIDs = append(termIDs, termID)
	}
	sort.Ints(termIDs)

	for _, termID := range termIDs {
		td := entry.WordData[termID]
		posting := &barrel.Posting{
			DocID:     docID,
			Frequency: td.Frequency,
			Positions: td.Positions,
			Length:    entry.Length,
		}
		if err := e.barrels.AddPosting(termID, posting); err != nil {
			e.collector.RecordAdd(0, true)
			return "", err
		}
	}

	keywordsJSON, _ := json.Marshal(doc.Keywords)
	record := &docstore.Record{
		ID:         docID,
		Title:      doc.Title,
		Keywords:   string(keywordsJSON),
		Venue:      doc.Venue,
		Year:       strconv.Itoa(doc.Year),
		NCitation:  strconv.Itoa(doc.NCitation),
		URL:        doc.URL,
		Abstract:   doc.Abstract,
		Authors:    doc.Authors,
		DocType:    doc.DocType,
		References: doc.References,
	}
	if err := e.docs.Append(record); err != nil {
		e.collector.RecordAdd(0, true)
		return "", err
	}

	e.meta.ForwardIndexLength++
	e.meta.TotalDocLength += entry.Length
	e.meta.LastBarrel = e.barrels.LastBarrel()

	if err := e.lexicon.Save(e.codec, e.cfg.lexiconPath()); err != nil {
		e.collector.RecordAdd(0, true)
		return "", err
	}
	if err := e.forward.Save(e.codec, e.cfg.forwardPath()); err != nil {
		e.collector.RecordAdd(0, true)
		return "", err
	}
	if err := e.meta.Save(e.codec, e.cfg.metadataPath()); err != nil {
		e.collector.RecordAdd(0, true)
		return "", err
	}

	for _, token := range tokens {
		e.completions.Insert(token)
	}
	e.queryCache.Clear()

	e.collector.RecordAdd(time.Since(start), false)
	e.logger.Info("document added",
		slog.String("doc_id", docID),
		slog.Int("terms", len(termIDs)),
		slog.Int("length", entry.Length))

	return docID, nil
}

func validateDocument(doc *Document) error {
	switch {
	case strings.TrimSpace(doc.Title) == "":
		return fmt.Errorf("%w: title", ErrMissingField)
	case strings.TrimSpace(doc.Abstract) == "":
		return fmt.Errorf("%w: abstract", ErrMissingField)
	case len(doc.Keywords) == 0:
		return fmt.Errorf("%w: keywords", ErrMissingField)
	case strings.TrimSpace(doc.Venue) == "":
		return fmt.Errorf("%w: venue", ErrMissingField)
	case doc.Year == 0:
		return fmt.Errorf("%w: year", ErrMissingField)
	}
	return nil
}

func generateDocID() string {
	return "doc_" + uuid.NewString()
}

// Stats reports engine-level numbers for the stats endpoint and CLI.
type Stats struct {
	Documents      int              `json:"documents"`
	Terms          int              `json:"terms"`
	Barrels        int              `json:"barrels"`
	TotalDocLength int              `json:"total_doc_length"`
	AvgDocLength   float64          `json:"avg_doc_length"`
	CacheHits      uint64           `json:"barrel_cache_hits"`
	CacheMisses    uint64           `json:"barrel_cache_misses"`
	Metrics        metrics.Snapshot `json:"metrics"`
}

// Stats returns a snapshot of index and runtime counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	meta := *e.meta
	e.mu.RUnlock()

	hits, misses, _ := e.barrels.CacheStats()
	return Stats{
		Documents:      meta.ForwardIndexLength,
		Terms:          e.lexicon.Len(),
		Barrels:        meta.LastBarrel + 1,
		TotalDocLength: meta.TotalDocLength,
		AvgDocLength:   meta.AvgDocLength(),
		CacheHits:      hits,
		CacheMisses:    misses,
		Metrics:        e.collector.Snapshot(),
	}
}

// Collector exposes the metrics collector for the HTTP exporter.
func (e *Engine) Collector() *metrics.Collector {
	return e.collector
}

// Document fetches a raw corpus record by ID.
func (e *Engine) Document(docID string) (*docstore.Record, error) {
	return e.docs.Get(docID)
}
