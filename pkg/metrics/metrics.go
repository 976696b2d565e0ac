// Package metrics collects engine counters and timing histograms and
// exports them in Prometheus text format.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers real-time counters for the search engine.
type Collector struct {
	// Search metrics
	searchesExecuted uint64
	searchesFailed   uint64
	totalSearchTime  uint64 // in nanoseconds

	// AddDocument metrics
	documentsAdded uint64
	addsFailed     uint64
	totalAddTime   uint64 // in nanoseconds

	// Autocomplete / typo suggestion metrics
	completions uint64
	suggestions uint64

	// Barrel metrics
	barrelLoads uint64

	searchTimings *TimingHistogram
	addTimings    *TimingHistogram

	startTime time.Time
}

// NewCollector creates a collector with empty counters.
func NewCollector() *Collector {
	return &Collector{
		searchTimings: NewTimingHistogram(),
		addTimings:    NewTimingHistogram(),
		startTime:     time.Now(),
	}
}

// RecordSearch records a completed search and its duration.
func (c *Collector) RecordSearch(d time.Duration, failed bool) {
	if failed {
		atomic.AddUint64(&c.searchesFailed, 1)
		return
	}
	atomic.AddUint64(&c.searchesExecuted, 1)
	atomic.AddUint64(&c.totalSearchTime, uint64(d.Nanoseconds()))
	c.searchTimings.Record(d)
}

// RecordAdd records a completed document insertion and its duration.
func (c *Collector) RecordAdd(d time.Duration, failed bool) {
	if failed {
		atomic.AddUint64(&c.addsFailed, 1)
		return
	}
	atomic.AddUint64(&c.documentsAdded, 1)
	atomic.AddUint64(&c.totalAddTime, uint64(d.Nanoseconds()))
	c.addTimings.Record(d)
}

// RecordCompletion counts one autocomplete request.
func (c *Collector) RecordCompletion() {
	atomic.AddUint64(&c.completions, 1)
}

// RecordSuggestion counts one typo-suggestion request.
func (c *Collector) RecordSuggestion() {
	atomic.AddUint64(&c.suggestions, 1)
}

// RecordBarrelLoad counts one barrel load from disk.
func (c *Collector) RecordBarrelLoad() {
	atomic.AddUint64(&c.barrelLoads, 1)
}

// Snapshot is a point-in-time view of all counters.
type Snapshot struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	SearchesExecuted uint64  `json:"searches_executed"`
	SearchesFailed   uint64  `json:"searches_failed"`
	DocumentsAdded   uint64  `json:"documents_added"`
	AddsFailed       uint64  `json:"adds_failed"`
	Completions      uint64  `json:"completions"`
	Suggestions      uint64  `json:"suggestions"`
	BarrelLoads      uint64  `json:"barrel_loads"`
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		UptimeSeconds:    time.Since(c.startTime).Seconds(),
		SearchesExecuted: atomic.LoadUint64(&c.searchesExecuted),
		SearchesFailed:   atomic.LoadUint64(&c.searchesFailed),
		DocumentsAdded:   atomic.LoadUint64(&c.documentsAdded),
		AddsFailed:       atomic.LoadUint64(&c.addsFailed),
		Completions:      atomic.LoadUint64(&c.completions),
		Suggestions:      atomic.LoadUint64(&c.suggestions),
		BarrelLoads:      atomic.LoadUint64(&c.barrelLoads),
	}
}

// TimingHistogram stores durations in fixed buckets and keeps a bounded
// window of recent samples for percentile estimates.
type TimingHistogram struct {
	bucket0_1ms      uint64
	bucket1_10ms     uint64
	bucket10_100ms   uint64
	bucket100_1000ms uint64
	bucket1000ms     uint64

	mu            sync.Mutex
	recentTimings []time.Duration // last 1000 samples
}

// NewTimingHistogram creates an empty histogram.
func NewTimingHistogram() *TimingHistogram {
	return &TimingHistogram{}
}

// Record adds one sample.
func (h *TimingHistogram) Record(d time.Duration) {
	switch {
	case d < time.Millisecond:
		atomic.AddUint64(&h.bucket0_1ms, 1)
	case d < 10*time.Millisecond:
		atomic.AddUint64(&h.bucket1_10ms, 1)
	case d < 100*time.Millisecond:
		atomic.AddUint64(&h.bucket10_100ms, 1)
	case d < time.Second:
		atomic.AddUint64(&h.bucket100_1000ms, 1)
	default:
		atomic.AddUint64(&h.bucket1000ms, 1)
	}

	h.mu.Lock()
	h.recentTimings = append(h.recentTimings, d)
	if len(h.recentTimings) > 1000 {
		h.recentTimings = h.recentTimings[len(h.recentTimings)-1000:]
	}
	h.mu.Unlock()
}

// Percentile returns the p-th percentile of the recent sample window,
// or zero when no samples exist.
func (h *TimingHistogram) Percentile(p float64) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.recentTimings) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(h.recentTimings))
	copy(sorted, h.recentTimings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(p / 100 * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Buckets returns the histogram counts from fastest to slowest.
func (h *TimingHistogram) Buckets() [5]uint64 {
	return [5]uint64{
		atomic.LoadUint64(&h.bucket0_1ms),
		atomic.LoadUint64(&h.bucket1_10ms),
		atomic.LoadUint64(&h.bucket10_100ms),
		atomic.LoadUint64(&h.bucket100_1000ms),
		atomic.LoadUint64(&h.bucket1000ms),
	}
}
