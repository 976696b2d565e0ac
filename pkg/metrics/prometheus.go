package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// PrometheusExporter writes collector state in the Prometheus text
// exposition format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates an exporter with the default namespace.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	return &PrometheusExporter{
		collector: collector,
		namespace: "paperfind",
	}
}

// SetNamespace sets the metric name prefix.
func (pe *PrometheusExporter) SetNamespace(namespace string) {
	pe.namespace = namespace
}

// WriteMetrics writes all metrics to w.
func (pe *PrometheusExporter) WriteMetrics(w io.Writer) error {
	c := pe.collector

	uptime := time.Since(c.startTime).Seconds()
	if err := pe.writeGauge(w, "uptime_seconds", "Engine uptime in seconds", uptime); err != nil {
		return err
	}

	counters := []struct {
		name  string
		help  string
		value uint64
	}{
		{"searches_total", "Total number of search queries executed", atomic.LoadUint64(&c.searchesExecuted)},
		{"searches_failed_total", "Total number of failed search queries", atomic.LoadUint64(&c.searchesFailed)},
		{"search_duration_nanoseconds_total", "Total search execution time in nanoseconds", atomic.LoadUint64(&c.totalSearchTime)},
		{"documents_added_total", "Total number of documents added", atomic.LoadUint64(&c.documentsAdded)},
		{"adds_failed_total", "Total number of failed document additions", atomic.LoadUint64(&c.addsFailed)},
		{"add_duration_nanoseconds_total", "Total add execution time in nanoseconds", atomic.LoadUint64(&c.totalAddTime)},
		{"completions_total", "Total number of autocomplete requests", atomic.LoadUint64(&c.completions)},
		{"suggestions_total", "Total number of typo suggestion requests", atomic.LoadUint64(&c.suggestions)},
		{"barrel_loads_total", "Total number of barrel loads from disk", atomic.LoadUint64(&c.barrelLoads)},
	}
	for _, counter := range counters {
		if err := pe.writeCounter(w, counter.name, counter.help, counter.value); err != nil {
			return err
		}
	}

	if err := pe.writeHistogram(w, "search_duration_seconds", "Search duration histogram", c.searchTimings); err != nil {
		return err
	}
	if err := pe.writeHistogram(w, "add_duration_seconds", "Add duration histogram", c.addTimings); err != nil {
		return err
	}

	return nil
}

func (pe *PrometheusExporter) writeCounter(w io.Writer, name, help string, value uint64) error {
	full := pe.namespace + "_" + name
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", full, help, full, full, value)
	return err
}

func (pe *PrometheusExporter) writeGauge(w io.Writer, name, help string, value float64) error {
	full := pe.namespace + "_" + name
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %f\n", full, help, full, full, value)
	return err
}

func (pe *PrometheusExporter) writeHistogram(w io.Writer, name, help string, h *TimingHistogram) error {
	full := pe.namespace + "_" + name
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", full, help, full); err != nil {
		return err
	}

	buckets := h.Buckets()
	bounds := []string{"0.001", "0.01", "0.1", "1"}
	cumulative := uint64(0)
	for i, bound := range bounds {
		cumulative += buckets[i]
		if _, err := fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", full, bound, cumulative); err != nil {
			return err
		}
	}
	cumulative += buckets[4]
	if _, err := fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n%s_count %d\n", full, cumulative, full, cumulative); err != nil {
		return err
	}

	for _, p := range []float64{50, 95, 99} {
		if _, err := fmt.Fprintf(w, "%s_p%.0f %f\n", full, p, h.Percentile(p).Seconds()); err != nil {
			return err
		}
	}

	return nil
}
