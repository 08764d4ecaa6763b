package vm

import (
	"fmt"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/arloliu/entmap/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "entmap"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Per-table metrics are created on first use since the set of tables is
// not known up front. Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string
}

// Compile-time assertion that Collector implements types.MetricsCollector.
var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics-based metrics collector.
//
// The collector creates its own metrics.Set and registers it globally
// unless one is provided via WithMetricsSet.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	client, _ := entmap.NewClient(session,
//	    entmap.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "entmap",
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	return c
}

// Handler serves the collected metrics in Prometheus text format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// IncReadTotal increments the total read operations counter.
func (c *Collector) IncReadTotal(table string) {
	c.counter("read_total", "table", table).Inc()
}

// IncReadError increments the read error counter.
func (c *Collector) IncReadError(table string) {
	c.counter("read_errors_total", "table", table).Inc()
}

// ObserveReadDuration records a read operation duration in seconds.
func (c *Collector) ObserveReadDuration(table string, seconds float64) {
	c.histogram("read_duration_seconds", "table", table).Update(seconds)
}

// IncWriteTotal increments the total write operations counter.
func (c *Collector) IncWriteTotal(table string) {
	c.counter("write_total", "table", table).Inc()
}

// IncWriteError increments the write error counter.
func (c *Collector) IncWriteError(table string) {
	c.counter("write_errors_total", "table", table).Inc()
}

// ObserveWriteDuration records a write operation duration in seconds.
func (c *Collector) ObserveWriteDuration(table string, seconds float64) {
	c.histogram("write_duration_seconds", "table", table).Update(seconds)
}

// IncBatchTotal increments the total batch executions counter.
func (c *Collector) IncBatchTotal(kind types.BatchType) {
	c.counter("batch_total", "kind", kind.String()).Inc()
}

// IncBatchError increments the batch error counter.
func (c *Collector) IncBatchError(kind types.BatchType) {
	c.counter("batch_errors_total", "kind", kind.String()).Inc()
}

// ObserveBatchSize records the number of statements in an executed batch.
func (c *Collector) ObserveBatchSize(kind types.BatchType, size int) {
	c.histogram("batch_size", "kind", kind.String()).Update(float64(size))
}

// ObserveBatchDuration records a batch execution duration in seconds.
func (c *Collector) ObserveBatchDuration(kind types.BatchType, seconds float64) {
	c.histogram("batch_duration_seconds", "kind", kind.String()).Update(seconds)
}

// IncMappingError increments the mapping failure counter.
func (c *Collector) IncMappingError(table string) {
	c.counter("mapping_errors_total", "table", table).Inc()
}

// counter fetches or creates a labeled counter.
func (c *Collector) counter(name, label, value string) *metrics.Counter {
	return c.set.GetOrCreateCounter(fmt.Sprintf(`%s_%s{%s=%q}`, c.prefix, name, label, value))
}

// histogram fetches or creates a labeled histogram.
func (c *Collector) histogram(name, label, value string) *metrics.Histogram {
	return c.set.GetOrCreateHistogram(fmt.Sprintf(`%s_%s{%s=%q}`, c.prefix, name, label, value))
}
