// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// high-performance Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with default prefix "entmap":
//
//	collector := vm.New()
//	client, _ := entmap.NewClient(session,
//	    entmap.WithMetrics(collector),
//	)
//
// # Custom Prefix
//
// Use WithPrefix to customize the metric name prefix:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// This produces metrics like:
//   - myapp_read_total{table="user"}
//   - myapp_write_duration_seconds{table="user"}
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// # Metrics Provided
//
// Read operations:
//   - {prefix}_read_total{table} - Counter of read operations
//   - {prefix}_read_errors_total{table} - Counter of read errors
//   - {prefix}_read_duration_seconds{table} - Histogram of read latencies
//
// Write operations:
//   - {prefix}_write_total{table} - Counter of write operations
//   - {prefix}_write_errors_total{table} - Counter of write errors
//   - {prefix}_write_duration_seconds{table} - Histogram of write latencies
//
// Batch operations:
//   - {prefix}_batch_total{kind} - Counter of batch executions
//   - {prefix}_batch_errors_total{kind} - Counter of batch failures
//   - {prefix}_batch_size{kind} - Histogram of statements per batch
//   - {prefix}_batch_duration_seconds{kind} - Histogram of batch latencies
//
// Mapping:
//   - {prefix}_mapping_errors_total{table} - Counter of mapping and row
//     conversion failures
//
// Metrics are created on first use per table label, since the set of mapped
// tables is not known at collector construction time. The metrics are
// registered with a dedicated Set that is registered globally, allowing
// standard Prometheus scraping.
package vm
