package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Read and write methods accept the target table name for labeling; batch
// methods accept the batch type. Implementations should be thread-safe as
// methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/arloliu/entmap/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	client, _ := entmap.NewClient(session,
//	    entmap.WithMetrics(collector),
//	)
type MetricsCollector interface {
	// ----------------------
	// Read Operations
	// ----------------------

	// IncReadTotal increments the total read operations counter.
	IncReadTotal(table string)

	// IncReadError increments the read error counter.
	IncReadError(table string)

	// ObserveReadDuration records a read operation duration in seconds.
	ObserveReadDuration(table string, seconds float64)

	// ----------------------
	// Write Operations
	// ----------------------

	// IncWriteTotal increments the total write operations counter.
	IncWriteTotal(table string)

	// IncWriteError increments the write error counter.
	IncWriteError(table string)

	// ObserveWriteDuration records a write operation duration in seconds.
	ObserveWriteDuration(table string, seconds float64)

	// ----------------------
	// Batch Operations
	// ----------------------

	// IncBatchTotal increments the total batch executions counter.
	IncBatchTotal(kind BatchType)

	// IncBatchError increments the batch error counter.
	IncBatchError(kind BatchType)

	// ObserveBatchSize records the number of statements in an executed batch.
	ObserveBatchSize(kind BatchType, size int)

	// ObserveBatchDuration records a batch execution duration in seconds.
	ObserveBatchDuration(kind BatchType, seconds float64)

	// ----------------------
	// Mapping
	// ----------------------

	// IncMappingError increments the counter for entity mapping and row
	// conversion failures.
	IncMappingError(table string)
}
