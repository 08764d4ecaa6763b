// Package cql defines the dispatch collaborator interfaces for entmap.
package cql

import (
	"context"

	"github.com/arloliu/entmap/types"
)

// Type aliases for convenience - re-export from types package.
type (
	BatchType   = types.BatchType
	Consistency = types.Consistency
)

// Re-export batch type constants for convenience.
const (
	LoggedBatch   = types.LoggedBatch
	UnloggedBatch = types.UnloggedBatch
	CounterBatch  = types.CounterBatch
)

// Re-export consistency level constants for convenience.
const (
	Any         = types.Any
	One         = types.One
	Two         = types.Two
	Three       = types.Three
	Quorum      = types.Quorum
	All         = types.All
	LocalQuorum = types.LocalQuorum
	EachQuorum  = types.EachQuorum
	Serial      = types.Serial
	LocalSerial = types.LocalSerial
	LocalOne    = types.LocalOne
)

// Session represents a raw CQL session from the underlying driver.
//
// This is the external collaborator boundary: entmap builds statements and
// consumes result sets, but never constructs connections. The v1 subpackage
// adapts gocql; tests substitute in-memory implementations.
type Session interface {
	// Query creates a new query for the given statement.
	//
	// Parameters:
	//   - stmt: CQL statement with ? placeholders
	//   - values: Values to bind to placeholders
	//
	// Returns:
	//   - Query: A query builder
	Query(stmt string, values ...any) Query

	// Batch creates a new batch of the given type.
	//
	// Parameters:
	//   - kind: Type of batch
	//
	// Returns:
	//   - Batch: A batch builder
	Batch(kind BatchType) Batch

	// Close terminates the session.
	Close()
}

// Query represents a raw CQL query from the underlying driver.
type Query interface {
	// Consistency sets the consistency level.
	Consistency(c Consistency) Query

	// SerialConsistency sets the consistency level for the serial phase of
	// CAS operations. Valid values are Serial or LocalSerial.
	SerialConsistency(c Consistency) Query

	// PageSize sets the page size.
	PageSize(n int) Query

	// PageState sets the pagination state.
	PageState(state []byte) Query

	// WithTimestamp sets the write timestamp.
	WithTimestamp(ts int64) Query

	// ExecContext executes the query with context.
	ExecContext(ctx context.Context) error

	// ScanContext executes and scans a single row with context.
	ScanContext(ctx context.Context, dest ...any) error

	// IterContext returns an iterator for results with context.
	IterContext(ctx context.Context) Iter

	// MapScanContext executes and scans a single row into a map with context.
	MapScanContext(ctx context.Context, m map[string]any) error

	// ScanCASContext executes a lightweight transaction with context.
	// Returns applied=true if the transaction succeeded.
	ScanCASContext(ctx context.Context, dest ...any) (applied bool, err error)

	// MapScanCASContext executes a lightweight transaction with context and
	// scans the previous values into a map when not applied.
	MapScanCASContext(ctx context.Context, dest map[string]any) (applied bool, err error)

	// Statement returns the CQL statement.
	Statement() string

	// Values returns the bound values.
	Values() []any

	// Release returns the query to a pool (if applicable).
	Release()
}

// Batch represents a raw CQL batch from the underlying driver.
type Batch interface {
	// Query adds a statement to the batch.
	Query(stmt string, args ...any) Batch

	// Consistency sets the consistency level.
	Consistency(c Consistency) Batch

	// SerialConsistency sets the consistency level for the serial phase of
	// CAS operations. Valid values are Serial or LocalSerial.
	SerialConsistency(c Consistency) Batch

	// WithTimestamp sets the write timestamp for all statements.
	WithTimestamp(ts int64) Batch

	// ExecContext executes the batch with context.
	ExecContext(ctx context.Context) error

	// ExecCASContext executes a batch lightweight transaction with context.
	// Returns applied=true if the transaction succeeded, and an iterator
	// over the previous values when it did not.
	ExecCASContext(ctx context.Context, dest ...any) (applied bool, iter Iter, err error)

	// Size returns the number of statements in the batch.
	Size() int

	// Statements returns all statements in the batch.
	Statements() []BatchEntry
}

// BatchEntry represents a single statement in a batch.
type BatchEntry struct {
	Statement string
	Args      []any
}

// Iter represents a raw CQL iterator from the underlying driver.
//
// Iterators are forward-only and single-pass. Pulling the next row may block
// on network I/O when the driver fetches the next page; that block is
// confined to the call that requested the row.
type Iter interface {
	// Scan reads the next row.
	Scan(dest ...any) bool

	// MapScan reads the next row into a map.
	MapScan(m map[string]any) bool

	// SliceMap reads all remaining rows into a slice of maps.
	SliceMap() ([]map[string]any, error)

	// Close releases the iterator and returns any error seen during
	// iteration.
	Close() error

	// PageState returns the pagination token.
	PageState() []byte

	// NumRows returns the number of rows in the current page.
	NumRows() int

	// Columns returns metadata about the columns in the result set.
	Columns() []ColumnInfo
}

// ColumnInfo holds metadata about a column in query results.
type ColumnInfo struct {
	Keyspace string
	Table    string
	Name     string
	TypeInfo any
}
