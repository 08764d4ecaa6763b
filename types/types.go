// Package types provides shared types and errors for the entmap library.
//
// This is a "leaf" package with no imports from other entmap packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"errors"
	"fmt"
	"time"
)

// Consistency represents the Cassandra consistency level.
type Consistency uint16

// Common consistency levels matching gocql.
const (
	Any         Consistency = 0x00
	One         Consistency = 0x01
	Two         Consistency = 0x02
	Three       Consistency = 0x03
	Quorum      Consistency = 0x04
	All         Consistency = 0x05
	LocalQuorum Consistency = 0x06
	EachQuorum  Consistency = 0x07
	Serial      Consistency = 0x08
	LocalSerial Consistency = 0x09
	LocalOne    Consistency = 0x0A
)

// BatchType represents the type of batch operation.
type BatchType byte

// Batch types matching gocql.
//
// A logged batch writes a durability record to the batch log before any
// member statement becomes visible; if the batch is acknowledged, every
// statement is eventually applied. An unlogged batch saves round trips but
// provides no atomicity across statements - a failure leaves an unknown
// partial effect.
//
// WARNING: CounterBatch operations are NOT idempotent. Counter updates
// (e.g., "UPDATE ... SET counter = counter + 1") are additive, so retrying
// them after a partial failure will cause double-counting.
const (
	LoggedBatch   BatchType = 0
	UnloggedBatch BatchType = 1
	CounterBatch  BatchType = 2
)

// String returns a human-readable name for the batch type.
func (b BatchType) String() string {
	switch b {
	case LoggedBatch:
		return "logged"
	case UnloggedBatch:
		return "unlogged"
	case CounterBatch:
		return "counter"
	}

	return fmt.Sprintf("unknown(%d)", byte(b))
}

// WriteOptions carries per-statement options for mutating operations.
//
// Options are consumed, never produced, by the mapping core: each field,
// if set, is attached verbatim to the produced statement. Unset fields
// fall back to the session's defaults.
//
// The zero value applies no options.
type WriteOptions struct {
	// Consistency, if non-nil, overrides the session's consistency level.
	Consistency *Consistency

	// TTL, if positive, sets the time-to-live for written columns.
	// Sub-second values are rounded up to one second.
	TTL time.Duration

	// Timestamp, if non-zero, is the client-side write timestamp in
	// microseconds. When zero, the client's TimestampProvider is used.
	Timestamp int64

	// IfNotExists makes an insert conditional (lightweight transaction).
	// Conditional statements report whether they were applied.
	IfNotExists bool

	// SkipNulls omits unset optional columns from inserts instead of
	// binding them as explicit nulls. Skipping nulls avoids tombstones
	// but leaves previously written column values in place.
	SkipNulls bool
}

// TTLSeconds returns the TTL rounded up to whole seconds, or 0 if unset.
func (o *WriteOptions) TTLSeconds() int {
	if o == nil || o.TTL <= 0 {
		return 0
	}

	return int((o.TTL + time.Second - 1) / time.Second)
}

// QueryOptions carries per-statement options for read operations.
//
// The zero value applies no options.
type QueryOptions struct {
	// Consistency, if non-nil, overrides the session's consistency level.
	Consistency *Consistency

	// PageSize, if positive, sets the driver fetch size for paged results.
	PageSize int

	// ReadTimeout, if positive, bounds the dispatch call by deriving a
	// context deadline before the statement is sent.
	ReadTimeout time.Duration
}

// Logger defines the structured logging interface used by entmap.
//
// The interface is compatible with zap.SugaredLogger's key/value methods;
// any logger accepting a message followed by alternating key/value pairs
// can be adapted.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Sentinel errors for common failure scenarios.
var (
	// ErrNilSession indicates that a nil session was provided.
	ErrNilSession = errors.New("entmap: session cannot be nil")

	// ErrNilEntity indicates that a nil entity or prototype was provided.
	ErrNilEntity = errors.New("entmap: entity cannot be nil")

	// ErrSessionClosed indicates an operation was attempted on a closed client.
	ErrSessionClosed = errors.New("entmap: session is closed")
)

// MappingError indicates that an entity type cannot be described or a row
// cannot be converted back into an entity.
//
// Mapping errors are never retried; they identify a defect in the entity's
// declared mapping or a projection that lacks a required column.
type MappingError struct {
	// Entity is the table identifier or Go type of the offending entity.
	Entity string

	// Field is the field or column involved, empty when the error concerns
	// the mapping as a whole.
	Field string

	// Reason describes what made the mapping invalid.
	Reason string
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	if e.Field != "" {
		return "entmap: mapping " + e.Entity + ": field " + e.Field + ": " + e.Reason
	}

	return "entmap: mapping " + e.Entity + ": " + e.Reason
}

// IllegalStateError indicates an operation invariant was violated, such as
// executing an already-spent batch or updating an entity with no primary
// key value. This is a programming error class and is never retried.
type IllegalStateError struct {
	// Op is the operation that was attempted.
	Op string

	// Reason describes the violated invariant.
	Reason string
}

// Error implements the error interface.
func (e *IllegalStateError) Error() string {
	return "entmap: " + e.Op + ": " + e.Reason
}

// UnsupportedOperationError indicates a requested statement shape is
// structurally impossible, such as an IN-list lookup over a composite
// primary key.
type UnsupportedOperationError struct {
	// Op is the operation that was attempted.
	Op string

	// Reason describes the unsupported shape.
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return "entmap: " + e.Op + ": " + e.Reason
}

// IncorrectResultSizeError indicates a single-result query matched more
// rows than expected. Zero rows is not an error; callers receive an
// explicit "absent" result instead.
type IncorrectResultSizeError struct {
	// Expected is the number of rows the operation allows.
	Expected int

	// Actual is the number of rows the query matched. Single-row lookups
	// stop counting at the first excess row, so Actual is at least
	// Expected+1.
	Actual int
}

// Error implements the error interface.
func (e *IncorrectResultSizeError) Error() string {
	return fmt.Sprintf("entmap: incorrect result size: expected %d, actual %d", e.Expected, e.Actual)
}
