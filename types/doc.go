// Package types provides shared types and error definitions for the entmap library.
//
// This is a leaf package with zero entmap imports to prevent import cycles.
// All packages in entmap can safely import this package.
//
// # Types
//
// Consistency levels mirror gocql consistency levels for database operations:
//
//	const (
//	    Any         Consistency = 0x00
//	    One         Consistency = 0x01
//	    Two         Consistency = 0x02
//	    Three       Consistency = 0x03
//	    Quorum      Consistency = 0x04
//	    All         Consistency = 0x05
//	    LocalQuorum Consistency = 0x06
//	    EachQuorum  Consistency = 0x07
//	    LocalOne    Consistency = 0x0A
//	)
//
// WriteOptions and QueryOptions are consumed as opaque configuration: every
// field that is set is attached verbatim to the produced statement, and
// unset fields fall back to the session's defaults.
//
// # Errors
//
// The error taxonomy is a closed set of tagged variants carrying structured
// context instead of message strings:
//
//   - MappingError: an entity type cannot be described, or a row cannot be
//     converted (missing or ambiguous primary key, duplicate column
//     identifiers, missing required column)
//   - IllegalStateError: an operation invariant was violated (executing a
//     spent batch, updating an entity with no primary key value)
//   - UnsupportedOperationError: a requested statement shape is structurally
//     impossible (IN-list lookup over a composite primary key)
//   - IncorrectResultSizeError: a single-result query matched more than one
//     row
//
// Dispatch-layer failures (timeouts, unavailable replicas, write conflicts)
// propagate unchanged from the underlying driver; entmap performs no retry
// of its own.
package types
