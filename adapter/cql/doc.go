// Package cql provides the driver-facing interfaces consumed by entmap.
//
// The interfaces mirror a subset of gocql's session API: create a query or
// batch, bind values, execute, and iterate results. entmap depends only on
// these interfaces, so the mapping and batch engine can be exercised against
// mocks in tests and against gocql in production via the v1 subpackage.
//
// Serialization of primitive column values is the driver's concern; entmap
// passes bound values through unchanged and consumes rows as named column
// value maps.
package cql
