package entmap

import (
	"strings"

	"github.com/arloliu/entmap/types"
)

// Kind identifies the operation a Statement performs.
type Kind int

// Statement kinds.
const (
	KindRaw Kind = iota
	KindInsert
	KindUpdate
	KindDelete
	KindSelect
	KindCount
	KindTruncate
)

// Statement is an immutable, single-use unit of parameterized work ready
// for dispatch.
//
// A Statement carries the target table, the operation kind, the CQL text
// with ? placeholders, the bound argument values, and optional per-statement
// write or query options. Statements are created per call, consumed exactly
// once by dispatch, and never mutated after creation.
type Statement struct {
	table string
	kind  Kind
	cql   string
	args  []any
	write *types.WriteOptions
	query *types.QueryOptions
}

// NewStatement creates a raw statement from literal CQL text.
//
// Raw statements bypass the statement builder and entity mapping entirely;
// the text and arguments are dispatched as-is. Conversion on the way back
// still goes through the result converter when an entity type is requested.
//
// Parameters:
//   - cql: CQL text with ? placeholders
//   - args: Values to bind to placeholders
//
// Returns:
//   - *Statement: A raw statement
func NewStatement(cql string, args ...any) *Statement {
	return &Statement{kind: KindRaw, cql: cql, args: args}
}

// CQL returns the statement text.
func (s *Statement) CQL() string { return s.cql }

// Args returns the bound argument values.
func (s *Statement) Args() []any { return s.args }

// Table returns the target table identifier, empty for raw statements.
func (s *Statement) Table() string { return s.table }

// Kind returns the operation kind.
func (s *Statement) Kind() Kind { return s.kind }

// WriteOptions returns the per-statement write options, or nil.
func (s *Statement) WriteOptions() *types.WriteOptions { return s.write }

// QueryOptions returns the per-statement query options, or nil.
func (s *Statement) QueryOptions() *types.QueryOptions { return s.query }

// Conditional reports whether the statement is a lightweight transaction.
func (s *Statement) Conditional() bool {
	return s.write != nil && s.write.IfNotExists
}

// WithWriteOptions returns a copy of the statement carrying the given write
// options. The receiver is not modified.
func (s *Statement) WithWriteOptions(opts *types.WriteOptions) *Statement {
	c := *s
	c.write = opts

	return &c
}

// WithQueryOptions returns a copy of the statement carrying the given query
// options. The receiver is not modified.
func (s *Statement) WithQueryOptions(opts *types.QueryOptions) *Statement {
	c := *s
	c.query = opts

	return &c
}

// BuildInsert produces an INSERT statement binding every mapped column of
// the entity.
//
// Unset optional columns are bound as explicit nulls unless opts.SkipNulls
// is set, in which case they are omitted from the column list. Unset
// primary key or non-nullable columns fail with a MappingError.
//
// When opts.IfNotExists is set the insert becomes a lightweight transaction
// and reports whether it was applied. A positive opts.TTL is attached as a
// USING TTL clause.
func BuildInsert(e Entity, opts *types.WriteOptions) (*Statement, error) {
	desc, err := Describe(e)
	if err != nil {
		return nil, err
	}

	all := desc.AllColumns()
	names := make([]string, 0, len(all))
	args := make([]any, 0, len(all)+1)

	for _, col := range all {
		v := col.Get(e)
		if isUnset(v) {
			if !col.Nullable {
				return nil, &types.MappingError{
					Entity: desc.table,
					Field:  col.Name,
					Reason: "required column value is not set",
				}
			}
			if opts != nil && opts.SkipNulls {
				continue
			}
			v = nil
		}
		names = append(names, col.Name)
		args = append(args, v)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(desc.table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(placeholders(len(names)))
	sb.WriteString(")")

	if opts != nil && opts.IfNotExists {
		sb.WriteString(" IF NOT EXISTS")
	}
	if ttl := opts.TTLSeconds(); ttl > 0 {
		sb.WriteString(" USING TTL ?")
		args = append(args, ttl)
	}

	return &Statement{
		table: desc.table,
		kind:  KindInsert,
		cql:   sb.String(),
		args:  args,
		write: opts,
	}, nil
}

// BuildUpdate produces an UPDATE statement binding the regular columns as
// SET targets and the primary key columns as WHERE predicates.
//
// Fails with an IllegalStateError when a primary key value is unset or when
// the entity maps no regular columns.
func BuildUpdate(e Entity, opts *types.WriteOptions) (*Statement, error) {
	desc, err := Describe(e)
	if err != nil {
		return nil, err
	}

	if len(desc.columns) == 0 {
		return nil, &types.IllegalStateError{
			Op:     "update",
			Reason: "entity " + desc.table + " maps no regular columns to set",
		}
	}

	keyArgs, err := entityKeyValues(desc, e, "update")
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(desc.columns))
	args := make([]any, 0, len(desc.columns)+len(keyArgs)+1)

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(desc.table)

	if ttl := opts.TTLSeconds(); ttl > 0 {
		sb.WriteString(" USING TTL ?")
		args = append(args, ttl)
	}

	for _, col := range desc.columns {
		v := col.Get(e)
		if isUnset(v) {
			if !col.Nullable {
				return nil, &types.MappingError{
					Entity: desc.table,
					Field:  col.Name,
					Reason: "required column value is not set",
				}
			}
			if opts != nil && opts.SkipNulls {
				continue
			}
			v = nil
		}
		sets = append(sets, col.Name+" = ?")
		args = append(args, v)
	}

	if len(sets) == 0 {
		return nil, &types.IllegalStateError{
			Op:     "update",
			Reason: "no column values to set after skipping nulls",
		}
	}

	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	sb.WriteString(" WHERE ")
	sb.WriteString(keyPredicate(desc))
	args = append(args, keyArgs...)

	return &Statement{
		table: desc.table,
		kind:  KindUpdate,
		cql:   sb.String(),
		args:  args,
		write: opts,
	}, nil
}

// BuildDelete produces a DELETE statement with a predicate built purely
// from the entity's primary key columns.
func BuildDelete(e Entity, opts *types.WriteOptions) (*Statement, error) {
	desc, err := Describe(e)
	if err != nil {
		return nil, err
	}

	keyArgs, err := entityKeyValues(desc, e, "delete")
	if err != nil {
		return nil, err
	}

	return &Statement{
		table: desc.table,
		kind:  KindDelete,
		cql:   "DELETE FROM " + desc.table + " WHERE " + keyPredicate(desc),
		args:  keyArgs,
		write: opts,
	}, nil
}

// BuildDeleteByID produces a DELETE statement for the given identifier.
//
// Single-column keys take the bare value; composite keys take a []any in
// partition-then-clustering order or a map[string]any keyed by column name.
func BuildDeleteByID(id any, proto Entity, opts *types.WriteOptions) (*Statement, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	keyArgs, err := bindID(desc, "deleteById", id)
	if err != nil {
		return nil, err
	}

	return &Statement{
		table: desc.table,
		kind:  KindDelete,
		cql:   "DELETE FROM " + desc.table + " WHERE " + keyPredicate(desc),
		args:  keyArgs,
		write: opts,
	}, nil
}

// BuildSelectByID produces a SELECT statement matching one primary key.
func BuildSelectByID(id any, proto Entity) (*Statement, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	keyArgs, err := bindID(desc, "selectOneById", id)
	if err != nil {
		return nil, err
	}

	return &Statement{
		table: desc.table,
		kind:  KindSelect,
		cql:   "SELECT " + columnList(desc) + " FROM " + desc.table + " WHERE " + keyPredicate(desc),
		args:  keyArgs,
	}, nil
}

// BuildSelectByIDs produces a SELECT statement with an IN-list over the
// single primary key column.
//
// IN-list lookups are defined only for single-column primary keys; a
// composite key fails with an UnsupportedOperationError.
func BuildSelectByIDs(ids []any, proto Entity) (*Statement, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	if len(desc.primaryKey) != 1 {
		return nil, &types.UnsupportedOperationError{
			Op:     "selectBySimpleIds",
			Reason: "IN-list lookup requires a single-column primary key, " + desc.table + " has a composite key",
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columnList(desc))
	sb.WriteString(" FROM ")
	sb.WriteString(desc.table)
	sb.WriteString(" WHERE ")
	sb.WriteString(desc.primaryKey[0].Name)
	sb.WriteString(" IN (")
	sb.WriteString(placeholders(len(ids)))
	sb.WriteString(")")

	return &Statement{
		table: desc.table,
		kind:  KindSelect,
		cql:   sb.String(),
		args:  append([]any(nil), ids...),
	}, nil
}

// BuildSelectAll produces a SELECT statement over the whole table.
func BuildSelectAll(proto Entity) (*Statement, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	return &Statement{
		table: desc.table,
		kind:  KindSelect,
		cql:   "SELECT " + columnList(desc) + " FROM " + desc.table,
	}, nil
}

// BuildCount produces a SELECT COUNT(*) statement with no predicate.
func BuildCount(proto Entity) (*Statement, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	return &Statement{
		table: desc.table,
		kind:  KindCount,
		cql:   "SELECT COUNT(*) FROM " + desc.table,
	}, nil
}

// BuildExists produces a key-projection SELECT for an existence check.
func BuildExists(id any, proto Entity) (*Statement, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	keyArgs, err := bindID(desc, "exists", id)
	if err != nil {
		return nil, err
	}

	return &Statement{
		table: desc.table,
		kind:  KindSelect,
		cql: "SELECT " + desc.primaryKey[0].Name + " FROM " + desc.table +
			" WHERE " + keyPredicate(desc) + " LIMIT 1",
		args: keyArgs,
	}, nil
}

// BuildTruncate produces a TRUNCATE statement.
func BuildTruncate(proto Entity) (*Statement, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	return &Statement{
		table: desc.table,
		kind:  KindTruncate,
		cql:   "TRUNCATE " + desc.table,
	}, nil
}

// entityKeyValues extracts primary key values for a mutating statement,
// reporting an unset key as an IllegalStateError for the given operation.
func entityKeyValues(desc *EntityDescriptor, e Entity, op string) ([]any, error) {
	args := make([]any, len(desc.primaryKey))
	for i, col := range desc.primaryKey {
		v := col.Get(e)
		if isUnset(v) {
			return nil, &types.IllegalStateError{
				Op:     op,
				Reason: "entity " + desc.table + " has no value for primary key column " + col.Name,
			}
		}
		args[i] = v
	}

	return args, nil
}

// bindID normalizes an identifier into primary key argument values.
//
// Accepted shapes: the bare value for single-column keys, a []any in key
// declaration order, or a map[string]any keyed by column name.
func bindID(desc *EntityDescriptor, op string, id any) ([]any, error) {
	pk := desc.primaryKey

	switch v := id.(type) {
	case nil:
		return nil, &types.MappingError{Entity: desc.table, Reason: op + ": identifier is nil"}
	case map[string]any:
		args := make([]any, len(pk))
		for i, col := range pk {
			val, ok := v[col.Name]
			if !ok {
				return nil, &types.MappingError{
					Entity: desc.table,
					Field:  col.Name,
					Reason: op + ": identifier is missing a key component",
				}
			}
			args[i] = val
		}

		return args, nil
	case []any:
		if len(v) != len(pk) {
			return nil, &types.MappingError{
				Entity: desc.table,
				Reason: op + ": identifier has wrong number of key components",
			}
		}

		return append([]any(nil), v...), nil
	default:
		if len(pk) != 1 {
			return nil, &types.MappingError{
				Entity: desc.table,
				Reason: op + ": composite primary key requires a []any or map[string]any identifier",
			}
		}

		return []any{id}, nil
	}
}

// keyPredicate renders the WHERE clause matching every primary key column.
func keyPredicate(desc *EntityDescriptor) string {
	parts := make([]string, len(desc.primaryKey))
	for i, col := range desc.primaryKey {
		parts[i] = col.Name + " = ?"
	}

	return strings.Join(parts, " AND ")
}

// columnList renders the projection list of every mapped column.
func columnList(desc *EntityDescriptor) string {
	names := make([]string, len(desc.allColumns))
	for i, col := range desc.allColumns {
		names[i] = col.Name
	}

	return strings.Join(names, ", ")
}

// placeholders renders n comma-separated ? markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}

	return sb.String()
}
