package entmap

import (
	"github.com/arloliu/entmap/adapter/cql"
	"github.com/arloliu/entmap/types"
)

// populate writes one projected row into a fresh entity instance.
//
// Every non-nullable column must be present in the projection; a missing
// required column or a mutator failure is reported as a MappingError.
func populate(desc *EntityDescriptor, row map[string]any, e Entity) error {
	for _, col := range desc.allColumns {
		v, ok := row[col.Name]
		if !ok || v == nil {
			if col.Nullable {
				continue
			}
			if !ok {
				return &types.MappingError{
					Entity: desc.table,
					Field:  col.Name,
					Reason: "required column missing from row projection",
				}
			}
			// Present but null: leave the zero value in place. Wide-column
			// stores report null for columns a row never wrote.
			continue
		}
		if err := col.Set(e, v); err != nil {
			return &types.MappingError{
				Entity: desc.table,
				Field:  col.Name,
				Reason: "cannot assign column value: " + err.Error(),
			}
		}
	}

	return nil
}

// ToEntities eagerly converts every row of the iterator into entities of
// the prototype's type and closes the iterator.
//
// Parameters:
//   - iter: Result iterator from dispatch
//   - proto: Prototype value identifying the entity type
//
// Returns:
//   - []Entity: One converted entity per row, in result order
//   - error: MappingError on conversion failure, or the iterator's error
func ToEntities(iter cql.Iter, proto Entity) ([]Entity, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	var out []Entity
	row := make(map[string]any)
	for iter.MapScan(row) {
		e := desc.New()
		if perr := populate(desc, row, e); perr != nil {
			_ = iter.Close()
			return nil, perr
		}
		out = append(out, e)
		row = make(map[string]any)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return out, nil
}

// ToEntity converts a result expected to hold at most one row.
//
// Zero rows is not an error: the second return value reports presence.
// More than one row fails with an IncorrectResultSizeError; the reported
// actual count stops at the first excess row.
//
// Returns:
//   - Entity: The converted entity, nil when absent
//   - bool: true when a row was present
//   - error: IncorrectResultSizeError, MappingError, or the iterator's error
func ToEntity(iter cql.Iter, proto Entity) (Entity, bool, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, false, err
	}

	row := make(map[string]any)
	if !iter.MapScan(row) {
		if err := iter.Close(); err != nil {
			return nil, false, err
		}

		return nil, false, nil
	}

	extra := make(map[string]any)
	if iter.MapScan(extra) {
		_ = iter.Close()
		return nil, false, &types.IncorrectResultSizeError{Expected: 1, Actual: 2}
	}

	if err := iter.Close(); err != nil {
		return nil, false, err
	}

	e := desc.New()
	if perr := populate(desc, row, e); perr != nil {
		return nil, false, perr
	}

	return e, true, nil
}

// Stream is a lazy, forward-only, single-pass sequence of converted
// entities backed by a live result cursor.
//
// Each entity is materialized only when requested by Next; the underlying
// cursor is advanced one row at a time, so a Stream can traverse a
// potentially unbounded result. Pulling the next element may block on
// network I/O performed by the driver, confined to that Next call.
//
// A Stream is not restartable: once exhausted or closed it stays done, and
// a second traversal requires re-dispatching the original statement. The
// cursor resource is released when the stream is exhausted, when Next
// observes a conversion failure, or when Close is called - whichever comes
// first.
//
// A Stream must be confined to one goroutine.
//
// Usage follows the scanner idiom:
//
//	stream, err := client.Stream(ctx, "SELECT ... ", &User{})
//	if err != nil { ... }
//	defer stream.Close()
//	for {
//	    e, ok := stream.Next()
//	    if !ok {
//	        break
//	    }
//	    u := e.(*User)
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream struct {
	iter cql.Iter
	desc *EntityDescriptor
	done bool
	err  error

	// release, if set, frees resources tied to the stream's lifetime, such
	// as a derived context deadline. Invoked once, after the cursor closes.
	release func()
}

// NewStream wraps a result iterator in a lazy entity stream.
func NewStream(iter cql.Iter, proto Entity) (*Stream, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}

	return &Stream{iter: iter, desc: desc}, nil
}

// Next pulls and converts the next row.
//
// Returns false when the stream is exhausted, closed, or stopped on an
// error; check Err after the loop to distinguish.
func (s *Stream) Next() (Entity, bool) {
	if s.done {
		return nil, false
	}

	row := make(map[string]any)
	if !s.iter.MapScan(row) {
		s.finish()
		return nil, false
	}

	e := s.desc.New()
	if err := populate(s.desc, row, e); err != nil {
		s.err = err
		s.finish()

		return nil, false
	}

	return e, true
}

// Err returns the first error seen during traversal, either a conversion
// failure or the cursor's own error, or nil after a clean traversal.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying cursor. It is safe to call Close multiple
// times and after exhaustion.
func (s *Stream) Close() error {
	if s.done {
		return s.err
	}
	s.finish()

	return s.err
}

// finish closes the cursor exactly once and records its error, keeping an
// earlier conversion error if one was already set.
func (s *Stream) finish() {
	s.done = true
	if cerr := s.iter.Close(); cerr != nil && s.err == nil {
		s.err = cerr
	}
	if s.release != nil {
		s.release()
		s.release = nil
	}
}
