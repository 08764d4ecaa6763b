package entmap

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/arloliu/entmap/types"
)

// Batch collects mapped statements into one compound unit executed in a
// single round trip.
//
// A logged batch guarantees that if the batch is acknowledged, every
// statement's partition-local durability record exists before any
// statement's row mutation becomes visible. An unlogged batch provides no
// ordering or atomicity guarantee across statements and exists purely to
// reduce round trips; a failed unlogged batch leaves an unknown partial
// effect and is never compensated here.
//
// Each Batch instance can be executed at most once. Execute marks the unit
// spent regardless of outcome; later additions and a second Execute fail
// with an IllegalStateError. Obtain a fresh unit per batch:
//
//	applied, err := client.Batch(types.LoggedBatch).
//	    Insert(&User{ID: 1, Name: "ann"}, nil).
//	    Insert(&User{ID: 2, Name: "bob"}, nil).
//	    Execute(ctx)
//
// Statement order as added is preserved in the compound statement sent to
// dispatch. A Batch is not safe for concurrent mutation; confine it to one
// logical request.
type Batch struct {
	client *Client
	kind   types.BatchType
	stmts  []*Statement
	opts   *types.WriteOptions
	spent  atomic.Bool
	err    error
}

// Kind returns the batch type.
func (b *Batch) Kind() types.BatchType {
	return b.kind
}

// Size returns the number of statements added so far.
func (b *Batch) Size() int {
	return len(b.stmts)
}

// Err returns the first build error recorded by the fluent methods, or an
// IllegalStateError when the batch was used after execution.
func (b *Batch) Err() error {
	return b.err
}

// WithOptions sets the shared default write options, applied to statements
// that carry none of their own.
func (b *Batch) WithOptions(opts *types.WriteOptions) *Batch {
	if b.guard("batch options") {
		return b
	}
	b.opts = opts

	return b
}

// Add appends pre-built statements to the batch in order.
//
// Using Add after Execute records an IllegalStateError, surfaced by Err
// and by Execute.
func (b *Batch) Add(stmts ...*Statement) *Batch {
	if b.guard("batch add") {
		return b
	}
	b.stmts = append(b.stmts, stmts...)

	return b
}

// Insert appends an insert statement for the entity.
//
// Statement-level options override the batch defaults; pass nil to inherit
// them.
func (b *Batch) Insert(e Entity, opts *types.WriteOptions) *Batch {
	if b.guard("batch insert") {
		return b
	}

	stmt, err := BuildInsert(e, b.statementOptions(opts))
	if err != nil {
		b.fail(err)
		return b
	}
	b.stmts = append(b.stmts, stmt)

	return b
}

// Update appends an update statement for the entity.
func (b *Batch) Update(e Entity, opts *types.WriteOptions) *Batch {
	if b.guard("batch update") {
		return b
	}

	stmt, err := BuildUpdate(e, b.statementOptions(opts))
	if err != nil {
		b.fail(err)
		return b
	}
	b.stmts = append(b.stmts, stmt)

	return b
}

// Delete appends a delete statement matching the entity's primary key.
func (b *Batch) Delete(e Entity, opts *types.WriteOptions) *Batch {
	if b.guard("batch delete") {
		return b
	}

	stmt, err := BuildDelete(e, b.statementOptions(opts))
	if err != nil {
		b.fail(err)
		return b
	}
	b.stmts = append(b.stmts, stmt)

	return b
}

// Execute dispatches the batch as one compound statement.
//
// The unit transitions to its terminal spent state before dispatch, so a
// cancelled or failed execution cannot be retried on the same instance.
// A second Execute fails with an IllegalStateError, as does executing a
// batch whose fluent construction recorded an error.
//
// When any member statement is conditional the batch executes as a
// lightweight transaction and applied reports whether it took effect;
// otherwise applied is true when dispatch succeeded.
//
// Returns:
//   - applied: Whether the batch took effect
//   - err: Build, invariant, or dispatch error
func (b *Batch) Execute(ctx context.Context) (applied bool, err error) {
	if !b.spent.CompareAndSwap(false, true) {
		return false, &types.IllegalStateError{
			Op:     "batch execute",
			Reason: "batch has already been executed; create a new batch",
		}
	}
	if b.err != nil {
		return false, b.err
	}
	if b.client.closed.Load() {
		return false, types.ErrSessionClosed
	}

	cfg := b.client.config

	driver := b.client.session.Batch(b.kind)
	conditional := false
	for _, stmt := range b.stmts {
		driver = driver.Query(stmt.cql, stmt.args...)
		if stmt.Conditional() {
			conditional = true
		}
	}

	if cons := b.batchConsistency(); cons != nil {
		driver = driver.Consistency(*cons)
	}
	if !conditional {
		// One shared timestamp keeps the compound statement idempotent on
		// driver-level retries; CAS batches must let the server assign it.
		driver = driver.WithTimestamp(b.client.writeTimestamp(b.opts))
	}

	start := time.Now()
	if conditional {
		applied, _, err = driver.ExecCASContext(ctx)
	} else {
		err = driver.ExecContext(ctx)
		applied = err == nil
	}
	elapsed := time.Since(start)

	cfg.Metrics.IncBatchTotal(b.kind)
	cfg.Metrics.ObserveBatchSize(b.kind, len(b.stmts))
	cfg.Metrics.ObserveBatchDuration(b.kind, elapsed.Seconds())
	if err != nil {
		cfg.Metrics.IncBatchError(b.kind)
		cfg.Logger.Error("batch failed",
			"kind", b.kind.String(),
			"size", len(b.stmts),
			"error", err.Error(),
		)
	}

	return applied, err
}

// guard records an IllegalStateError when the batch is already spent and
// reports whether the fluent call should be ignored.
func (b *Batch) guard(op string) bool {
	if b.spent.Load() {
		b.err = &types.IllegalStateError{
			Op:     op,
			Reason: "batch has already been executed; create a new batch",
		}

		return true
	}

	return b.err != nil
}

// fail records the first build error; later fluent calls become no-ops.
func (b *Batch) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// statementOptions resolves per-statement options against the batch
// defaults.
func (b *Batch) statementOptions(opts *types.WriteOptions) *types.WriteOptions {
	if opts != nil {
		return opts
	}
	if b.opts != nil {
		return b.opts
	}

	return b.client.config.WriteOptions
}

// batchConsistency picks the batch-level consistency: the shared defaults
// win, then the first statement carrying its own. Consistency is a
// batch-level property in the wire protocol, so per-statement levels
// cannot differ within one unit.
func (b *Batch) batchConsistency() *types.Consistency {
	if b.opts != nil && b.opts.Consistency != nil {
		return b.opts.Consistency
	}
	for _, stmt := range b.stmts {
		if stmt.write != nil && stmt.write.Consistency != nil {
			return stmt.write.Consistency
		}
	}

	return nil
}
