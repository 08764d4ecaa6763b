package entmap

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/arloliu/entmap/adapter/cql"
	"github.com/arloliu/entmap/types"
)

// Client is the operations facade combining the entity mapper, statement
// builder, result converter, and batch assembler over one CQL session.
//
// The client owns no state beyond its collaborators; every method is
// stateless given its arguments, so a single client instance can be shared
// across goroutines:
//
//	client, err := entmap.NewClient(v1.WrapSession(session))
//	defer client.Close()
//
//	go func() { _, _ = client.Insert(ctx, &User{ID: 1, Name: "ann"}, nil) }()
//	go func() { _, _, _ = client.SelectOneByID(ctx, int64(1), &User{}) }()
//
// Mapping and dispatch errors are never caught here; they propagate to the
// caller unchanged. The client performs no retries - retry policy, if any,
// belongs to the underlying session's configuration.
type Client struct {
	session cql.Session
	config  *Config
	closed  atomic.Bool
}

// NewClient creates a new entmap client over the given session.
//
// The session is the external dispatch collaborator: the client builds
// statements and consumes result sets but never constructs connections.
//
// Parameters:
//   - session: CQL session (required), e.g. adapter/cql/v1.WrapSession
//   - opts: Optional configuration options
//
// Returns:
//   - *Client: A new client
//   - error: ErrNilSession if session is nil
func NewClient(session cql.Session, opts ...Option) (*Client, error) {
	if session == nil {
		return nil, types.ErrNilSession
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Ensure collaborators are never nil
	if config.Metrics == nil {
		config.Metrics = DefaultConfig().Metrics
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	if config.TimestampProvider == nil {
		config.TimestampProvider = DefaultTimestampProvider
	}

	return &Client{
		session: session,
		config:  config,
	}, nil
}

// Close releases the underlying session. After Close the client cannot be
// reused; operations return ErrSessionClosed.
func (c *Client) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.session.Close()
	}
}

// Config returns the client's configuration.
func (c *Client) Config() *Config {
	return c.config
}

// Session returns the underlying session.
//
// Use with caution - direct access bypasses the mapping layer entirely.
func (c *Client) Session() cql.Session {
	return c.session
}

// TableName returns the table identifier used for the given entity type.
func (c *Client) TableName(proto Entity) (string, error) {
	return TableNameFor(proto)
}

// -------------------------------------------------------------------------
// Read operations
// -------------------------------------------------------------------------

// Select executes raw CQL text and converts the resulting rows to entities
// of the prototype's type.
//
// Raw statements bypass the statement builder; conversion on the way back
// still goes through the entity mapping.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - stmt: CQL text with ? placeholders
//   - proto: Prototype value identifying the entity type
//   - args: Values to bind to placeholders
//
// Returns:
//   - []Entity: Converted results in store order
//   - error: Mapping, conversion, or dispatch error
func (c *Client) Select(ctx context.Context, stmt string, proto Entity, args ...any) ([]Entity, error) {
	return c.SelectWith(ctx, NewStatement(stmt, args...), proto)
}

// SelectWith executes a pre-built statement and converts the resulting
// rows to entities of the prototype's type.
func (c *Client) SelectWith(ctx context.Context, stmt *Statement, proto Entity) ([]Entity, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}
	if c.closed.Load() {
		return nil, types.ErrSessionClosed
	}

	rctx, cancel := c.readContext(ctx, stmt)
	defer cancel()

	start := time.Now()
	iter := c.queryFor(stmt).IterContext(rctx)
	out, err := ToEntities(iter, proto)
	c.recordRead(desc.table, time.Since(start), err)

	return out, err
}

// SelectOne executes raw CQL text expected to match at most one row.
//
// Zero rows is not an error; the second return value reports presence.
// More than one row fails with an IncorrectResultSizeError.
func (c *Client) SelectOne(ctx context.Context, stmt string, proto Entity, args ...any) (Entity, bool, error) {
	return c.SelectOneWith(ctx, NewStatement(stmt, args...), proto)
}

// SelectOneWith executes a pre-built statement expected to match at most
// one row.
func (c *Client) SelectOneWith(ctx context.Context, stmt *Statement, proto Entity) (Entity, bool, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, false, err
	}
	if c.closed.Load() {
		return nil, false, types.ErrSessionClosed
	}

	rctx, cancel := c.readContext(ctx, stmt)
	defer cancel()

	start := time.Now()
	iter := c.queryFor(stmt).IterContext(rctx)
	e, found, err := ToEntity(iter, proto)
	c.recordRead(desc.table, time.Since(start), err)

	return e, found, err
}

// Stream executes raw CQL text and returns a lazy, single-pass stream of
// converted entities.
//
// The caller must exhaust or Close the stream to release the underlying
// cursor. Pulling the next element may block on driver I/O; the block is
// confined to that Next call.
func (c *Client) Stream(ctx context.Context, stmt string, proto Entity, args ...any) (*Stream, error) {
	return c.StreamWith(ctx, NewStatement(stmt, args...), proto)
}

// StreamWith executes a pre-built statement and returns a lazy stream.
func (c *Client) StreamWith(ctx context.Context, stmt *Statement, proto Entity) (*Stream, error) {
	desc, err := Describe(proto)
	if err != nil {
		return nil, err
	}
	if c.closed.Load() {
		return nil, types.ErrSessionClosed
	}

	rctx, cancel := c.readContext(ctx, stmt)

	iter := c.queryFor(stmt).IterContext(rctx)
	stream, err := NewStream(iter, proto)
	if err != nil {
		cancel()
		return nil, err
	}
	// The derived deadline must survive until the stream is exhausted;
	// paging pulls more rows on later Next calls.
	stream.release = cancel

	c.config.Metrics.IncReadTotal(desc.table)

	return stream, nil
}

// SelectOneByID looks up a single entity by primary key.
//
// Single-column keys take the bare value; composite keys take a []any in
// partition-then-clustering order or a map[string]any keyed by column name.
//
// Returns:
//   - Entity: The converted entity, nil when absent
//   - bool: true when the row exists
//   - error: Mapping, conversion, or dispatch error
func (c *Client) SelectOneByID(ctx context.Context, id any, proto Entity) (Entity, bool, error) {
	stmt, err := BuildSelectByID(id, proto)
	if err != nil {
		return nil, false, err
	}

	return c.SelectOneWith(ctx, stmt, proto)
}

// SelectBySimpleIDs looks up entities by an IN-list over a single-column
// primary key. Result order is store order, not input order.
//
// Fails with an UnsupportedOperationError when the prototype's primary key
// is composite. An empty id list returns an empty result without dispatch.
func (c *Client) SelectBySimpleIDs(ctx context.Context, ids []any, proto Entity) ([]Entity, error) {
	stmt, err := BuildSelectByIDs(ids, proto)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return c.SelectWith(ctx, stmt, proto)
}

// Exists reports whether a row with the given primary key exists.
func (c *Client) Exists(ctx context.Context, id any, proto Entity) (bool, error) {
	desc, err := Describe(proto)
	if err != nil {
		return false, err
	}
	stmt, err := BuildExists(id, proto)
	if err != nil {
		return false, err
	}
	if c.closed.Load() {
		return false, types.ErrSessionClosed
	}

	rctx, cancel := c.readContext(ctx, stmt)
	defer cancel()

	start := time.Now()
	iter := c.queryFor(stmt).IterContext(rctx)
	row := make(map[string]any)
	found := iter.MapScan(row)
	err = iter.Close()
	c.recordRead(desc.table, time.Since(start), err)

	return found && err == nil, err
}

// Count returns the number of rows in the entity's table.
func (c *Client) Count(ctx context.Context, proto Entity) (int64, error) {
	desc, err := Describe(proto)
	if err != nil {
		return 0, err
	}
	stmt, err := BuildCount(proto)
	if err != nil {
		return 0, err
	}
	if c.closed.Load() {
		return 0, types.ErrSessionClosed
	}

	rctx, cancel := c.readContext(ctx, stmt)
	defer cancel()

	var count int64
	start := time.Now()
	err = c.queryFor(stmt).ScanContext(rctx, &count)
	c.recordRead(desc.table, time.Since(start), err)

	return count, err
}

// -------------------------------------------------------------------------
// Write operations
// -------------------------------------------------------------------------

// Insert writes the given entity.
//
// Every mapped column is bound; unset optional columns become explicit
// nulls unless opts.SkipNulls is set. With opts.IfNotExists the insert is
// a lightweight transaction and applied reports the outcome; otherwise
// applied is true when dispatch succeeded.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - e: The entity to insert
//   - opts: Write options, nil for the client defaults
//
// Returns:
//   - applied: Whether the write took effect
//   - err: Mapping or dispatch error
func (c *Client) Insert(ctx context.Context, e Entity, opts *types.WriteOptions) (applied bool, err error) {
	stmt, err := BuildInsert(e, c.mergeWrite(opts))
	if err != nil {
		return false, err
	}

	return c.executeWrite(ctx, stmt)
}

// Update rewrites the regular columns of the given entity, matching on its
// primary key. Fails with an IllegalStateError when the entity carries no
// primary key value.
func (c *Client) Update(ctx context.Context, e Entity, opts *types.WriteOptions) error {
	stmt, err := BuildUpdate(e, c.mergeWrite(opts))
	if err != nil {
		return err
	}

	_, err = c.executeWrite(ctx, stmt)

	return err
}

// Delete removes the row matching the entity's primary key. No column
// other than the key is referenced.
func (c *Client) Delete(ctx context.Context, e Entity, opts *types.WriteOptions) error {
	stmt, err := BuildDelete(e, c.mergeWrite(opts))
	if err != nil {
		return err
	}

	_, err = c.executeWrite(ctx, stmt)

	return err
}

// DeleteByID removes the row with the given primary key.
func (c *Client) DeleteByID(ctx context.Context, id any, proto Entity, opts *types.WriteOptions) error {
	stmt, err := BuildDeleteByID(id, proto, c.mergeWrite(opts))
	if err != nil {
		return err
	}

	_, err = c.executeWrite(ctx, stmt)

	return err
}

// Truncate removes every row of the entity's table.
func (c *Client) Truncate(ctx context.Context, proto Entity) error {
	stmt, err := BuildTruncate(proto)
	if err != nil {
		return err
	}

	_, err = c.executeWrite(ctx, stmt)

	return err
}

// Execute dispatches a pre-built mutating statement.
//
// This is the raw-statement escape hatch for writes:
//
//	stmt := entmap.NewStatement("UPDATE user SET name = ? WHERE id = ?", "bob", 1)
//	applied, err := client.Execute(ctx, stmt)
func (c *Client) Execute(ctx context.Context, stmt *Statement) (applied bool, err error) {
	return c.executeWrite(ctx, stmt)
}

// Batch creates a new batch unit of the given kind bound to this client.
//
// Each batch unit can be executed only once; obtain a new unit per batch.
func (c *Client) Batch(kind types.BatchType) *Batch {
	return &Batch{
		client: c,
		kind:   kind,
	}
}

// -------------------------------------------------------------------------
// Internal execution paths
// -------------------------------------------------------------------------

// mergeWrite resolves per-call write options against the client defaults.
func (c *Client) mergeWrite(opts *types.WriteOptions) *types.WriteOptions {
	if opts != nil {
		return opts
	}

	return c.config.WriteOptions
}

// queryFor binds a statement to the session and applies its query options,
// falling back to the client defaults.
func (c *Client) queryFor(stmt *Statement) cql.Query {
	q := c.session.Query(stmt.cql, stmt.args...)

	qo := stmt.query
	if qo == nil {
		qo = c.config.QueryOptions
	}
	if qo != nil {
		if qo.Consistency != nil {
			q = q.Consistency(*qo.Consistency)
		}
		if qo.PageSize > 0 {
			q = q.PageSize(qo.PageSize)
		}
	}

	return q
}

// readContext derives a context honoring the statement's read timeout.
func (c *Client) readContext(ctx context.Context, stmt *Statement) (context.Context, context.CancelFunc) {
	qo := stmt.query
	if qo == nil {
		qo = c.config.QueryOptions
	}
	if qo != nil && qo.ReadTimeout > 0 {
		return context.WithTimeout(ctx, qo.ReadTimeout)
	}

	return ctx, func() {}
}

// executeWrite dispatches a mutating statement, routing conditional
// statements through the driver's CAS execution path.
func (c *Client) executeWrite(ctx context.Context, stmt *Statement) (applied bool, err error) {
	if c.closed.Load() {
		return false, types.ErrSessionClosed
	}

	q := c.session.Query(stmt.cql, stmt.args...)

	wo := stmt.write
	if wo != nil && wo.Consistency != nil {
		q = q.Consistency(*wo.Consistency)
	}

	start := time.Now()
	if stmt.Conditional() {
		// Lightweight transactions use server-generated timestamps; a
		// client timestamp is rejected by the store.
		prev := make(map[string]any)
		applied, err = q.MapScanCASContext(ctx, prev)
	} else {
		if stmt.kind != KindTruncate {
			q = q.WithTimestamp(c.writeTimestamp(wo))
		}
		err = q.ExecContext(ctx)
		applied = err == nil
	}
	elapsed := time.Since(start)

	c.config.Metrics.IncWriteTotal(stmt.table)
	c.config.Metrics.ObserveWriteDuration(stmt.table, elapsed.Seconds())
	if err != nil {
		c.config.Metrics.IncWriteError(stmt.table)
		c.config.Logger.Error("write failed",
			"table", stmt.table,
			"error", err.Error(),
		)
	}

	return applied, err
}

// writeTimestamp resolves the client-side write timestamp for a statement.
// Client-generated timestamps keep retried and replayed writes idempotent.
func (c *Client) writeTimestamp(wo *types.WriteOptions) int64 {
	if wo != nil && wo.Timestamp != 0 {
		return wo.Timestamp
	}

	return c.config.TimestampProvider()
}

// recordRead records read metrics for one dispatch.
func (c *Client) recordRead(table string, elapsed time.Duration, err error) {
	c.config.Metrics.IncReadTotal(table)
	c.config.Metrics.ObserveReadDuration(table, elapsed.Seconds())
	if err != nil {
		c.config.Metrics.IncReadError(table)
		var merr *types.MappingError
		if errors.As(err, &merr) {
			c.config.Metrics.IncMappingError(table)
		}
		c.config.Logger.Error("read failed",
			"table", table,
			"error", err.Error(),
		)
	}
}
