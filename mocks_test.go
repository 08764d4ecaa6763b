package entmap

import (
	"context"
	"sync/atomic"

	"github.com/arloliu/entmap/adapter/cql"
	"github.com/arloliu/entmap/types"
)

// mockSession implements cql.Session for testing.
type mockSession struct {
	queries    []*mockQuery
	batches    []*mockBatch
	rows       []map[string]any // rows served by iterators
	scanValues []any            // values copied out by ScanContext
	execErr    error            // error injected into query execution
	batchErr   error            // error injected into batch execution
	iterErr    error            // error returned by iterator Close
	casApplied bool             // result of CAS executions
	closed     atomic.Bool
}

func newMockSession() *mockSession {
	return &mockSession{casApplied: true}
}

func (m *mockSession) Query(stmt string, values ...any) cql.Query {
	q := &mockQuery{
		session:   m,
		statement: stmt,
		values:    values,
	}
	m.queries = append(m.queries, q)

	return q
}

func (m *mockSession) Batch(kind cql.BatchType) cql.Batch {
	b := &mockBatch{session: m, kind: kind}
	m.batches = append(m.batches, b)

	return b
}

func (m *mockSession) Close() {
	m.closed.Store(true)
}

func (m *mockSession) lastQuery() *mockQuery {
	if len(m.queries) == 0 {
		return nil
	}

	return m.queries[len(m.queries)-1]
}

// mockQuery implements cql.Query for testing.
type mockQuery struct {
	session     *mockSession
	statement   string
	values      []any
	consistency *types.Consistency
	pageSize    int
	pageState   []byte
	timestamp   *int64
	ctx         context.Context // captured at execution time
	casScanned  bool
}

func (q *mockQuery) Consistency(c cql.Consistency) cql.Query {
	q.consistency = &c
	return q
}

func (q *mockQuery) SerialConsistency(_ cql.Consistency) cql.Query { return q }

func (q *mockQuery) PageSize(n int) cql.Query {
	q.pageSize = n
	return q
}

func (q *mockQuery) PageState(state []byte) cql.Query {
	q.pageState = state
	return q
}

func (q *mockQuery) WithTimestamp(ts int64) cql.Query {
	q.timestamp = &ts
	return q
}

func (q *mockQuery) ExecContext(ctx context.Context) error {
	q.ctx = ctx
	return q.session.execErr
}

func (q *mockQuery) ScanContext(ctx context.Context, dest ...any) error {
	q.ctx = ctx
	if q.session.execErr != nil {
		return q.session.execErr
	}
	for i, v := range q.session.scanValues {
		if i >= len(dest) {
			break
		}
		switch d := dest[i].(type) {
		case *int64:
			if n, ok := v.(int64); ok {
				*d = n
			}
		case *string:
			if s, ok := v.(string); ok {
				*d = s
			}
		}
	}

	return nil
}

func (q *mockQuery) IterContext(ctx context.Context) cql.Iter {
	q.ctx = ctx
	return &mockIter{rows: q.session.rows, closeErr: q.session.iterErr}
}

func (q *mockQuery) MapScanContext(ctx context.Context, m map[string]any) error {
	q.ctx = ctx
	if q.session.execErr != nil {
		return q.session.execErr
	}
	if len(q.session.rows) > 0 {
		for k, v := range q.session.rows[0] {
			m[k] = v
		}
	}

	return nil
}

func (q *mockQuery) ScanCASContext(ctx context.Context, _ ...any) (bool, error) {
	q.ctx = ctx
	q.casScanned = true

	return q.session.casApplied, q.session.execErr
}

func (q *mockQuery) MapScanCASContext(ctx context.Context, _ map[string]any) (bool, error) {
	q.ctx = ctx
	q.casScanned = true

	return q.session.casApplied, q.session.execErr
}

func (q *mockQuery) Statement() string { return q.statement }
func (q *mockQuery) Values() []any     { return q.values }
func (q *mockQuery) Release()          {}

// mockBatch implements cql.Batch for testing.
type mockBatch struct {
	session     *mockSession
	kind        types.BatchType
	entries     []cql.BatchEntry
	consistency *types.Consistency
	timestamp   *int64
	executed    bool
	casExecuted bool
}

func (b *mockBatch) Query(stmt string, args ...any) cql.Batch {
	b.entries = append(b.entries, cql.BatchEntry{Statement: stmt, Args: args})
	return b
}

func (b *mockBatch) Consistency(c cql.Consistency) cql.Batch {
	b.consistency = &c
	return b
}

func (b *mockBatch) SerialConsistency(_ cql.Consistency) cql.Batch { return b }

func (b *mockBatch) WithTimestamp(ts int64) cql.Batch {
	b.timestamp = &ts
	return b
}

func (b *mockBatch) ExecContext(_ context.Context) error {
	b.executed = true
	return b.session.batchErr
}

func (b *mockBatch) ExecCASContext(_ context.Context, _ ...any) (bool, cql.Iter, error) {
	b.casExecuted = true
	return b.session.casApplied, &mockIter{}, b.session.batchErr
}

func (b *mockBatch) Size() int                    { return len(b.entries) }
func (b *mockBatch) Statements() []cql.BatchEntry { return b.entries }

// mockIter implements cql.Iter for testing.
type mockIter struct {
	rows     []map[string]any
	pos      int
	closed   bool
	closeErr error
}

func (i *mockIter) Scan(_ ...any) bool { return false }

func (i *mockIter) MapScan(m map[string]any) bool {
	if i.closed || i.pos >= len(i.rows) {
		return false
	}
	for k, v := range i.rows[i.pos] {
		m[k] = v
	}
	i.pos++

	return true
}

func (i *mockIter) SliceMap() ([]map[string]any, error) {
	rest := i.rows[i.pos:]
	i.pos = len(i.rows)

	return rest, nil
}

func (i *mockIter) Close() error {
	i.closed = true
	return i.closeErr
}

func (i *mockIter) PageState() []byte         { return nil }
func (i *mockIter) NumRows() int              { return len(i.rows) }
func (i *mockIter) Columns() []cql.ColumnInfo { return nil }

// captureMetrics implements types.MetricsCollector and records counts.
type captureMetrics struct {
	readTotal    map[string]int
	readError    map[string]int
	writeTotal   map[string]int
	writeError   map[string]int
	mappingError map[string]int
	batchTotal   map[types.BatchType]int
	batchError   map[types.BatchType]int
	batchSizes   []int
	readSeconds  float64
	writeSeconds float64
	batchSeconds float64
}

func newCaptureMetrics() *captureMetrics {
	return &captureMetrics{
		readTotal:    make(map[string]int),
		readError:    make(map[string]int),
		writeTotal:   make(map[string]int),
		writeError:   make(map[string]int),
		mappingError: make(map[string]int),
		batchTotal:   make(map[types.BatchType]int),
		batchError:   make(map[types.BatchType]int),
	}
}

func (m *captureMetrics) IncReadTotal(table string)  { m.readTotal[table]++ }
func (m *captureMetrics) IncReadError(table string)  { m.readError[table]++ }
func (m *captureMetrics) IncWriteTotal(table string) { m.writeTotal[table]++ }
func (m *captureMetrics) IncWriteError(table string) { m.writeError[table]++ }
func (m *captureMetrics) IncMappingError(table string) {
	m.mappingError[table]++
}

func (m *captureMetrics) ObserveReadDuration(_ string, seconds float64) {
	m.readSeconds += seconds
}

func (m *captureMetrics) ObserveWriteDuration(_ string, seconds float64) {
	m.writeSeconds += seconds
}

func (m *captureMetrics) IncBatchTotal(kind types.BatchType) { m.batchTotal[kind]++ }
func (m *captureMetrics) IncBatchError(kind types.BatchType) { m.batchError[kind]++ }
func (m *captureMetrics) ObserveBatchSize(_ types.BatchType, size int) {
	m.batchSizes = append(m.batchSizes, size)
}

func (m *captureMetrics) ObserveBatchDuration(_ types.BatchType, seconds float64) {
	m.batchSeconds += seconds
}

// testUser is a single-column-key entity used across tests.
type testUser struct {
	ID    int64
	Name  string
	Email *string
}

func (u *testUser) EntityMapping() Mapping {
	return Mapping{
		Table: "user",
		New:   func() Entity { return &testUser{} },
		PartitionKeys: []Column{{
			Name: "id",
			Get:  func(e Entity) any { return e.(*testUser).ID },
			Set: func(e Entity, v any) error {
				n, ok := v.(int64)
				if !ok {
					return errTestBadType
				}
				e.(*testUser).ID = n

				return nil
			},
		}},
		Columns: []Column{
			{
				Name: "name",
				Get:  func(e Entity) any { return e.(*testUser).Name },
				Set: func(e Entity, v any) error {
					s, ok := v.(string)
					if !ok {
						return errTestBadType
					}
					e.(*testUser).Name = s

					return nil
				},
			},
			{
				Name:     "email",
				Nullable: true,
				Get:      func(e Entity) any { return e.(*testUser).Email },
				Set: func(e Entity, v any) error {
					s, ok := v.(string)
					if !ok {
						return errTestBadType
					}
					e.(*testUser).Email = &s

					return nil
				},
			},
		},
	}
}

// testEvent has a composite primary key: tenant partition, seq clustering.
type testEvent struct {
	Tenant  string
	Seq     int64
	Payload string
}

func (ev *testEvent) EntityMapping() Mapping {
	return Mapping{
		Table: "event",
		New:   func() Entity { return &testEvent{} },
		PartitionKeys: []Column{{
			Name: "tenant",
			Get:  func(e Entity) any { return e.(*testEvent).Tenant },
			Set: func(e Entity, v any) error {
				e.(*testEvent).Tenant, _ = v.(string)
				return nil
			},
		}},
		ClusteringKeys: []ClusteringColumn{{
			Column: Column{
				Name: "seq",
				Get:  func(e Entity) any { return e.(*testEvent).Seq },
				Set: func(e Entity, v any) error {
					e.(*testEvent).Seq, _ = v.(int64)
					return nil
				},
			},
			Order: Desc,
		}},
		Columns: []Column{{
			Name: "payload",
			Get:  func(e Entity) any { return e.(*testEvent).Payload },
			Set: func(e Entity, v any) error {
				e.(*testEvent).Payload, _ = v.(string)
				return nil
			},
		}},
	}
}

// testToken has a pointer-typed key so "key not set" paths can be hit.
type testToken struct {
	ID   *string
	Note string
}

func (t *testToken) EntityMapping() Mapping {
	return Mapping{
		Table: "token",
		New:   func() Entity { return &testToken{} },
		PartitionKeys: []Column{{
			Name: "id",
			Get:  func(e Entity) any { return e.(*testToken).ID },
			Set: func(e Entity, v any) error {
				s, _ := v.(string)
				e.(*testToken).ID = &s

				return nil
			},
		}},
		Columns: []Column{{
			Name: "note",
			Get:  func(e Entity) any { return e.(*testToken).Note },
			Set: func(e Entity, v any) error {
				e.(*testToken).Note, _ = v.(string)
				return nil
			},
		}},
	}
}

// testPref has a single nullable regular column.
type testPref struct {
	ID   int64
	Hint *string
}

func (p *testPref) EntityMapping() Mapping {
	return Mapping{
		Table: "pref",
		New:   func() Entity { return &testPref{} },
		PartitionKeys: []Column{{
			Name: "id",
			Get:  func(e Entity) any { return e.(*testPref).ID },
			Set: func(e Entity, v any) error {
				e.(*testPref).ID, _ = v.(int64)
				return nil
			},
		}},
		Columns: []Column{{
			Name:     "hint",
			Nullable: true,
			Get:      func(e Entity) any { return e.(*testPref).Hint },
			Set: func(e Entity, v any) error {
				s, _ := v.(string)
				e.(*testPref).Hint = &s

				return nil
			},
		}},
	}
}

// dupColumnEntity declares the same column identifier twice.
type dupColumnEntity struct {
	ID   int64
	Name string
}

func (d *dupColumnEntity) EntityMapping() Mapping {
	col := Column{
		Name: "id",
		Get:  func(e Entity) any { return e.(*dupColumnEntity).ID },
		Set:  func(_ Entity, _ any) error { return nil },
	}

	return Mapping{
		Table:         "dup",
		New:           func() Entity { return &dupColumnEntity{} },
		PartitionKeys: []Column{col},
		Columns:       []Column{col},
	}
}

// noKeyEntity declares no partition key.
type noKeyEntity struct {
	Name string
}

func (n *noKeyEntity) EntityMapping() Mapping {
	return Mapping{
		Table: "nokey",
		New:   func() Entity { return &noKeyEntity{} },
		Columns: []Column{{
			Name: "name",
			Get:  func(e Entity) any { return e.(*noKeyEntity).Name },
			Set:  func(_ Entity, _ any) error { return nil },
		}},
	}
}

// errTestBadType is returned by fixture mutators on unexpected value types.
var errTestBadType = &types.MappingError{Entity: "test", Reason: "unexpected value type"}
