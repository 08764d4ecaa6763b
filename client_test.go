package entmap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/entmap/types"
)

func newTestClient(t *testing.T, session *mockSession, opts ...Option) *Client {
	t.Helper()

	client, err := NewClient(session, opts...)
	require.NoError(t, err)

	return client
}

func TestNewClient(t *testing.T) {
	session := newMockSession()
	client, err := NewClient(session)
	require.NoError(t, err)
	require.NotNil(t, client)

	assert.Same(t, session, client.Session())
	assert.NotNil(t, client.Config().Metrics)
	assert.NotNil(t, client.Config().Logger)
	assert.NotNil(t, client.Config().TimestampProvider)
}

func TestNewClientNilSession(t *testing.T) {
	client, err := NewClient(nil)
	require.ErrorIs(t, err, types.ErrNilSession)
	assert.Nil(t, client)
}

func TestNewClientNilCollaborators(t *testing.T) {
	client := newTestClient(t, newMockSession(),
		WithMetrics(nil),
		WithLogger(nil),
		WithTimestampProvider(nil),
	)

	assert.NotNil(t, client.Config().Metrics)
	assert.NotNil(t, client.Config().Logger)
	assert.NotNil(t, client.Config().TimestampProvider)
}

func TestClientClose(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	client.Close()
	assert.True(t, session.closed.Load())

	// Close is idempotent.
	client.Close()

	ctx := context.Background()

	_, err := client.Select(ctx, "SELECT * FROM user", &testUser{})
	assert.ErrorIs(t, err, types.ErrSessionClosed)

	_, _, err = client.SelectOneByID(ctx, int64(1), &testUser{})
	assert.ErrorIs(t, err, types.ErrSessionClosed)

	_, err = client.Insert(ctx, &testUser{ID: 1, Name: "ann"}, nil)
	assert.ErrorIs(t, err, types.ErrSessionClosed)

	_, err = client.Count(ctx, &testUser{})
	assert.ErrorIs(t, err, types.ErrSessionClosed)
}

func TestClientTableName(t *testing.T) {
	client := newTestClient(t, newMockSession())

	name, err := client.TableName(&testEvent{})
	require.NoError(t, err)
	assert.Equal(t, "event", name)
}

func TestClientSelect(t *testing.T) {
	session := newMockSession()
	session.rows = []map[string]any{
		{"id": int64(1), "name": "ann"},
		{"id": int64(2), "name": "bob"},
	}
	client := newTestClient(t, session)

	out, err := client.Select(context.Background(), "SELECT id, name, email FROM user", &testUser{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	q := session.lastQuery()
	require.NotNil(t, q)
	assert.Equal(t, "SELECT id, name, email FROM user", q.statement)
}

func TestClientSelectAppliesQueryOptions(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	cons := types.LocalQuorum
	stmt := NewStatement("SELECT id, name, email FROM user").
		WithQueryOptions(&types.QueryOptions{Consistency: &cons, PageSize: 500})

	_, err := client.SelectWith(context.Background(), stmt, &testUser{})
	require.NoError(t, err)

	q := session.lastQuery()
	require.NotNil(t, q.consistency)
	assert.Equal(t, types.LocalQuorum, *q.consistency)
	assert.Equal(t, 500, q.pageSize)
}

func TestClientDefaultQueryOptions(t *testing.T) {
	session := newMockSession()
	cons := types.One
	client := newTestClient(t, session,
		WithDefaultQueryOptions(&types.QueryOptions{Consistency: &cons, PageSize: 100}),
	)

	_, err := client.Select(context.Background(), "SELECT id, name, email FROM user", &testUser{})
	require.NoError(t, err)

	q := session.lastQuery()
	require.NotNil(t, q.consistency)
	assert.Equal(t, types.One, *q.consistency)
	assert.Equal(t, 100, q.pageSize)
}

func TestClientSelectOneByID(t *testing.T) {
	session := newMockSession()
	session.rows = []map[string]any{{"id": int64(1), "name": "ann"}}
	client := newTestClient(t, session)

	e, found, err := client.SelectOneByID(context.Background(), int64(1), &testUser{})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ann", e.(*testUser).Name)

	q := session.lastQuery()
	assert.Equal(t, "SELECT id, name, email FROM user WHERE id = ?", q.statement)
	assert.Equal(t, []any{int64(1)}, q.values)
}

func TestClientSelectOneByIDAbsent(t *testing.T) {
	client := newTestClient(t, newMockSession())

	e, found, err := client.SelectOneByID(context.Background(), int64(404), &testUser{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, e)
}

func TestClientSelectBySimpleIDs(t *testing.T) {
	session := newMockSession()
	session.rows = []map[string]any{
		{"id": int64(2), "name": "bob"},
		{"id": int64(1), "name": "ann"},
	}
	client := newTestClient(t, session)

	out, err := client.SelectBySimpleIDs(context.Background(), []any{int64(1), int64(2)}, &testUser{})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	q := session.lastQuery()
	assert.Equal(t, "SELECT id, name, email FROM user WHERE id IN (?, ?)", q.statement)
}

func TestClientSelectBySimpleIDsEmpty(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	out, err := client.SelectBySimpleIDs(context.Background(), nil, &testUser{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, session.queries, "empty id list must not dispatch")
}

func TestClientSelectBySimpleIDsCompositeKey(t *testing.T) {
	client := newTestClient(t, newMockSession())

	_, err := client.SelectBySimpleIDs(context.Background(), []any{"t1"}, &testEvent{})

	var uerr *types.UnsupportedOperationError
	require.ErrorAs(t, err, &uerr)
}

func TestClientExists(t *testing.T) {
	session := newMockSession()
	session.rows = []map[string]any{{"id": int64(1)}}
	client := newTestClient(t, session)

	found, err := client.Exists(context.Background(), int64(1), &testUser{})
	require.NoError(t, err)
	assert.True(t, found)

	q := session.lastQuery()
	assert.Equal(t, "SELECT id FROM user WHERE id = ? LIMIT 1", q.statement)

	session.rows = nil
	found, err = client.Exists(context.Background(), int64(2), &testUser{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClientCount(t *testing.T) {
	session := newMockSession()
	session.scanValues = []any{int64(42)}
	client := newTestClient(t, session)

	count, err := client.Count(context.Background(), &testUser{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)

	q := session.lastQuery()
	assert.Equal(t, "SELECT COUNT(*) FROM user", q.statement)
}

func TestClientStream(t *testing.T) {
	session := newMockSession()
	session.rows = []map[string]any{
		{"id": int64(1), "name": "ann"},
		{"id": int64(2), "name": "bob"},
	}
	client := newTestClient(t, session)

	stream, err := client.Stream(context.Background(), "SELECT id, name, email FROM user", &testUser{})
	require.NoError(t, err)
	defer stream.Close()

	var ids []int64
	for {
		e, ok := stream.Next()
		if !ok {
			break
		}
		ids = append(ids, e.(*testUser).ID)
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestClientInsert(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session, WithTimestampProvider(func() int64 { return 12345 }))

	applied, err := client.Insert(context.Background(), &testUser{ID: 1, Name: "ann"}, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	q := session.lastQuery()
	assert.Equal(t, "INSERT INTO user (id, name, email) VALUES (?, ?, ?)", q.statement)
	assert.Equal(t, []any{int64(1), "ann", nil}, q.values)
	require.NotNil(t, q.timestamp)
	assert.Equal(t, int64(12345), *q.timestamp)
	assert.False(t, q.casScanned)
}

func TestClientInsertIdempotentStatements(t *testing.T) {
	// A fixed timestamp provider makes repeated dispatches of the same
	// entity byte-identical, so a replay cannot move the row backwards.
	session := newMockSession()
	client := newTestClient(t, session, WithTimestampProvider(func() int64 { return 777 }))

	ctx := context.Background()
	_, err := client.Insert(ctx, &testUser{ID: 1, Name: "ann"}, nil)
	require.NoError(t, err)
	_, err = client.Insert(ctx, &testUser{ID: 1, Name: "ann"}, nil)
	require.NoError(t, err)

	require.Len(t, session.queries, 2)
	assert.Equal(t, session.queries[0].statement, session.queries[1].statement)
	assert.Equal(t, session.queries[0].values, session.queries[1].values)
	assert.Equal(t, *session.queries[0].timestamp, *session.queries[1].timestamp)
}

func TestClientInsertIfNotExists(t *testing.T) {
	session := newMockSession()
	session.casApplied = false
	client := newTestClient(t, session)

	applied, err := client.Insert(context.Background(), &testUser{ID: 1, Name: "ann"},
		&types.WriteOptions{IfNotExists: true})
	require.NoError(t, err)
	assert.False(t, applied)

	q := session.lastQuery()
	assert.True(t, q.casScanned)
	assert.Nil(t, q.timestamp, "conditional writes must not carry a client timestamp")
}

func TestClientInsertDispatchError(t *testing.T) {
	session := newMockSession()
	session.execErr = errors.New("unavailable")
	client := newTestClient(t, session)

	applied, err := client.Insert(context.Background(), &testUser{ID: 1, Name: "ann"}, nil)
	require.EqualError(t, err, "unavailable")
	assert.False(t, applied)
}

func TestClientUpdate(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	err := client.Update(context.Background(), &testUser{ID: 1, Name: "bob"}, nil)
	require.NoError(t, err)

	q := session.lastQuery()
	assert.Equal(t, "UPDATE user SET name = ?, email = ? WHERE id = ?", q.statement)
	assert.Equal(t, []any{"bob", nil, int64(1)}, q.values)
	assert.NotNil(t, q.timestamp)
}

func TestClientDelete(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	err := client.Delete(context.Background(), &testUser{ID: 1}, nil)
	require.NoError(t, err)

	q := session.lastQuery()
	assert.Equal(t, "DELETE FROM user WHERE id = ?", q.statement)
	assert.Equal(t, []any{int64(1)}, q.values)
}

func TestClientDeleteByID(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	err := client.DeleteByID(context.Background(), map[string]any{"tenant": "t1", "seq": int64(7)}, &testEvent{}, nil)
	require.NoError(t, err)

	q := session.lastQuery()
	assert.Equal(t, "DELETE FROM event WHERE tenant = ? AND seq = ?", q.statement)
	assert.Equal(t, []any{"t1", int64(7)}, q.values)
}

func TestClientTruncate(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	err := client.Truncate(context.Background(), &testUser{})
	require.NoError(t, err)

	q := session.lastQuery()
	assert.Equal(t, "TRUNCATE user", q.statement)
	assert.Nil(t, q.timestamp, "TRUNCATE does not take a write timestamp")
}

func TestClientExecuteRawWrite(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	stmt := NewStatement("UPDATE user SET name = ? WHERE id = ?", "bob", int64(1))
	applied, err := client.Execute(context.Background(), stmt)
	require.NoError(t, err)
	assert.True(t, applied)

	q := session.lastQuery()
	assert.Equal(t, "UPDATE user SET name = ? WHERE id = ?", q.statement)
	assert.Equal(t, []any{"bob", int64(1)}, q.values)
}

func TestClientWriteConsistency(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	cons := types.Quorum
	_, err := client.Insert(context.Background(), &testUser{ID: 1, Name: "ann"},
		&types.WriteOptions{Consistency: &cons})
	require.NoError(t, err)

	q := session.lastQuery()
	require.NotNil(t, q.consistency)
	assert.Equal(t, types.Quorum, *q.consistency)
}

func TestClientWriteTimestampOverride(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session, WithTimestampProvider(func() int64 { return 1 }))

	_, err := client.Insert(context.Background(), &testUser{ID: 1, Name: "ann"},
		&types.WriteOptions{Timestamp: 99})
	require.NoError(t, err)

	q := session.lastQuery()
	require.NotNil(t, q.timestamp)
	assert.Equal(t, int64(99), *q.timestamp)
}

func TestClientReadTimeout(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session,
		WithDefaultQueryOptions(&types.QueryOptions{ReadTimeout: 250 * time.Millisecond}),
	)

	_, err := client.Select(context.Background(), "SELECT id, name, email FROM user", &testUser{})
	require.NoError(t, err)

	q := session.lastQuery()
	require.NotNil(t, q.ctx)
	deadline, ok := q.ctx.Deadline()
	require.True(t, ok, "read timeout must derive a context deadline")
	assert.WithinDuration(t, time.Now().Add(250*time.Millisecond), deadline, time.Second)
}

func TestClientNoReadTimeout(t *testing.T) {
	session := newMockSession()
	client := newTestClient(t, session)

	_, err := client.Select(context.Background(), "SELECT id, name, email FROM user", &testUser{})
	require.NoError(t, err)

	q := session.lastQuery()
	require.NotNil(t, q.ctx)
	_, ok := q.ctx.Deadline()
	assert.False(t, ok)
}
