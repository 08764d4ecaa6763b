// Package entmap is an entity mapping and execution layer for wide-column
// stores accessed over CQL.
//
// entmap translates typed entities to parameterized statements, converts
// result rows back into typed entities (eagerly or as a lazy stream), and
// assembles multiple writes into logged or unlogged batches with defined
// atomicity semantics. It is not a query planner: it only builds,
// dispatches, and converts. Connection management, retry policy, and value
// serialization belong to the underlying driver session.
//
// # Declaring Entities
//
// Entity types declare their table shape once, as a static field-descriptor
// table - no struct tags, no reflective field access:
//
//	type User struct {
//	    ID   int64
//	    Name string
//	}
//
//	func (u *User) EntityMapping() entmap.Mapping {
//	    return entmap.Mapping{
//	        Table: "user",
//	        New:   func() entmap.Entity { return &User{} },
//	        PartitionKeys: []entmap.Column{{
//	            Name: "id",
//	            Get:  func(e entmap.Entity) any { return e.(*User).ID },
//	            Set:  func(e entmap.Entity, v any) error { e.(*User).ID = v.(int64); return nil },
//	        }},
//	        Columns: []entmap.Column{{
//	            Name: "name",
//	            Get:  func(e entmap.Entity) any { return e.(*User).Name },
//	            Set:  func(e entmap.Entity, v any) error { e.(*User).Name = v.(string); return nil },
//	        }},
//	    }
//	}
//
// Descriptors are built lazily, cached process-wide, and stable: the same
// type always resolves to the same descriptor instance, even under
// concurrent first access.
//
// # Basic Usage
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	cluster.Keyspace = "app"
//	session, _ := cluster.CreateSession()
//
//	client, err := entmap.NewClient(v1.WrapSession(session))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	_, err = client.Insert(ctx, &User{ID: 1, Name: "ann"}, nil)
//	e, found, err := client.SelectOneByID(ctx, int64(1), &User{})
//
// # Batches
//
// Each batch unit is executed exactly once; obtain a fresh unit per batch:
//
//	applied, err := client.Batch(types.LoggedBatch).
//	    Insert(&User{ID: 1, Name: "ann"}, nil).
//	    Insert(&User{ID: 2, Name: "bob"}, nil).
//	    Execute(ctx)
//
// # Errors
//
// Failures surface as a closed set of structured error types defined in
// the types package: MappingError, IllegalStateError,
// UnsupportedOperationError, and IncorrectResultSizeError. Dispatch-layer
// failures propagate unchanged from the driver; entmap never retries.
package entmap
