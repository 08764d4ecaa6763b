// Package v1 adapts gocql v1 (github.com/gocql/gocql) to the cql.Session
// interface consumed by entmap.
//
// Wrap an existing gocql session and hand it to the client:
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	cluster.Keyspace = "app"
//	session, err := cluster.CreateSession()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := entmap.NewClient(v1.WrapSession(session))
//
// The adapter forwards consistency, paging, and timestamp settings to the
// underlying driver and converts gocql iterators to cql.Iter.
package v1
