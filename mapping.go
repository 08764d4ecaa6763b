package entmap

import (
	"reflect"
	"sync"

	"github.com/arloliu/entmap/types"
)

// Entity is implemented by types that can be persisted through entmap.
//
// The mapping is a declarative, statically built field-descriptor table:
// no struct tags and no reflective field access. Each column carries its
// own accessor and mutator, so entity types stay plain Go structs.
//
// Example:
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
// EntityMapping must be a pure function of the type: it is called once per
// process for each entity type and the result is cached. Mutating the
// returned Mapping afterwards has no effect.
type Entity interface {
	// EntityMapping returns the declarative table mapping for the type.
	EntityMapping() Mapping
}

// Ordering is the declared clustering order of a clustering key column.
type Ordering int

// Clustering key orderings.
const (
	Asc Ordering = iota
	Desc
)

// Column maps a single entity field to a CQL column.
type Column struct {
	// Name is the CQL column identifier. Must be unique within a mapping.
	Name string

	// Get extracts the column value from the entity.
	Get func(e Entity) any

	// Set writes a column value read from a row projection into the
	// entity. Implementations should return an error on a value of an
	// unexpected type; the error is surfaced as a MappingError.
	Set func(e Entity, v any) error

	// Nullable marks the column as optional: absent on reads and, unless
	// bound as an explicit null, unset on writes. Primary key columns
	// ignore this field and are always required.
	Nullable bool
}

// ClusteringColumn is a clustering key column with its declared ordering.
type ClusteringColumn struct {
	Column

	// Order is the declared clustering direction.
	Order Ordering
}

// Mapping is the declarative persistent-row shape of an entity type.
type Mapping struct {
	// Table is the target table identifier.
	Table string

	// PartitionKeys are the partition key columns, in declaration order.
	// At least one is required.
	PartitionKeys []Column

	// ClusteringKeys are the clustering key columns, in declaration order.
	ClusteringKeys []ClusteringColumn

	// Columns are the regular (non-key) columns, in declaration order.
	Columns []Column

	// New constructs a fresh, empty instance of the entity type. Used by
	// the result converter to materialize rows.
	New func() Entity
}

// EntityDescriptor is the cached, validated structural mapping between an
// entity type and its table shape.
//
// Descriptors are immutable after creation. The same entity type always
// resolves to the same descriptor instance for the process lifetime, even
// under concurrent first access.
type EntityDescriptor struct {
	table      string
	partition  []Column
	clustering []ClusteringColumn
	columns    []Column
	newEntity  func() Entity

	// primaryKey and allColumns are precomputed flattenings, key columns
	// first in partition-then-clustering order.
	primaryKey []Column
	allColumns []Column
}

// TableName returns the table identifier for the entity type.
func (d *EntityDescriptor) TableName() string {
	return d.table
}

// PartitionKeys returns the partition key columns in declaration order.
func (d *EntityDescriptor) PartitionKeys() []Column {
	return d.partition
}

// ClusteringKeys returns the clustering key columns in declaration order.
func (d *EntityDescriptor) ClusteringKeys() []ClusteringColumn {
	return d.clustering
}

// PrimaryKey returns all key columns, partition keys first.
func (d *EntityDescriptor) PrimaryKey() []Column {
	return d.primaryKey
}

// Columns returns the regular (non-key) columns in declaration order.
func (d *EntityDescriptor) Columns() []Column {
	return d.columns
}

// AllColumns returns every mapped column, key columns first.
func (d *EntityDescriptor) AllColumns() []Column {
	return d.allColumns
}

// New constructs a fresh, empty instance of the entity type.
func (d *EntityDescriptor) New() Entity {
	return d.newEntity()
}

// descriptors is the process-wide registry of entity descriptors, keyed by
// type identity. Populated lazily, never evicted.
var descriptors sync.Map // reflect.Type -> *EntityDescriptor

// Describe returns the descriptor for the given entity type, building and
// caching it on first use.
//
// Concurrent first-time builds for the same type are resolved
// first-writer-wins: a losing builder discards its result and adopts the
// winner's descriptor, so all callers observe one stable instance.
//
// Parameters:
//   - proto: Any value of the entity type (typically a zero-value pointer)
//
// Returns:
//   - *EntityDescriptor: The cached descriptor for the type
//   - error: ErrNilEntity, or a MappingError when the mapping is invalid
func Describe(proto Entity) (*EntityDescriptor, error) {
	if proto == nil {
		return nil, types.ErrNilEntity
	}

	key := reflect.TypeOf(proto)
	if cached, ok := descriptors.Load(key); ok {
		return cached.(*EntityDescriptor), nil
	}

	desc, err := buildDescriptor(proto)
	if err != nil {
		return nil, err
	}

	actual, _ := descriptors.LoadOrStore(key, desc)

	return actual.(*EntityDescriptor), nil
}

// TableNameFor returns the table identifier for the entity type.
//
// This is a pure projection of the descriptor; it fails only when the type
// cannot be described.
func TableNameFor(proto Entity) (string, error) {
	desc, err := Describe(proto)
	if err != nil {
		return "", err
	}

	return desc.TableName(), nil
}

// ExtractID returns the primary key values of the entity, partition keys
// first, in declaration order.
//
// Returns a MappingError when a primary key field is unset (nil or a nil
// pointer).
func ExtractID(e Entity) ([]any, error) {
	desc, err := Describe(e)
	if err != nil {
		return nil, err
	}

	id := make([]any, len(desc.primaryKey))
	for i, col := range desc.primaryKey {
		v := col.Get(e)
		if isUnset(v) {
			return nil, &types.MappingError{
				Entity: desc.table,
				Field:  col.Name,
				Reason: "primary key value is not set",
			}
		}
		id[i] = v
	}

	return id, nil
}

// buildDescriptor validates a Mapping and freezes it into a descriptor.
func buildDescriptor(proto Entity) (*EntityDescriptor, error) {
	m := proto.EntityMapping()

	entity := m.Table
	if entity == "" {
		entity = reflect.TypeOf(proto).String()
	}

	if m.Table == "" {
		return nil, &types.MappingError{Entity: entity, Reason: "table identifier is empty"}
	}
	if len(m.PartitionKeys) == 0 {
		return nil, &types.MappingError{Entity: entity, Reason: "no partition key declared"}
	}
	if m.New == nil {
		return nil, &types.MappingError{Entity: entity, Reason: "no New factory declared"}
	}

	desc := &EntityDescriptor{
		table:      m.Table,
		partition:  append([]Column(nil), m.PartitionKeys...),
		clustering: append([]ClusteringColumn(nil), m.ClusteringKeys...),
		columns:    append([]Column(nil), m.Columns...),
		newEntity:  m.New,
	}

	// Key columns are required on reads and writes regardless of the
	// declared nullability.
	for i := range desc.partition {
		desc.partition[i].Nullable = false
	}
	for i := range desc.clustering {
		desc.clustering[i].Nullable = false
	}

	desc.primaryKey = make([]Column, 0, len(desc.partition)+len(desc.clustering))
	desc.primaryKey = append(desc.primaryKey, desc.partition...)
	for _, cc := range desc.clustering {
		desc.primaryKey = append(desc.primaryKey, cc.Column)
	}

	desc.allColumns = make([]Column, 0, len(desc.primaryKey)+len(desc.columns))
	desc.allColumns = append(desc.allColumns, desc.primaryKey...)
	desc.allColumns = append(desc.allColumns, desc.columns...)

	seen := make(map[string]struct{}, len(desc.allColumns))
	for _, col := range desc.allColumns {
		if col.Name == "" {
			return nil, &types.MappingError{Entity: entity, Reason: "column with empty identifier"}
		}
		if col.Get == nil || col.Set == nil {
			return nil, &types.MappingError{
				Entity: entity,
				Field:  col.Name,
				Reason: "column missing Get or Set accessor",
			}
		}
		if _, dup := seen[col.Name]; dup {
			return nil, &types.MappingError{
				Entity: entity,
				Field:  col.Name,
				Reason: "duplicate column identifier",
			}
		}
		seen[col.Name] = struct{}{}
	}

	return desc, nil
}

// isUnset reports whether a column value extracted from an entity should be
// treated as not set. A nil interface or a typed nil pointer counts as
// unset; everything else, including zero values, is a real value.
func isUnset(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
