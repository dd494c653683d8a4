package types

import "errors"

// Descriptor is the schema capability a record type publishes so that a
// Store can create, migrate and read back its table.
//
// The keys returned by a record's Properties must be a subset of Columns.
// The store does not check this; a violation surfaces as a failed statement.
type Descriptor interface {
	// Name returns the table name, conventionally the record type's name.
	Name() string

	// Columns returns the declared columns (name and type, no payload) used
	// for table creation and column addition.
	Columns() []Property

	// DroppedColumns returns the columns scheduled for removal on migration.
	DroppedColumns() []Property

	// New reconstructs a record from one result row. It returns false when
	// the row cannot be converted; such rows are skipped.
	New(row Row) (Record, bool)
}

// Record is one persisted instance.
type Record interface {
	// Descriptor returns the schema capability of the record's type.
	Descriptor() Descriptor

	// Properties returns the instance's persisted fields in declared order.
	Properties() []Property
}

// Row is a read-only view of one result row. Getters address columns by
// name and return false when the column is absent or NULL.
type Row interface {
	Columns() []string
	String(column string) (string, bool)
	Int(column string) (int64, bool)
	Float(column string) (float64, bool)
	Bytes(column string) ([]byte, bool)
	IsNull(column string) bool
}

// Schema is a Descriptor assembled from plain values.
type Schema struct {
	Table    string
	Declared []Property
	Dropped  []Property
	Factory  func(Row) (Record, bool)
}

// Name implements Descriptor.
func (s *Schema) Name() string { return s.Table }

// Columns implements Descriptor.
func (s *Schema) Columns() []Property { return s.Declared }

// DroppedColumns implements Descriptor.
func (s *Schema) DroppedColumns() []Property { return s.Dropped }

// New implements Descriptor. A nil Factory reconstructs nothing.
func (s *Schema) New(row Row) (Record, bool) {
	if s.Factory == nil {
		return nil, false
	}
	return s.Factory(row)
}

// Schema and statement errors.
var (
	ErrNotDescribable    = errors.New("type does not describe a schema")
	ErrNotRegistered     = errors.New("table is not registered")
	ErrDDLFailure        = errors.New("schema statement rejected")
	ErrDMLFailure        = errors.New("data statement rejected")
	ErrQueryFailure      = errors.New("query rejected")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
