package types

import "fmt"

// ColumnType is the storage type tag of a column. Every Property maps to
// exactly one ColumnType.
type ColumnType int

// Storage type tags.
const (
	TypeText ColumnType = iota
	TypeInteger
	TypeReal
	TypeBlob
)

// String returns the SQL type name used in column definitions.
func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "TEXT"
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeBlob:
		return "BLOB"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Property is a single persisted field: a column name, its storage type and
// an optional payload. A Property without a payload serializes as SQL NULL.
// Properties are values; they are built per operation and never mutated.
type Property struct {
	key   string
	typ   ColumnType
	value any // string, int64, float64, []byte or nil
}

// Text returns a TEXT property carrying value.
func Text(key, value string) Property {
	return Property{key: key, typ: TypeText, value: value}
}

// Integer returns an INTEGER property carrying value.
func Integer(key string, value int64) Property {
	return Property{key: key, typ: TypeInteger, value: value}
}

// Real returns a REAL property carrying value.
func Real(key string, value float64) Property {
	return Property{key: key, typ: TypeReal, value: value}
}

// Blob returns a BLOB property carrying value. A nil slice is NULL.
func Blob(key string, value []byte) Property {
	if value == nil {
		return Column(key, TypeBlob)
	}
	return Property{key: key, typ: TypeBlob, value: value}
}

// TextPtr returns a TEXT property whose payload is absent when value is nil.
func TextPtr(key string, value *string) Property {
	if value == nil {
		return Column(key, TypeText)
	}
	return Text(key, *value)
}

// IntegerPtr returns an INTEGER property whose payload is absent when value is nil.
func IntegerPtr(key string, value *int64) Property {
	if value == nil {
		return Column(key, TypeInteger)
	}
	return Integer(key, *value)
}

// RealPtr returns a REAL property whose payload is absent when value is nil.
func RealPtr(key string, value *float64) Property {
	if value == nil {
		return Column(key, TypeReal)
	}
	return Real(key, *value)
}

// Column returns a property with no payload. Descriptors use it to declare
// columns; records use it for NULL fields.
func Column(key string, typ ColumnType) Property {
	return Property{key: key, typ: typ}
}

// Key returns the column name.
func (p Property) Key() string { return p.key }

// Type returns the storage type tag.
func (p Property) Type() ColumnType { return p.typ }

// Valid reports whether the property carries a payload.
func (p Property) Valid() bool { return p.value != nil }

// Value returns the payload suitable for a positional statement argument,
// or nil (SQL NULL) when the payload is absent.
func (p Property) Value() any { return p.value }

// Definition renders the column definition used by CREATE TABLE and
// ALTER TABLE ADD, e.g. "age INTEGER".
func (p Property) Definition() string {
	return p.key + " " + p.typ.String()
}

// String implements fmt.Stringer for log output.
func (p Property) String() string {
	if p.value == nil {
		return p.key + "=NULL"
	}
	if b, ok := p.value.([]byte); ok {
		return fmt.Sprintf("%s=<%d bytes>", p.key, len(b))
	}
	return fmt.Sprintf("%s=%v", p.key, p.value)
}

// Keys returns the column names of props in order.
func Keys(props []Property) []string {
	keys := make([]string, len(props))
	for i, p := range props {
		keys[i] = p.key
	}
	return keys
}

// Values returns the payloads of props in order, nil for absent payloads.
func Values(props []Property) []any {
	vals := make([]any, len(props))
	for i, p := range props {
		vals[i] = p.value
	}
	return vals
}
