package types

import "errors"

// Store maps records to rows in file-backed tables. Each table is bound to
// its own file and served by one serialized execution handle: operations on
// a table run one at a time in submission order, operations on different
// tables run independently.
//
// Insert, Delete, Select and Update return immediately. Their completion
// callbacks run on the store's Dispatcher; a nil callback is allowed.
// Failures are reported through the callback, never returned or panicked.
type Store interface {
	// Load registers the table for v, which must implement Descriptor,
	// creating it if needed and migrating its columns. Load blocks until the
	// table is ready. It returns ErrNotDescribable when v has no schema and
	// an error wrapping ErrDDLFailure when the table cannot be created.
	Load(v any) error

	// Registered reports whether table has been loaded.
	Registered(table string) bool

	// Insert writes rec as a new row. done receives false when the table is
	// not registered or the statement fails.
	Insert(rec Record, done func(ok bool))

	// Delete removes the rows of table matching cond; an empty condition
	// removes every row. Deleting from an unregistered table is a no-op
	// that reports true.
	Delete(table string, cond Condition, done func(ok bool))

	// Select reads the rows of d's table matching cond and reconstructs them
	// with d.New, skipping rows that fail to convert. done receives nil when
	// the table is not registered and an empty slice when the query fails.
	Select(d Descriptor, cond Condition, done func(records []Record))

	// Update sets every property of rec on the rows matching cond. done
	// receives false when the table is not registered or the statement fails.
	Update(rec Record, cond Condition, done func(ok bool))

	// Close waits for queued operations and releases every table handle.
	// Operations submitted afterwards behave as if no table was registered.
	Close() error
}

// Dispatcher decides where completion callbacks run.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Store lifecycle errors.
var (
	ErrStoreClosed = errors.New("store is closed")
)
