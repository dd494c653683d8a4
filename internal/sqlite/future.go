package sqlite

import "github.com/mesh-intelligence/dbstack/pkg/types"

// Channel adapters over the callback API. Each returned channel is buffered
// and receives exactly one value, so the dispatcher never blocks on it.

// InsertAsync submits rec and returns a channel carrying the outcome.
func InsertAsync(s types.Store, rec types.Record) <-chan bool {
	ch := make(chan bool, 1)
	s.Insert(rec, func(ok bool) { ch <- ok })
	return ch
}

// DeleteAsync submits a delete and returns a channel carrying the outcome.
func DeleteAsync(s types.Store, table string, cond types.Condition) <-chan bool {
	ch := make(chan bool, 1)
	s.Delete(table, cond, func(ok bool) { ch <- ok })
	return ch
}

// UpdateAsync submits an update and returns a channel carrying the outcome.
func UpdateAsync(s types.Store, rec types.Record, cond types.Condition) <-chan bool {
	ch := make(chan bool, 1)
	s.Update(rec, cond, func(ok bool) { ch <- ok })
	return ch
}

// SelectAsync submits a select and returns a channel carrying the records,
// nil when the table is not registered.
func SelectAsync(s types.Store, d types.Descriptor, cond types.Condition) <-chan []types.Record {
	ch := make(chan []types.Record, 1)
	s.Select(d, cond, func(records []types.Record) { ch <- records })
	return ch
}

// Collect keeps the records of concrete type T, in order.
func Collect[T types.Record](records []types.Record) []T {
	if records == nil {
		return nil
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if t, ok := rec.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
