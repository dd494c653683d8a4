// Package sqlite provides the public API for the SQLite-backed Store.
// This package exposes the factory and the completion dispatchers while
// keeping implementation details internal.
//
// Example:
//
//	store, err := sqlite.NewRegistry(types.Config{DataDir: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	if err := store.Load(personSchema); err != nil {
//	    return err
//	}
//	store.Insert(person, func(ok bool) { ... })
package sqlite

import (
	"encoding/json"
	"log/slog"

	"github.com/mesh-intelligence/dbstack/internal/sqlite"
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// Option configures a Store created by NewRegistry.
type Option = sqlite.Option

// Dispatchers for completion callbacks.
var (
	Inline    = sqlite.Inline
	Goroutine = sqlite.Goroutine
)

// NewRegistry creates a Store bound to cfg.DataDir. Completions run on a
// private serial dispatcher unless WithDispatcher is given.
func NewRegistry(cfg types.Config, opts ...Option) (types.Store, error) {
	r, err := sqlite.NewRegistry(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return sqlite.WithLogger(logger)
}

// WithDispatcher sets where completion callbacks run.
func WithDispatcher(d types.Dispatcher) Option {
	return sqlite.WithDispatcher(d)
}

// NewSerial returns a dispatcher running completions in order on one goroutine.
func NewSerial() *sqlite.Serial {
	return sqlite.NewSerial()
}

// NewLoop returns a dispatcher drained by the caller.
func NewLoop() *sqlite.Loop {
	return sqlite.NewLoop()
}

// Collect keeps the records of concrete type T.
func Collect[T types.Record](records []types.Record) []T {
	return sqlite.Collect[T](records)
}

// InsertAsync submits rec and returns a channel carrying the outcome.
func InsertAsync(s types.Store, rec types.Record) <-chan bool {
	return sqlite.InsertAsync(s, rec)
}

// DeleteAsync submits a delete and returns a channel carrying the outcome.
func DeleteAsync(s types.Store, table string, cond types.Condition) <-chan bool {
	return sqlite.DeleteAsync(s, table, cond)
}

// UpdateAsync submits an update and returns a channel carrying the outcome.
func UpdateAsync(s types.Store, rec types.Record, cond types.Condition) <-chan bool {
	return sqlite.UpdateAsync(s, rec, cond)
}

// SelectAsync submits a select and returns a channel carrying the records.
func SelectAsync(s types.Store, d types.Descriptor, cond types.Condition) <-chan []types.Record {
	return sqlite.SelectAsync(s, d, cond)
}

// ExportJSONL writes the records of d matching cond to path, one JSON object
// per line.
func ExportJSONL(s types.Store, d types.Descriptor, cond types.Condition, path string) (int, error) {
	return sqlite.ExportJSONL(s, d, cond, path)
}

// ImportJSONL inserts one record per line of path, decoded by decode.
func ImportJSONL(s types.Store, path string, decode func(json.RawMessage) (types.Record, error)) (imported, skipped int, err error) {
	return sqlite.ImportJSONL(s, path, decode)
}
