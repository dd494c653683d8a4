// Package sqlite implements the file-backed Store: a registry of tables,
// one SQLite file and one serialized execution handle per table.
package sqlite

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/dbstack/internal/paths"
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// Registry implements types.Store. It maps table names to their handles.
// A table is absent until Load registers it.
type Registry struct {
	mu      sync.RWMutex
	config  types.Config
	handles map[string]*handle
	closed  bool

	logger     *slog.Logger
	dispatcher types.Dispatcher
	serial     *Serial // owned default dispatcher, nil when one was injected
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for statement and failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDispatcher sets where completion callbacks run. The registry does not
// close an injected dispatcher.
func WithDispatcher(d types.Dispatcher) Option {
	return func(r *Registry) {
		if d != nil {
			r.dispatcher = d
		}
	}
}

// NewRegistry validates cfg, creates the data directory and returns an
// empty registry. An empty Driver selects types.DriverModernc.
func NewRegistry(cfg types.Config, opts ...Option) (*Registry, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	cfg.DataDir = dataDir

	r := &Registry{
		config:  cfg,
		handles: make(map[string]*handle),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.dispatcher == nil {
		r.serial = NewSerial()
		r.dispatcher = r.serial
	}
	r.logger = r.logger.With(slog.String("component", "registry"))
	return r, nil
}

// Config returns the effective configuration.
func (r *Registry) Config() types.Config {
	return r.config
}

// Load registers the table described by v. See types.Store.
//
// On first load the table file is opened once to run CREATE TABLE IF NOT
// EXISTS, then a handle is registered for it, whether or not creation
// succeeded, and the columns are migrated on that handle before Load
// returns. Loading a table that is already registered runs both steps on
// its existing handle, queued behind pending work.
func (r *Registry) Load(v any) error {
	d, ok := v.(types.Descriptor)
	if !ok || d == nil {
		r.logger.Error("load rejected: type does not describe a schema", slog.String("type", fmt.Sprintf("%T", v)))
		return types.ErrNotDescribable
	}

	table := d.Name()
	if r.isClosed() {
		return types.ErrStoreClosed
	}
	if err := checkSchema(d); err != nil {
		r.logger.Error("load rejected", slog.String("table", table), slog.Any("error", err))
		return err
	}

	path := paths.DatabasePath(r.config.DataDir, table)
	var createErr error
	if h := r.handle(table); h != nil {
		// A second connection would contend with the handle's own writes.
		h.run(func(c *conn) { createErr = r.createOn(c, d) })
	} else {
		createErr = r.create(d, path)
	}

	h, err := r.register(table, path)
	if err != nil {
		r.logger.Error("register table failed", slog.String("table", table), slog.Any("error", err))
		return err
	}

	var m migration
	h.run(func(c *conn) {
		m = migrate(c, d, r.config.StrictDrop, r.logger)
	})
	if len(m.added) > 0 || len(m.dropped) > 0 || len(m.failed) > 0 {
		r.logger.Info("table migrated",
			slog.String("table", table),
			slog.Any("added", m.added),
			slog.Any("dropped", m.dropped),
			slog.Any("failed", m.failed))
	}

	if createErr != nil {
		return fmt.Errorf("create table %s: %w", table, createErr)
	}
	return nil
}

// create runs the CREATE TABLE statement of a first load on a bootstrap
// connection that is closed before returning.
func (r *Registry) create(d types.Descriptor, path string) error {
	c, err := openConn(r.config, path)
	if err != nil {
		r.logger.Error("open table file failed", slog.String("table", d.Name()), slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("%w: %v", types.ErrDDLFailure, err)
	}
	defer c.close()
	return r.createOn(c, d)
}

// createOn runs the CREATE TABLE statement for d on c.
func (r *Registry) createOn(c *conn, d types.Descriptor) error {
	stmt := createTableSQL(d)
	r.logger.Debug("sql", slog.String("table", d.Name()), slog.String("sql", stmt))
	if err := c.execStatement(stmt); err != nil {
		r.logger.Error("create table failed", slog.String("table", d.Name()), slog.String("sql", stmt), slog.Any("error", err))
		return err
	}
	return nil
}

// register returns the handle for table, opening one if needed.
func (r *Registry) register(table, path string) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, types.ErrStoreClosed
	}
	if h, ok := r.handles[table]; ok {
		return h, nil
	}

	c, err := openConn(r.config, path)
	if err != nil {
		return nil, err
	}
	h := newHandle(table, c, r.logger)
	r.handles[table] = h
	return h, nil
}

// checkSchema verifies that the table and column names of d are identifiers.
func checkSchema(d types.Descriptor) error {
	if err := types.CheckIdentifiers(d.Name()); err != nil {
		return err
	}
	if err := types.CheckIdentifiers(types.Keys(d.Columns())...); err != nil {
		return err
	}
	return types.CheckIdentifiers(types.Keys(d.DroppedColumns())...)
}

// Registered reports whether table has a handle.
func (r *Registry) Registered(table string) bool {
	return r.handle(table) != nil
}

// Tables returns the registered table names.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	return names
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// handle returns the handle for table or nil.
func (r *Registry) handle(table string) *handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[table]
}

// Close drains and closes every handle concurrently, then stops the default
// dispatcher after it has delivered the pending completions. Idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	handles := r.handles
	r.handles = make(map[string]*handle)
	r.mu.Unlock()

	var g errgroup.Group
	for name, h := range handles {
		g.Go(func() error {
			if err := h.close(); err != nil {
				return fmt.Errorf("close %s: %w", name, err)
			}
			return nil
		})
	}
	err := g.Wait()

	if r.serial != nil {
		r.serial.Close()
	}
	return err
}

// complete delivers a boolean completion through the dispatcher.
func (r *Registry) complete(done func(bool), ok bool) {
	if done == nil {
		return
	}
	r.dispatcher.Dispatch(func() { done(ok) })
}

// completeRecords delivers a select completion through the dispatcher.
func (r *Registry) completeRecords(done func([]types.Record), records []types.Record) {
	if done == nil {
		return
	}
	r.dispatcher.Dispatch(func() { done(records) })
}

// newOpID returns a UUID v7 identifying one submitted operation in logs.
func newOpID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

var _ types.Store = (*Registry)(nil)
