package sqlite

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// Statement builders. Clauses come from types.Condition.Bind and already
// carry their leading space.

func insertSQL(table string, keys []string) string {
	if len(keys) == 0 {
		return "INSERT INTO " + table + " DEFAULT VALUES"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	return "INSERT INTO " + table + " (" + strings.Join(keys, ", ") + ") VALUES (" + placeholders + ")"
}

func updateSQL(table string, keys []string, clause string) string {
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = k + " = ?"
	}
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + clause
}

func selectSQL(table, clause string) string {
	return "SELECT * FROM " + table + clause
}

func deleteSQL(table, clause string) string {
	return "DELETE FROM " + table + clause
}

// Insert implements types.Store.
func (r *Registry) Insert(rec types.Record, done func(ok bool)) {
	if rec == nil {
		r.logger.Warn("insert rejected: nil record")
		r.complete(done, false)
		return
	}
	d := rec.Descriptor()
	if d == nil {
		r.logger.Warn("insert rejected: record has no descriptor", slog.String("type", fmt.Sprintf("%T", rec)))
		r.complete(done, false)
		return
	}

	table := d.Name()
	props := rec.Properties()
	keys := types.Keys(props)
	args := types.Values(props)

	h := r.handle(table)
	if h == nil {
		r.logger.Warn("insert into unregistered table", slog.String("table", table))
		r.complete(done, false)
		return
	}

	op := newOpID()
	submitted := h.submit(func(c *conn) {
		if err := types.CheckIdentifiers(keys...); err != nil {
			r.fail(op, "insert", table, "", err)
			r.complete(done, false)
			return
		}
		stmt := insertSQL(table, keys)
		r.trace(op, "insert", table, stmt, args)
		if _, err := c.execUpdate(stmt, args...); err != nil {
			r.fail(op, "insert", table, stmt, err)
			r.complete(done, false)
			return
		}
		r.complete(done, true)
	})
	if !submitted {
		r.logger.Warn("insert into closed table", slog.String("table", table))
		r.complete(done, false)
	}
}

// Delete implements types.Store. An unregistered table reports success.
func (r *Registry) Delete(table string, cond types.Condition, done func(ok bool)) {
	h := r.handle(table)
	if h == nil {
		r.logger.Warn("delete from unregistered table", slog.String("table", table))
		r.complete(done, true)
		return
	}

	op := newOpID()
	submitted := h.submit(func(c *conn) {
		if err := types.CheckIdentifiers(cond.Keys()...); err != nil {
			r.fail(op, "delete", table, "", err)
			r.complete(done, false)
			return
		}
		clause, args := cond.Bind()
		stmt := deleteSQL(table, clause)
		r.trace(op, "delete", table, stmt, args)
		n, err := c.execUpdate(stmt, args...)
		if err != nil {
			r.fail(op, "delete", table, stmt, err)
			r.complete(done, false)
			return
		}
		r.logger.Debug("rows deleted", slog.String("op", op), slog.String("table", table), slog.Int64("rows", n))
		r.complete(done, true)
	})
	if !submitted {
		r.complete(done, true)
	}
}

// Select implements types.Store.
func (r *Registry) Select(d types.Descriptor, cond types.Condition, done func(records []types.Record)) {
	if d == nil {
		r.logger.Warn("select rejected: nil descriptor")
		r.completeRecords(done, nil)
		return
	}

	table := d.Name()
	h := r.handle(table)
	if h == nil {
		r.logger.Warn("select from unregistered table", slog.String("table", table))
		r.completeRecords(done, nil)
		return
	}

	op := newOpID()
	submitted := h.submit(func(c *conn) {
		r.completeRecords(done, r.query(c, op, d, cond))
	})
	if !submitted {
		r.completeRecords(done, nil)
	}
}

// query runs the select for d on c. Query failures yield an empty result.
func (r *Registry) query(c *conn, op string, d types.Descriptor, cond types.Condition) []types.Record {
	table := d.Name()
	records := []types.Record{}

	if err := types.CheckIdentifiers(cond.Keys()...); err != nil {
		r.fail(op, "select", table, "", err)
		return records
	}

	clause, args := cond.Bind()
	stmt := selectSQL(table, clause)
	r.trace(op, "select", table, stmt, args)

	rows, err := c.query(stmt, args...)
	if err != nil {
		r.fail(op, "select", table, stmt, err)
		return records
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		r.fail(op, "select", table, stmt, fmt.Errorf("%w: %v", types.ErrQueryFailure, err))
		return records
	}

	skipped := 0
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			skipped++
			continue
		}
		if rec, ok := r.reconstruct(d, newRow(cols, vals)); ok {
			records = append(records, rec)
		} else {
			skipped++
		}
	}
	if err := rows.Err(); err != nil {
		r.fail(op, "select", table, stmt, fmt.Errorf("%w: %v", types.ErrQueryFailure, err))
	}
	if skipped > 0 {
		r.logger.Debug("rows skipped", slog.String("op", op), slog.String("table", table), slog.Int("rows", skipped))
	}
	return records
}

// reconstruct calls d.New, treating a panic as a failed conversion.
func (r *Registry) reconstruct(d types.Descriptor, row types.Row) (rec types.Record, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("row reconstruction panicked", slog.String("table", d.Name()), slog.String("panic", fmt.Sprint(p)))
			rec, ok = nil, false
		}
	}()
	rec, ok = d.New(row)
	if rec == nil {
		ok = false
	}
	return rec, ok
}

// Update implements types.Store.
func (r *Registry) Update(rec types.Record, cond types.Condition, done func(ok bool)) {
	if rec == nil {
		r.logger.Warn("update rejected: nil record")
		r.complete(done, false)
		return
	}
	d := rec.Descriptor()
	if d == nil {
		r.logger.Warn("update rejected: record has no descriptor", slog.String("type", fmt.Sprintf("%T", rec)))
		r.complete(done, false)
		return
	}

	table := d.Name()
	props := rec.Properties()
	keys := types.Keys(props)
	values := types.Values(props)

	h := r.handle(table)
	if h == nil {
		r.logger.Warn("update of unregistered table", slog.String("table", table))
		r.complete(done, false)
		return
	}

	op := newOpID()
	submitted := h.submit(func(c *conn) {
		if len(keys) == 0 {
			r.fail(op, "update", table, "", fmt.Errorf("%w: no properties to set", types.ErrDMLFailure))
			r.complete(done, false)
			return
		}
		if err := types.CheckIdentifiers(append(keys, cond.Keys()...)...); err != nil {
			r.fail(op, "update", table, "", err)
			r.complete(done, false)
			return
		}
		clause, condArgs := cond.Bind()
		stmt := updateSQL(table, keys, clause)
		args := append(values, condArgs...)
		r.trace(op, "update", table, stmt, args)
		if _, err := c.execUpdate(stmt, args...); err != nil {
			r.fail(op, "update", table, stmt, err)
			r.complete(done, false)
			return
		}
		r.complete(done, true)
	})
	if !submitted {
		r.logger.Warn("update of closed table", slog.String("table", table))
		r.complete(done, false)
	}
}

// trace logs a statement about to run.
func (r *Registry) trace(op, kind, table, stmt string, args []any) {
	r.logger.Debug("sql",
		slog.String("op", op),
		slog.String("kind", kind),
		slog.String("table", table),
		slog.String("sql", stmt),
		slog.Any("args", args))
}

// fail logs a rejected operation with the attempted statement.
func (r *Registry) fail(op, kind, table, stmt string, err error) {
	r.logger.Warn("statement failed",
		slog.String("op", op),
		slog.String("kind", kind),
		slog.String("table", table),
		slog.String("sql", stmt),
		slog.Any("error", err))
}
