package sqlite

import (
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// primaryKeyColumn is the implicit first column of every table.
const primaryKeyColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"

// createTableSQL returns the CREATE TABLE IF NOT EXISTS statement for d.
func createTableSQL(d types.Descriptor) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.Name())
	b.WriteString(" (")
	b.WriteString(primaryKeyColumn)
	for _, col := range d.Columns() {
		b.WriteString(", ")
		b.WriteString(col.Definition())
	}
	b.WriteString(")")
	return b.String()
}

// addColumnSQL returns the ALTER TABLE statement adding col.
func addColumnSQL(table string, col types.Property) string {
	return "ALTER TABLE " + table + " ADD " + col.Definition()
}

// dropColumnSQL returns the ALTER TABLE statement removing col. In strict
// mode it is the form the engine accepts; otherwise it keeps the historical
// form with the type appended.
func dropColumnSQL(table string, col types.Property, strict bool) string {
	if strict {
		return "ALTER TABLE " + table + " DROP COLUMN " + col.Key()
	}
	return "ALTER TABLE " + table + " DROP " + col.Definition()
}

// migration reports what a migrate pass did.
type migration struct {
	added   []string
	dropped []string
	failed  []string
}

// migrate brings the live columns of d's table in line with its declared
// and dropped columns. Every column is handled independently: a failing
// ALTER is logged and skipped.
//
// Without strict mode, a dropped column is attempted only when the live
// table does not report it, which is the long-standing behaviour existing
// stores were created with. Strict mode drops present columns instead.
func migrate(c *conn, d types.Descriptor, strict bool, logger *slog.Logger) migration {
	table := d.Name()
	var m migration

	for _, col := range d.Columns() {
		exists, err := c.columnExists(table, col.Key())
		if err != nil {
			logger.Warn("column check failed", slog.String("table", table), slog.String("column", col.Key()), slog.Any("error", err))
			m.failed = append(m.failed, col.Key())
			continue
		}
		if exists {
			continue
		}
		stmt := addColumnSQL(table, col)
		logger.Debug("sql", slog.String("table", table), slog.String("sql", stmt))
		if err := c.execStatement(stmt); err != nil {
			logger.Warn("add column failed", slog.String("table", table), slog.String("sql", stmt), slog.Any("error", err))
			m.failed = append(m.failed, col.Key())
			continue
		}
		m.added = append(m.added, col.Key())
	}

	for _, col := range d.DroppedColumns() {
		exists, err := c.columnExists(table, col.Key())
		if err != nil {
			logger.Warn("column check failed", slog.String("table", table), slog.String("column", col.Key()), slog.Any("error", err))
			m.failed = append(m.failed, col.Key())
			continue
		}
		if exists != strict {
			continue
		}
		stmt := dropColumnSQL(table, col, strict)
		logger.Debug("sql", slog.String("table", table), slog.String("sql", stmt))
		if err := c.execStatement(stmt); err != nil {
			logger.Warn("drop column failed", slog.String("table", table), slog.String("sql", stmt), slog.Any("error", err))
			m.failed = append(m.failed, col.Key())
			continue
		}
		m.dropped = append(m.dropped, col.Key())
	}

	return m
}
