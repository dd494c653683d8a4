package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// conn is one open connection to a table's backing file. It is the narrow
// engine surface the registry relies on: statement execution, parameterized
// updates, queries and column introspection.
type conn struct {
	db   *sql.DB
	path string
}

// openConn opens the file at path with the configured driver and applies
// the configured pragmas. The pool is limited to one connection; the
// engine accepts a single writer per file.
func openConn(cfg types.Config, path string) (*conn, error) {
	db, err := sql.Open(cfg.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	if err := applyPragmas(db, cfg); err != nil {
		db.Close()
		return nil, err
	}

	return &conn{db: db, path: path}, nil
}

// applyPragmas sets the journal mode and busy timeout when configured.
func applyPragmas(db *sql.DB, cfg types.Config) error {
	var pragmas []string
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+strings.ToUpper(cfg.JournalMode))
	}
	if cfg.BusyTimeoutMS > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMS))
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// close releases the connection. Safe to call more than once.
func (c *conn) close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// execStatement runs a DDL statement.
func (c *conn) execStatement(stmt string) error {
	if _, err := c.db.Exec(stmt); err != nil {
		return fmt.Errorf("%w: %v", types.ErrDDLFailure, err)
	}
	return nil
}

// execUpdate runs a DML statement with positional arguments and returns the
// number of affected rows.
func (c *conn) execUpdate(stmt string, args ...any) (int64, error) {
	res, err := c.db.Exec(stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrDMLFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// query runs a SELECT. Callers close the returned rows.
func (c *conn) query(stmt string, args ...any) (*sql.Rows, error) {
	rows, err := c.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrQueryFailure, err)
	}
	return rows, nil
}

// columnExists reports whether table has a column named column.
func (c *conn) columnExists(table, column string) (bool, error) {
	cols, err := c.columns(table)
	if err != nil {
		return false, err
	}
	for _, name := range cols {
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, nil
}

// columns lists the live column names of table in declaration order.
func (c *conn) columns(table string) ([]string, error) {
	rows, err := c.db.Query(`PRAGMA table_info(` + table + `)`)
	if err != nil {
		return nil, fmt.Errorf("query table info %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dfltVal any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dfltVal, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return names, nil
}
