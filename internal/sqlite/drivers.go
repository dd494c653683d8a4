package sqlite

// Engine drivers selectable through types.Config.Driver. modernc.org/sqlite
// registers "sqlite"; github.com/mattn/go-sqlite3 registers "sqlite3" and
// needs cgo to open connections.
import (
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)
