package types

import (
	"errors"
	"strings"
)

// Config holds engine selection and parameters for a Store.
type Config struct {
	Driver        string `json:"driver" yaml:"driver" mapstructure:"driver"`
	DataDir       string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	JournalMode   string `json:"journal_mode,omitempty" yaml:"journal_mode,omitempty" mapstructure:"journal_mode"`
	BusyTimeoutMS int    `json:"busy_timeout_ms,omitempty" yaml:"busy_timeout_ms,omitempty" mapstructure:"busy_timeout_ms"`

	// StrictDrop makes migration drop a column only when it is present and
	// use ALTER TABLE ... DROP COLUMN. When false, migration keeps the
	// historical behaviour of attempting the drop only for absent columns.
	StrictDrop bool `json:"strict_drop,omitempty" yaml:"strict_drop,omitempty" mapstructure:"strict_drop"`
}

// Supported driver names.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, cgo
)

// Supported journal modes. The empty mode leaves the engine default.
const (
	JournalWAL    = "WAL"
	JournalDelete = "DELETE"
)

// FileExtension is appended to the table name to form its file name.
const FileExtension = ".sqlite"

// Config validation errors.
var (
	ErrDriverEmpty        = errors.New("driver must not be empty")
	ErrDriverUnknown      = errors.New("unknown driver")
	ErrJournalModeUnknown = errors.New("unknown journal mode")
	ErrBusyTimeoutInvalid = errors.New("busy timeout must not be negative")
)

// knownDrivers lists the drivers that Validate accepts.
var knownDrivers = map[string]bool{
	DriverModernc: true,
	DriverMattn:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return ErrDriverUnknown
	}
	switch strings.ToUpper(c.JournalMode) {
	case "", JournalWAL, JournalDelete:
	default:
		return ErrJournalModeUnknown
	}
	if c.BusyTimeoutMS < 0 {
		return ErrBusyTimeoutInvalid
	}
	return nil
}

// WithDefaults returns c with an empty Driver replaced by DriverModernc.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverModernc
	}
	return c
}
