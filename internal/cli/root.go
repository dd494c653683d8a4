// Package cli implements the dbstack command-line interface: table setup,
// demo Person records and clause inspection.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dbstack/internal/logging"
	"github.com/mesh-intelligence/dbstack/internal/paths"
	"github.com/mesh-intelligence/dbstack/pkg/dbstack"
	"github.com/mesh-intelligence/dbstack/pkg/sqlite"
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

var flags rootFlags

// NewRootCmd creates the top-level "dbstack" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}

	root := &cobra.Command{
		Use:     "dbstack",
		Short:   "Table-per-file record storage on SQLite",
		Long:    "dbstack stores records in per-table SQLite files, migrates their\ncolumns and queries them with composable filters.",
		Version: dbstack.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newPersonCmd())
	root.AddCommand(newSQLCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		if exitErr, ok := err.(*exitCodeError); ok {
			os.Exit(exitErr.code)
		}
		os.Exit(exitUserError)
	}
}

// exitCodeError carries the process exit code of a failed command.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

// sysError marks err as an environment failure (exit code 2).
func sysError(format string, args ...any) error {
	return &exitCodeError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// session is an open store with the Person table loaded.
type session struct {
	store  types.Store
	logger *slog.Logger
	closer io.Closer
}

// openSession resolves configuration, builds the logger and opens a store
// with the Person table registered. The caller must call close.
func openSession() (*session, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, sysError("resolve config dir: %w", err)
	}
	settings, err := loadSettings(configDir)
	if err != nil {
		return nil, sysError("%w", err)
	}
	if flags.logLevel != "" {
		settings.Log.Level = flags.logLevel
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, settings.Store.DataDir)
	if err != nil {
		return nil, sysError("resolve data dir: %w", err)
	}
	settings.Store.DataDir = dataDir

	logger, closer, err := logging.New(settings.Log)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	store, err := sqlite.NewRegistry(settings.Store, sqlite.WithLogger(logger))
	if err != nil {
		closer.Close()
		return nil, sysError("open store: %w", err)
	}
	if err := store.Load(personSchema); err != nil {
		store.Close()
		closer.Close()
		return nil, sysError("load %s: %w", personTable, err)
	}

	return &session{store: store, logger: logger, closer: closer}, nil
}

func (s *session) close() error {
	err := s.store.Close()
	if cerr := s.closer.Close(); err == nil {
		err = cerr
	}
	return err
}
