package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dbstack/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize dbstack storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nand create the Person table file.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(configPath(configDir), flags.dataDir); err != nil {
		return sysError("write config: %w", err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	if err := s.close(); err != nil {
		return sysError("finalize storage: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "dbstack initialized successfully")
	return nil
}
