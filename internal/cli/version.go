package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dbstack/pkg/dbstack"
)

const modulePath = "github.com/mesh-intelligence/dbstack"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dbstack version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "dbstack v%s\nmodule: %s\n", dbstack.Version, modulePath)
			return nil
		},
	}
}
