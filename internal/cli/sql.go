package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// sqlOutput is the JSON shape of the sql command.
type sqlOutput struct {
	Statement string `json:"statement"`
	Args      []any  `json:"args,omitempty"`
}

func newSQLCmd() *cobra.Command {
	var (
		filter filterFlags
		table  string
		bind   bool
	)
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SELECT statement the filters compile to",
		Long: `Print the SELECT statement built from the given filters without opening
the store. By default values are rendered as SQL literals; --bind shows the
parameterized form the store executes together with its arguments.`,
		Example: `  dbstack sql --where age=49 --sort age --limit 5
  dbstack sql --table Person --any --where name^=Jo --where age>60 --bind`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := types.CheckIdentifiers(table); err != nil {
				return err
			}
			cond, err := filter.condition()
			if err != nil {
				return err
			}
			if err := types.CheckIdentifiers(cond.Keys()...); err != nil {
				return err
			}

			out := sqlOutput{Statement: "SELECT * FROM " + table + cond.Compile()}
			if bind {
				clause, values := cond.Bind()
				out = sqlOutput{Statement: "SELECT * FROM " + table + clause, Args: values}
			}

			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Statement)
			for i, v := range out.Args {
				fmt.Fprintf(cmd.OutOrStdout(), "  $%d = %s\n", i+1, types.Literal(v))
			}
			return nil
		},
	}
	filter.register(cmd, true)
	cmd.Flags().StringVar(&table, "table", personTable, "table name")
	cmd.Flags().BoolVar(&bind, "bind", false, "show placeholders and arguments instead of literals")
	return cmd
}
